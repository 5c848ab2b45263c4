// Package entity defines the record types stored in the .dit tree:
// issues, comments, users, labels, and assets. Every record is one YAML
// file; the Kind tag selects which fields are meaningful and which
// load/save variant applies.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies an entity variant. The set is closed: every switch
// over Kind handles exactly these five values.
type Kind string

// Entity kinds.
const (
	KindIssue   Kind = "issue"
	KindComment Kind = "comment"
	KindUser    Kind = "user"
	KindLabel   Kind = "label"
	KindAsset   Kind = "asset"
)

// Kinds lists every entity kind in storage-scan order (users first so
// the local account resolves before comments reference it).
func Kinds() []Kind {
	return []Kind{KindUser, KindIssue, KindLabel, KindComment, KindAsset}
}

// DirName returns the storage subdirectory for the kind.
func (k Kind) DirName() string {
	switch k {
	case KindIssue:
		return "issues"
	case KindComment:
		return "comments"
	case KindUser:
		return "users"
	case KindLabel:
		return "labels"
	case KindAsset:
		return "assets"
	}
	return ""
}

// KindForDir maps a storage subdirectory back to its kind.
func KindForDir(dir string) (Kind, bool) {
	for _, kind := range Kinds() {
		if kind.DirName() == dir {
			return kind, true
		}
	}
	return "", false
}

// Comment event kinds. A comment with a non-empty EventKind doubles as
// an event record replayed by the derived views.
const (
	EventResolved     = "resolved"
	EventReopened     = "reopened"
	EventAssigned     = "assigned"
	EventUnassigned   = "unassigned"
	EventAddedLabel   = "added_label"
	EventRemovedLabel = "removed_label"
)

// NormalizeEventKind maps historical aliases onto the canonical event
// kinds. Unknown values pass through unchanged.
func NormalizeEventKind(kind string) string {
	switch kind {
	case "labeled":
		return EventAddedLabel
	case "unlabeled":
		return EventRemovedLabel
	}
	return kind
}

// Minimum short-id prefix lengths per kind.
const (
	ShortIDMinGeneric = 5
	ShortIDMinComment = 8
	ShortIDMinAsset   = 12
)

// Entity is the tagged-variant record. Shared fields are always
// meaningful; the remaining fields belong to the kind noted in their
// comment and are zero for every other kind.
type Entity struct {
	Kind Kind

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    string // User id; empty for the bootstrap account itself
	Path      string // repo-relative backing file; empty until first save

	Title string // issue

	ReplyTo   string // comment: parent issue or comment id
	Text      string // comment
	EventKind string // comment: one of the Event* constants or empty
	Label     string // comment: Label id for label events
	Assignee  string // comment: User id for assignment events

	Email string // user
	Name  string // user, label
	AKA   string // user: alias -> canonical User id

	FgColor  string // label
	BgColor  string // label
	Deadline string // label

	MimeType string // asset
	Ext      string // asset
}

// New returns an unsaved entity of the given kind with a fresh id and
// creation timestamps. Labels get palette colors immediately so a label
// is displayable before its first save.
func New(kind Kind) *Entity {
	now := time.Now()
	e := &Entity{
		Kind:      kind,
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind == KindLabel {
		e.FgColor, e.BgColor = RandomColor()
	}
	return e
}

// ShortIDMin returns the minimum display-id prefix length for the
// entity's kind.
func (e *Entity) ShortIDMin() int {
	switch e.Kind {
	case KindComment:
		return ShortIDMinComment
	case KindAsset:
		return ShortIDMinAsset
	}
	return ShortIDMinGeneric
}

// SlugSeed returns the string the file-name slug is derived from. For
// label and assignment events the seed names the event target; lookup
// resolves target ids and may be nil, in which case the raw id is used.
func (e *Entity) SlugSeed(lookup func(id string) (*Entity, bool)) string {
	switch e.Kind {
	case KindIssue:
		return e.Title
	case KindUser:
		return e.Name
	case KindLabel:
		return e.Name
	case KindAsset:
		return e.MimeType
	case KindComment:
		target := ""
		if e.Label != "" {
			target = e.Label
		}
		if e.Assignee != "" {
			target = e.Assignee
		}
		if target != "" {
			name := target
			if lookup != nil {
				if resolved, ok := lookup(target); ok {
					name = resolved.Name
				}
			}
			return e.EventKind + " " + name
		}
		return e.Text
	}
	return ""
}

// Updatable reports whether the field (by its YAML key) may change
// after creation. Everything else is immutable once saved.
func Updatable(kind Kind, field string) bool {
	switch kind {
	case KindIssue:
		return field == "title"
	case KindComment:
		return field == "text"
	case KindLabel:
		switch field {
		case "name", "fg_color", "bg_color", "deadline":
			return true
		}
	case KindUser:
		switch field {
		case "email", "name", "aka":
			return true
		}
	}
	return false
}
