package entity

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// TimestampLayout matches the format the original tracker wrote and is
// what every entity file in the wild contains. Files written by other
// tools occasionally carry RFC 3339; the decoder accepts both.
const TimestampLayout = "2006-01-02 15:04:05 MST"

var (
	ErrMissingID   = errors.New("entity file has no id")
	ErrUnknownKind = errors.New("unknown entity kind")
)

// Per-variant file shapes. Field order here is the on-disk key order,
// which keeps diffs stable across rewrites.
type fileHeader struct {
	ID        string `yaml:"id"`
	CreatedAt string `yaml:"created_at"`
	UpdatedAt string `yaml:"updated_at"`
	Author    string `yaml:"author,omitempty"`
}

type issueFile struct {
	fileHeader `yaml:",inline"`
	Title      string `yaml:"title"`
}

type commentFile struct {
	fileHeader `yaml:",inline"`
	ReplyTo    string `yaml:"reply_to"`
	Text       string `yaml:"text"`
	Kind       string `yaml:"kind"`
	Label      string `yaml:"label"`
	Assignee   string `yaml:"assignee"`
}

type userFile struct {
	fileHeader `yaml:",inline"`
	Email      string `yaml:"email"`
	Name       string `yaml:"name"`
	AKA        string `yaml:"aka"`
}

type labelFile struct {
	fileHeader `yaml:",inline"`
	Name       string `yaml:"name"`
	FgColor    string `yaml:"fg_color"`
	BgColor    string `yaml:"bg_color"`
	Deadline   string `yaml:"deadline"`
}

type assetFile struct {
	fileHeader `yaml:",inline"`
	MimeType   string `yaml:"mime_type"`
	Ext        string `yaml:"ext"`
}

// Encode serializes the entity to its YAML file format. The variant is
// selected by an explicit switch on Kind.
func Encode(e *Entity) ([]byte, error) {
	header := fileHeader{
		ID:        e.ID,
		CreatedAt: e.CreatedAt.Format(TimestampLayout),
		UpdatedAt: e.UpdatedAt.Format(TimestampLayout),
		Author:    e.Author,
	}

	var doc any

	switch e.Kind {
	case KindIssue:
		doc = issueFile{fileHeader: header, Title: e.Title}
	case KindComment:
		doc = commentFile{
			fileHeader: header,
			ReplyTo:    e.ReplyTo,
			Text:       e.Text,
			Kind:       e.EventKind,
			Label:      e.Label,
			Assignee:   e.Assignee,
		}
	case KindUser:
		doc = userFile{fileHeader: header, Email: e.Email, Name: e.Name, AKA: e.AKA}
	case KindLabel:
		doc = labelFile{
			fileHeader: header,
			Name:       e.Name,
			FgColor:    e.FgColor,
			BgColor:    e.BgColor,
			Deadline:   e.Deadline,
		}
	case KindAsset:
		doc = assetFile{fileHeader: header, MimeType: e.MimeType, Ext: e.Ext}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Kind, err)
	}
	return data, nil
}

// Decode parses YAML entity data of the given kind. The returned entity
// has no Path; the caller sets it from the file location.
func Decode(kind Kind, data []byte) (*Entity, error) {
	e := &Entity{Kind: kind}

	var header fileHeader

	switch kind {
	case KindIssue:
		var file issueFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode issue: %w", err)
		}
		header = file.fileHeader
		e.Title = file.Title
	case KindComment:
		var file commentFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}
		header = file.fileHeader
		e.ReplyTo = file.ReplyTo
		e.Text = file.Text
		e.EventKind = NormalizeEventKind(file.Kind)
		e.Label = file.Label
		e.Assignee = file.Assignee
	case KindUser:
		var file userFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		header = file.fileHeader
		e.Email = file.Email
		e.Name = file.Name
		e.AKA = file.AKA
	case KindLabel:
		var file labelFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode label: %w", err)
		}
		header = file.fileHeader
		e.Name = file.Name
		e.FgColor = file.FgColor
		e.BgColor = file.BgColor
		e.Deadline = file.Deadline
	case KindAsset:
		var file assetFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode asset: %w", err)
		}
		header = file.fileHeader
		e.MimeType = file.MimeType
		e.Ext = file.Ext
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if header.ID == "" {
		return nil, ErrMissingID
	}
	e.ID = header.ID
	e.Author = header.Author

	var err error
	e.CreatedAt, err = parseTimestamp(header.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode %s created_at: %w", kind, err)
	}
	e.UpdatedAt, err = parseTimestamp(header.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode %s updated_at: %w", kind, err)
	}
	return e, nil
}

func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	parsed, err := time.Parse(TimestampLayout, value)
	if err == nil {
		return parsed, nil
	}
	parsed, rfcErr := time.Parse(time.RFC3339, value)
	if rfcErr == nil {
		return parsed, nil
	}
	return time.Time{}, err
}
