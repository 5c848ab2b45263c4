package index

import (
	"dit/internal/entity"
)

// Rep is the plain map form of an entity handed to presentation code.
// Referenced entities (author, label, assignee) appear as one level of
// nested maps rather than bare ids.
type Rep map[string]any

// Representation builds the display map for an entity: the shared keys
// plus the kind's own fields and, for issues, the derived views.
func (ix *Index) Representation(e *entity.Entity) Rep {
	rep := ix.baseRep(e)

	if e.Author != "" {
		if author, ok := ix.get(e.Author); ok {
			rep["author"] = ix.nestedRep(author)
		} else {
			rep["author"] = nil
		}
	}

	switch e.Kind {
	case entity.KindIssue:
		rep["title"] = e.Title
		rep["comment_count"] = ix.CommentCount(e)

		weights, _ := ix.LabelWeights(e)
		labels := make([]Rep, 0)
		for _, label := range ix.ActiveLabels(e) {
			labels = append(labels, ix.nestedRep(label))
		}
		rep["labels"] = labels
		rep["label_weights"] = weights

		votes, fraction := ix.Resolution(e)
		rep["resolved"] = fraction
		rep["resolved_by_user"] = votes

		participants := make(map[string]Rep)
		for id, user := range ix.Participants(e) {
			if user != nil {
				participants[id] = ix.nestedRep(user)
			} else {
				participants[id] = nil
			}
		}
		rep["participants"] = participants

		owners := make([]Rep, 0)
		for _, owner := range ix.Owners(e) {
			owners = append(owners, ix.nestedRep(owner))
		}
		rep["owners"] = owners

	case entity.KindComment:
		rep["reply_to"] = e.ReplyTo
		replyShort := ix.shortIDFor(e.ReplyTo, entity.ShortIDMinGeneric)
		rep["reply_to_short_id"] = replyShort
		replyDesc := replyShort
		if parent, ok := ix.get(e.ReplyTo); ok && parent.Kind == entity.KindIssue {
			replyDesc = parent.Title
		}
		rep["reply_to_desc"] = replyDesc
		rep["text"] = e.Text
		rep["kind"] = e.EventKind
		rep["label"] = nil
		if e.Label != "" {
			if label, ok := ix.get(e.Label); ok {
				rep["label"] = ix.nestedRep(label)
			}
		}
		if e.Assignee != "" {
			if assignee, ok := ix.get(e.Assignee); ok {
				rep["assignee"] = ix.nestedRep(assignee)
			} else {
				rep["assignee"] = nil
			}
		}

	case entity.KindUser:
		rep["email"] = e.Email
		rep["name"] = e.Name

	case entity.KindLabel:
		rep["name"] = e.Name
		rep["fg_color"] = e.FgColor
		rep["bg_color"] = e.BgColor
		rep["deadline"] = e.Deadline

	case entity.KindAsset:
		rep["mime_type"] = e.MimeType
		rep["ext"] = e.Ext
	}

	return rep
}

// nestedRep is the shallow form used for referenced entities: shared
// keys plus the kind's scalar fields, with the author left as a bare
// id so nesting stops at one level.
func (ix *Index) nestedRep(e *entity.Entity) Rep {
	rep := ix.baseRep(e)
	rep["author"] = e.Author

	switch e.Kind {
	case entity.KindUser:
		rep["email"] = e.Email
		rep["name"] = e.Name
	case entity.KindLabel:
		rep["name"] = e.Name
		rep["fg_color"] = e.FgColor
		rep["bg_color"] = e.BgColor
		rep["deadline"] = e.Deadline
	case entity.KindIssue:
		rep["title"] = e.Title
	case entity.KindAsset:
		rep["mime_type"] = e.MimeType
		rep["ext"] = e.Ext
	}
	return rep
}

func (ix *Index) baseRep(e *entity.Entity) Rep {
	shortID := ix.ShortID(e)
	return Rep{
		"id":         e.ID,
		"kind":       string(e.Kind),
		"short_id":   shortID,
		"slug":       entity.Slugify(shortID + " " + e.SlugSeed(ix.get)),
		"dirty":      ix.IsDirty(e),
		"new":        e.Path == "",
		"created_at": e.CreatedAt.Format(entity.TimestampLayout),
		"updated_at": e.UpdatedAt.Format(entity.TimestampLayout),
	}
}
