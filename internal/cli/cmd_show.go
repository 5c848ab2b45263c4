package cli

import (
	"context"
	"fmt"
	"strings"

	"dit/internal/entity"
)

func cmdShow(ctx context.Context, o *IO, st *state, args []string) int {
	_ = ctx
	if hasHelpFlag(args) {
		o.Println("Usage: dit show <ref>")
		o.Println()
		o.Println("Show an entity. Issues and comments include their")
		o.Println("discussion tree.")
		return 0
	}
	if len(args) == 0 {
		o.ErrPrintln("error:", errRefRequired)
		return 1
	}

	found, ok := st.ix.Lookup(args[0])
	if !ok {
		o.ErrPrintln("error: no entity matches", args[0])
		return 1
	}

	switch found.Kind {
	case entity.KindIssue:
		showIssue(o, st, found)
	case entity.KindComment:
		showCommentTree(o, st, found, 0)
	case entity.KindUser:
		o.Printf("user %s\n", st.ix.ShortID(found))
		o.Printf("  name:  %s\n", found.Name)
		o.Printf("  email: %s\n", found.Email)
		if found.AKA != "" {
			o.Printf("  aka:   %s\n", displayName(st, found.AKA))
		}
	case entity.KindLabel:
		o.Printf("label %s\n", st.ix.ShortID(found))
		o.Printf("  name:   %s\n", found.Name)
		o.Printf("  colors: %s on %s\n", found.FgColor, found.BgColor)
		if found.Deadline != "" {
			o.Printf("  deadline: %s\n", found.Deadline)
		}
	case entity.KindAsset:
		o.Printf("asset %s\n", st.ix.ShortID(found))
		o.Printf("  mime: %s\n", found.MimeType)
		o.Printf("  path: %s\n", found.Path)
	}
	return 0
}

func showIssue(o *IO, st *state, issue *entity.Entity) {
	rep := st.ix.Representation(issue)

	o.Printf("issue %s: %s\n", rep["short_id"], issue.Title)
	o.Printf("  author:   %s\n", displayName(st, issue.Author))
	o.Printf("  created:  %s\n", rep["created_at"])

	if labels := st.ix.ActiveLabels(issue); len(labels) > 0 {
		names := make([]string, len(labels))
		for i, label := range labels {
			names[i] = label.Name
		}
		o.Printf("  labels:   %s\n", strings.Join(names, ", "))
	}
	if owners := st.ix.Owners(issue); len(owners) > 0 {
		names := make([]string, len(owners))
		for i, owner := range owners {
			names[i] = owner.Name
		}
		o.Printf("  owners:   %s\n", strings.Join(names, ", "))
	}
	_, fraction := st.ix.Resolution(issue)
	o.Printf("  resolved: %s\n", formatFraction(fraction))
	if rep["dirty"] == true {
		o.Println("  (uncommitted changes)")
	}

	comments := st.ix.Comments(issue.ID)
	if len(comments) > 0 {
		o.Println()
	}
	for _, comment := range comments {
		showCommentTree(o, st, comment, 1)
	}
}

func showCommentTree(o *IO, st *state, comment *entity.Entity, depth int) {
	indent := strings.Repeat("  ", depth)

	switch {
	case comment.EventKind != "":
		o.Printf("%s* %s\n", indent, describeEvent(st, comment))
	default:
		o.Printf("%s[%s] %s (%s):\n", indent,
			st.ix.ShortID(comment), displayName(st, comment.Author),
			comment.CreatedAt.Format(entity.TimestampLayout))
		for _, line := range strings.Split(comment.Text, "\n") {
			o.Printf("%s  %s\n", indent, line)
		}
	}

	for _, child := range st.ix.Comments(comment.ID) {
		showCommentTree(o, st, child, depth+1)
	}
}

// describeEvent renders an event comment as a single activity line.
func describeEvent(st *state, comment *entity.Entity) string {
	author := displayName(st, comment.Author)
	switch comment.EventKind {
	case entity.EventResolved:
		return fmt.Sprintf("%s resolved this", author)
	case entity.EventReopened:
		return fmt.Sprintf("%s reopened this", author)
	case entity.EventAssigned:
		return fmt.Sprintf("%s assigned %s", author, displayName(st, comment.Assignee))
	case entity.EventUnassigned:
		return fmt.Sprintf("%s unassigned %s", author, displayName(st, comment.Assignee))
	case entity.EventAddedLabel:
		return fmt.Sprintf("%s added label %s", author, displayName(st, comment.Label))
	case entity.EventRemovedLabel:
		return fmt.Sprintf("%s removed label %s", author, displayName(st, comment.Label))
	}
	return fmt.Sprintf("%s: %s", author, comment.EventKind)
}

// displayName resolves an id to something readable: the user or label
// name when known, the short id otherwise.
func displayName(st *state, id string) string {
	if id == "" {
		return "(nobody)"
	}
	found, ok := st.ix.Lookup(id)
	if !ok {
		return id
	}
	if found.Name != "" {
		return found.Name
	}
	return st.ix.ShortID(found)
}

func formatFraction(fraction float64) string {
	switch fraction {
	case 0:
		return "no"
	case 1:
		return "yes"
	}
	return fmt.Sprintf("%.0f%%", fraction*100)
}
