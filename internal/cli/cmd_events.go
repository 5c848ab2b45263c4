package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"dit/internal/entity"
)

var errIssueRequired = errors.New("argument must reference an issue")

// resolveIssue looks up a reference and insists on an issue.
func resolveIssue(o *IO, st *state, ref string) (*entity.Entity, bool) {
	found, ok := st.ix.Lookup(ref)
	if !ok {
		o.ErrPrintln("error: no entity matches", ref)
		return nil, false
	}
	if found.Kind != entity.KindIssue {
		o.ErrPrintln("error:", errIssueRequired)
		return nil, false
	}
	return found, true
}

// fileEvent saves an event comment on the issue and prints its ref.
func fileEvent(ctx context.Context, o *IO, st *state, issue *entity.Entity, attrs map[string]string) int {
	attrs["reply_to"] = issue.ID
	rep, err := st.ix.SaveComment(ctx, attrs)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	o.Println(refOf(rep))
	return 0
}

func cmdLabel(ctx context.Context, o *IO, st *state, args []string) int {
	flagSet := flag.NewFlagSet("label", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)

	remove := flagSet.Bool("remove", false, "Remove the label instead of adding it")

	if hasHelpFlag(args) {
		o.Println("Usage: dit label [--remove] <ref> <name>")
		o.Println()
		o.Println("Vote a label onto an issue. Unknown label names are created")
		o.Println("on the fly when adding.")
		return 0
	}
	if err := flagSet.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	if flagSet.NArg() < 2 {
		o.ErrPrintln("error: usage: dit label [--remove] <ref> <name>")
		return 1
	}

	issue, ok := resolveIssue(o, st, flagSet.Arg(0))
	if !ok {
		return 1
	}

	name := flagSet.Arg(1)
	label := findLabelByName(st, name)
	if label == nil {
		if fallback, ok := st.ix.Lookup(name); ok && fallback.Kind == entity.KindLabel {
			label = fallback
		}
	}
	if label == nil {
		if *remove {
			o.ErrPrintln("error: no label named", name)
			return 1
		}
		label = st.ix.NewLabel()
		label.Name = name
		if err := st.ix.Save(ctx, label); err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
	}

	kind := entity.EventAddedLabel
	if *remove {
		kind = entity.EventRemovedLabel
	}
	return fileEvent(ctx, o, st, issue, map[string]string{"kind": kind, "label": label.ID})
}

func findLabelByName(st *state, name string) *entity.Entity {
	for _, label := range st.ix.Labels() {
		if label.Name == name {
			return label
		}
	}
	return nil
}

func cmdAssign(ctx context.Context, o *IO, st *state, args []string, remove bool) int {
	verb := "assign"
	if remove {
		verb = "unassign"
	}
	if hasHelpFlag(args) {
		o.Printf("Usage: dit %s <ref> [<user>]\n", verb)
		o.Println()
		o.Println("Without a user argument the local account is used.")
		return 0
	}
	if len(args) == 0 {
		o.ErrPrintln("error:", errRefRequired)
		return 1
	}

	issue, ok := resolveIssue(o, st, args[0])
	if !ok {
		return 1
	}

	assignee := st.ix.Account()
	if len(args) > 1 {
		found, ok := st.ix.Lookup(args[1])
		if !ok || found.Kind != entity.KindUser {
			if found = findUserByName(st, args[1]); found == nil {
				o.ErrPrintln("error: no user matches", args[1])
				return 1
			}
		}
		assignee = found
	}

	kind := entity.EventAssigned
	if remove {
		kind = entity.EventUnassigned
	}
	return fileEvent(ctx, o, st, issue, map[string]string{"kind": kind, "assignee": assignee.ID})
}

// findUserByName matches a user by exact name or email so "dit assign
// <ref> bob@example.com" works without knowing ids.
func findUserByName(st *state, key string) *entity.Entity {
	for _, user := range st.ix.Users() {
		if user.Name == key || user.Email == key {
			return user
		}
	}
	return nil
}

func cmdResolve(ctx context.Context, o *IO, st *state, args []string, reopen bool) int {
	verb := "resolve"
	kind := entity.EventResolved
	if reopen {
		verb = "reopen"
		kind = entity.EventReopened
	}
	if hasHelpFlag(args) {
		o.Printf("Usage: dit %s <ref>\n", verb)
		return 0
	}
	if len(args) == 0 {
		o.ErrPrintln("error:", errRefRequired)
		return 1
	}

	issue, ok := resolveIssue(o, st, args[0])
	if !ok {
		return 1
	}
	return fileEvent(ctx, o, st, issue, map[string]string{"kind": kind})
}
