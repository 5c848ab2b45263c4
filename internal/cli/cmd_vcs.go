package cli

import (
	"context"
)

func cmdStatus(ctx context.Context, o *IO, st *state, args []string) int {
	_ = ctx
	if hasHelpFlag(args) {
		o.Println("Usage: dit status")
		return 0
	}
	_ = args

	dirty, pending := st.ix.Status()
	if len(pending) == 0 {
		o.Println("nothing to commit")
		return 0
	}
	dirtySet := make(map[string]struct{}, len(dirty))
	for _, path := range dirty {
		dirtySet[path] = struct{}{}
	}
	for _, path := range pending {
		if _, ok := dirtySet[path]; !ok {
			o.Println("added:   ", path)
		}
	}
	for _, path := range dirty {
		o.Println("modified:", path)
	}
	return 0
}

func cmdCommit(ctx context.Context, o *IO, st *state, args []string) int {
	if hasHelpFlag(args) {
		o.Println("Usage: dit commit [<ref>]")
		o.Println()
		o.Println("Commit one entity's file, or every pending tracker change")
		o.Println("when no reference is given.")
		return 0
	}

	if len(args) == 0 {
		if err := st.ix.CommitAll(ctx); err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
		o.Println("committed all pending changes")
		return 0
	}

	if err := st.ix.Commit(ctx, args[0]); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	o.Println("committed", args[0])
	return 0
}

func cmdRevert(ctx context.Context, o *IO, st *state, args []string) int {
	if hasHelpFlag(args) {
		o.Println("Usage: dit revert [<ref>]")
		o.Println()
		o.Println("Discard uncommitted changes to one entity, or to the whole")
		o.Println("tracker when no reference is given. Never-committed entities")
		o.Println("are deleted.")
		return 0
	}

	if len(args) == 0 {
		if err := st.ix.RevertAll(ctx); err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
		o.Println("reverted all pending changes")
		return 0
	}

	if err := st.ix.Revert(ctx, args[0]); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	o.Println("reverted", args[0])
	return 0
}
