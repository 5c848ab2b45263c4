package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"dit/internal/entity"
)

func cmdLs(ctx context.Context, o *IO, st *state, args []string) int {
	_ = ctx
	flagSet := flag.NewFlagSet("ls", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)

	resolved := flagSet.Bool("resolved", false, "Only resolved issues")
	open := flagSet.Bool("open", false, "Only unresolved issues")
	labelName := flagSet.StringP("label", "l", "", "Only issues carrying this label")

	if hasHelpFlag(args) {
		o.Println("Usage: dit ls [--open|--resolved] [-l <label>]")
		return 0
	}
	if err := flagSet.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	for _, issue := range st.ix.Issues() {
		_, fraction := st.ix.Resolution(issue)
		if *resolved && fraction < 1 {
			continue
		}
		if *open && fraction >= 1 {
			continue
		}
		labels := st.ix.ActiveLabels(issue)
		if *labelName != "" && !hasLabel(labels, *labelName) {
			continue
		}

		marker := " "
		if fraction >= 1 {
			marker = "x"
		}
		line := strings.Builder{}
		line.WriteString("[" + marker + "] ")
		line.WriteString(st.ix.ShortID(issue))
		line.WriteString("  ")
		line.WriteString(issue.Title)
		if len(labels) > 0 {
			names := make([]string, len(labels))
			for i, label := range labels {
				names[i] = label.Name
			}
			line.WriteString("  (" + strings.Join(names, ", ") + ")")
		}
		if count := st.ix.CommentCount(issue); count > 0 {
			line.WriteString(plural(count))
		}
		if st.ix.IsDirty(issue) {
			line.WriteString("  *")
		}
		o.Println(line.String())
	}
	return 0
}

func hasLabel(labels []*entity.Entity, name string) bool {
	for _, label := range labels {
		if label.Name == name {
			return true
		}
	}
	return false
}

func plural(count int) string {
	if count == 1 {
		return "  [1 comment]"
	}
	return fmt.Sprintf("  [%d comments]", count)
}

func cmdUsers(ctx context.Context, o *IO, st *state, args []string) int {
	_ = ctx
	if hasHelpFlag(args) {
		o.Println("Usage: dit users")
		return 0
	}
	_ = args
	for _, user := range st.ix.Users() {
		suffix := ""
		if user.AKA != "" {
			suffix = "  -> " + displayName(st, user.AKA)
		}
		if st.ix.Account() != nil && st.ix.Account().ID == user.ID {
			suffix += "  (you)"
		}
		o.Printf("%s  %s <%s>%s\n", st.ix.ShortID(user), user.Name, user.Email, suffix)
	}
	return 0
}

func cmdLabels(ctx context.Context, o *IO, st *state, args []string) int {
	_ = ctx
	if hasHelpFlag(args) {
		o.Println("Usage: dit labels")
		return 0
	}
	_ = args
	for _, label := range st.ix.Labels() {
		deadline := ""
		if label.Deadline != "" {
			deadline = "  deadline " + label.Deadline
		}
		o.Printf("%s  %s%s\n", st.ix.ShortID(label), label.Name, deadline)
	}
	return 0
}
