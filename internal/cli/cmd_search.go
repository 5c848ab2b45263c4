package cli

import (
	"context"
	"strings"

	flag "github.com/spf13/pflag"

	"dit/internal/entity"
)

func cmdSearch(ctx context.Context, o *IO, st *state, args []string) int {
	_ = ctx
	flagSet := flag.NewFlagSet("search", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)

	kindFilter := flagSet.StringP("kind", "k", "", "Restrict to one kind (issue|comment|user|label|asset)")

	if hasHelpFlag(args) {
		o.Println(`Usage: dit search [options] <terms...>

Terms match entity text and id prefixes. Quote phrases to match
exact snippets; prefix a term with "label:" to restrict it to
labels and labelled comments.`)
		return 0
	}
	if err := flagSet.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	if flagSet.NArg() == 0 {
		o.ErrPrintln("error: search terms required")
		return 1
	}

	var kinds []entity.Kind
	if *kindFilter != "" {
		kind := entity.Kind(*kindFilter)
		if kind.DirName() == "" {
			o.ErrPrintln("error: unknown kind:", *kindFilter)
			return 1
		}
		kinds = append(kinds, kind)
	}

	query := strings.Join(flagSet.Args(), " ")
	for _, hit := range st.ix.Search(query, kinds...) {
		o.Printf("%-7s %s  %s\n", hit.Kind, st.ix.ShortID(hit), summarize(st, hit))
	}
	return 0
}

// summarize renders a one-line description of a search hit.
func summarize(st *state, e *entity.Entity) string {
	switch e.Kind {
	case entity.KindIssue:
		return e.Title
	case entity.KindComment:
		line := e.Text
		if e.EventKind != "" {
			line = describeEvent(st, e)
		}
		if cut, _, wrapped := strings.Cut(line, "\n"); wrapped {
			line = cut
		}
		return line
	case entity.KindUser:
		return e.Name + " <" + e.Email + ">"
	case entity.KindLabel:
		return e.Name
	case entity.KindAsset:
		return e.MimeType
	}
	return ""
}
