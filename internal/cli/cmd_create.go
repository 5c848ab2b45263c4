package cli

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"
)

var errTitleRequired = errors.New("title is required")

func cmdCreate(ctx context.Context, o *IO, st *state, args []string) int {
	flagSet := flag.NewFlagSet("create", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.ErrPrintln("Usage: dit create [options] [<title>]")
		o.ErrPrintln()
		o.ErrPrintln("Create a new issue. Without -t or a positional title the")
		o.ErrPrintln("editor opens: the first line becomes the title, the rest")
		o.ErrPrintln("the description.")
		o.ErrPrintln()
		o.ErrPrintln("Options:")
		var buf strings.Builder
		flagSet.SetOutput(&buf)
		flagSet.PrintDefaults()
		o.ErrPrintln(strings.TrimRight(buf.String(), "\n"))
	}

	title := flagSet.StringP("title", "t", "", "Issue title")
	description := flagSet.StringP("message", "m", "", "Description text")

	if hasHelpFlag(args) {
		flagSet.Usage()
		return 0
	}
	if err := flagSet.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	actualTitle := *title
	if actualTitle == "" && flagSet.NArg() > 0 {
		actualTitle = strings.Join(flagSet.Args(), " ")
	}
	actualDescription := *description

	if actualTitle == "" {
		composed, err := composeText(st.cfg, st.env,
			"\n# First line: title. Following lines: description.\n")
		if err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
		actualTitle, actualDescription, _ = strings.Cut(composed, "\n")
		actualTitle = strings.TrimSpace(actualTitle)
		actualDescription = strings.TrimSpace(actualDescription)
	}
	if actualTitle == "" {
		o.ErrPrintln("error:", errTitleRequired)
		return 1
	}

	rep, err := st.ix.SaveIssue(ctx, map[string]string{"title": actualTitle})
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	if actualDescription != "" {
		_, err = st.ix.SaveComment(ctx, map[string]string{
			"reply_to": rep["id"].(string),
			"text":     actualDescription,
		})
		if err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
	}

	o.Println(refOf(rep))
	return 0
}

// refOf renders the decorated reference users pass back to other
// commands. The slug already leads with the short id.
func refOf(rep map[string]any) string {
	if slug, ok := rep["slug"].(string); ok && slug != "" {
		return slug
	}
	short, _ := rep["short_id"].(string)
	return short
}
