package cli

import (
	"context"
	"errors"
	"strings"

	flag "github.com/spf13/pflag"
)

var errTextRequired = errors.New("comment text is required")

func cmdComment(ctx context.Context, o *IO, st *state, args []string) int {
	flagSet := flag.NewFlagSet("comment", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)
	flagSet.Usage = func() {
		o.ErrPrintln("Usage: dit comment [options] <ref>")
		o.ErrPrintln()
		o.ErrPrintln("Comment on an issue or reply to a comment. Without -m the")
		o.ErrPrintln("editor opens.")
	}

	message := flagSet.StringP("message", "m", "", "Comment text")

	if hasHelpFlag(args) {
		flagSet.Usage()
		return 0
	}
	if err := flagSet.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	if flagSet.NArg() == 0 {
		o.ErrPrintln("error:", errRefRequired)
		return 1
	}
	ref := flagSet.Arg(0)

	parent, ok := st.ix.Lookup(ref)
	if !ok {
		o.ErrPrintln("error: no entity matches", ref)
		return 1
	}

	text := *message
	if text == "" {
		composed, err := composeText(st.cfg, st.env, "\n# Comment text.\n")
		if err != nil {
			o.ErrPrintln("error:", err)
			return 1
		}
		text = strings.TrimSpace(composed)
	}
	if text == "" {
		o.ErrPrintln("error:", errTextRequired)
		return 1
	}

	rep, err := st.ix.SaveComment(ctx, map[string]string{
		"reply_to": parent.ID,
		"text":     text,
	})
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	o.Println(refOf(rep))
	return 0
}
