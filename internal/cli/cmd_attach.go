package cli

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
)

func cmdAttach(ctx context.Context, o *IO, st *state, args []string) int {
	flagSet := flag.NewFlagSet("attach", flag.ContinueOnError)
	flagSet.SetOutput(o.errOut)

	message := flagSet.StringP("message", "m", "", "Comment text for the attachment")

	if hasHelpFlag(args) {
		o.Println("Usage: dit attach [options] <ref> <file>")
		o.Println()
		o.Println("Store a file as a content-addressed asset and comment on the")
		o.Println("issue with a reference to it.")
		return 0
	}
	if err := flagSet.Parse(args); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	if flagSet.NArg() < 2 {
		o.ErrPrintln("error: usage: dit attach <ref> <file>")
		return 1
	}

	issue, ok := resolveIssue(o, st, flagSet.Arg(0))
	if !ok {
		return 1
	}

	filePath := flagSet.Arg(1)
	data, err := os.ReadFile(filePath)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	mimeType := mime.TypeByExtension(filepath.Ext(filePath))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	asset, err := st.ix.SaveAsset(ctx, data, mimeType)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	text := *message
	if text == "" {
		text = "attached " + filepath.Base(filePath)
	}
	text += "\n\n[" + filepath.Base(filePath) + "](" + st.ix.AssetBlobPath(asset) + ")"

	if _, err := st.ix.SaveComment(ctx, map[string]string{
		"reply_to": issue.ID,
		"text":     text,
	}); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	o.Println(st.ix.ShortID(asset))
	return 0
}
