package cli

import (
	"fmt"
	"io"
)

// IO routes command output. Warnings collect separately from normal
// output and are flushed to stderr both before the first output line
// and at the end, so they survive piping through head or tail.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []string
	started  bool
}

func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records a non-fatal problem. Any warning turns the final exit
// code into 1 without suppressing normal output.
func (o *IO) Warn(format string, a ...any) {
	o.warnings = append(o.warnings, fmt.Sprintf(format, a...))
}

func (o *IO) Println(a ...any) {
	o.flushWarnings()
	_, _ = fmt.Fprintln(o.out, a...)
}

func (o *IO) Printf(format string, a ...any) {
	o.flushWarnings()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish flushes warnings one last time and returns the exit code.
func (o *IO) Finish() int {
	o.flushWarnings()
	for _, warning := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", warning)
	}
	if len(o.warnings) > 0 {
		return 1
	}
	return 0
}

func (o *IO) flushWarnings() {
	if o.started || len(o.warnings) == 0 {
		o.started = true
		return
	}
	for _, warning := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", warning)
	}
	o.started = true
}
