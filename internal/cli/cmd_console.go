package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/peterh/liner"

	"dit/internal/search"
)

// consoleCommands are the commands offered by tab completion. console
// itself is left out: nesting consoles helps nobody.
var consoleCommands = []string{
	"create", "comment", "show", "ls", "users", "labels", "label",
	"assign", "unassign", "resolve", "reopen", "search", "status",
	"commit", "revert", "attach", "help", "exit",
}

func cmdConsole(ctx context.Context, o *IO, st *state, args []string) int {
	if hasHelpFlag(args) {
		o.Println("Usage: dit console")
		o.Println()
		o.Println("Interactive console. Lines are dit commands without the")
		o.Println("leading \"dit\"; tab completes command names and short ids.")
		return 0
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		return completeConsole(st, input)
	})

	for {
		input, err := line.Prompt("dit> ")
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				o.Println()
				return 0
			}
			o.ErrPrintln("error:", err)
			return 1
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if consoleEval(ctx, o, st, input) {
			return 0
		}
	}
}

// consoleEval runs one console line and reports whether the session
// should end. An unparsable line (a lone quote splits to nothing) is
// reported, not dispatched.
func consoleEval(ctx context.Context, o *IO, st *state, input string) bool {
	fields := search.SplitQuery(input)
	if len(fields) == 0 {
		o.ErrPrintln("error: cannot parse input")
		return false
	}

	command := fields[0]
	switch command {
	case "exit", "quit":
		return true
	case "help":
		printUsage(o.out)
		return false
	case "console":
		o.ErrPrintln("error: already in a console")
		return false
	}

	// Exit codes are per-line in the console; a failed command leaves
	// the session running.
	dispatch(ctx, o, st, command, fields[1:])
	return false
}

// completeConsole completes the command word at the start of the line
// and short ids everywhere else.
func completeConsole(st *state, input string) []string {
	lastSpace := strings.LastIndex(input, " ")
	if lastSpace < 0 {
		var matches []string
		for _, command := range consoleCommands {
			if strings.HasPrefix(command, input) {
				matches = append(matches, command)
			}
		}
		return matches
	}

	head, partial := input[:lastSpace+1], input[lastSpace+1:]
	if partial == "" {
		return nil
	}
	var matches []string
	for _, id := range st.ix.IDsWithPrefix(partial) {
		matches = append(matches, head+id)
	}
	return matches
}
