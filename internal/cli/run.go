// Package cli implements the dit command line interface. Every command
// operates on a fully loaded index; the heavy lifting lives in
// internal/index and commands only parse arguments and format output.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"dit/internal/config"
	"dit/internal/index"
)

var (
	errRefRequired  = errors.New("entity reference required")
	errUnknownFlag  = errors.New("unknown flag")
	errFlagNeedsArg = errors.New("flag requires an argument")
)

// state carries everything a command needs beyond its own arguments.
type state struct {
	ix  *index.Index
	cfg config.Config
	env map[string]string
	in  io.Reader
}

// Run is the main entry point. Returns the process exit code. The
// context cancels in-flight git operations on interrupt.
func Run(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	if len(args) < 2 {
		printUsage(out)
		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	if len(flags.remaining) == 0 || flags.remaining[0] == "-h" || flags.remaining[0] == "--help" {
		printUsage(out)
		return 0
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			fprintln(errOut, "error: cannot get working directory:", err)
			return 1
		}
	}

	logLevel := slog.LevelWarn
	if flags.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: logLevel}))

	repoRoot, err := index.FindRepoRoot(workDir)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	cfg, err := config.Load(repoRoot, flags.configPath, env)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	o := NewIO(out, errOut)
	command, commandArgs := flags.remaining[0], flags.remaining[1:]

	// print-config only needs the resolved configuration, not a
	// loaded index.
	if command == "print-config" {
		if code := cmdPrintConfig(o, cfg); code != 0 {
			return code
		}
		return o.Finish()
	}

	ix, err := index.Open(ctx, workDir, cfg, logger)
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	st := &state{ix: ix, cfg: cfg, env: env, in: in}
	if code := dispatch(ctx, o, st, command, commandArgs); code != 0 {
		return code
	}
	return o.Finish()
}

func dispatch(ctx context.Context, o *IO, st *state, command string, args []string) int {
	switch command {
	case "create":
		return cmdCreate(ctx, o, st, args)
	case "comment":
		return cmdComment(ctx, o, st, args)
	case "show":
		return cmdShow(ctx, o, st, args)
	case "ls":
		return cmdLs(ctx, o, st, args)
	case "users":
		return cmdUsers(ctx, o, st, args)
	case "labels":
		return cmdLabels(ctx, o, st, args)
	case "label":
		return cmdLabel(ctx, o, st, args)
	case "assign":
		return cmdAssign(ctx, o, st, args, false)
	case "unassign":
		return cmdAssign(ctx, o, st, args, true)
	case "resolve":
		return cmdResolve(ctx, o, st, args, false)
	case "reopen":
		return cmdResolve(ctx, o, st, args, true)
	case "search":
		return cmdSearch(ctx, o, st, args)
	case "status":
		return cmdStatus(ctx, o, st, args)
	case "commit":
		return cmdCommit(ctx, o, st, args)
	case "revert":
		return cmdRevert(ctx, o, st, args)
	case "attach":
		return cmdAttach(ctx, o, st, args)
	case "console":
		return cmdConsole(ctx, o, st, args)
	default:
		o.ErrPrintln("error: unknown command:", command)
		printUsage(o.errOut)
		return 1
	}
}

type globalFlags struct {
	workDir    string
	configPath string
	verbose    bool
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		arg := args[idx]
		switch {
		case arg == "-C" || arg == "--cwd":
			if idx+1 >= len(args) {
				return globalFlags{}, fmt.Errorf("%w: %s", errFlagNeedsArg, arg)
			}
			flags.workDir = args[idx+1]
			idx += 2
		case strings.HasPrefix(arg, "--cwd="):
			flags.workDir = strings.TrimPrefix(arg, "--cwd=")
			idx++
		case arg == "-c" || arg == "--config":
			if idx+1 >= len(args) {
				return globalFlags{}, fmt.Errorf("%w: %s", errFlagNeedsArg, arg)
			}
			flags.configPath = args[idx+1]
			idx += 2
		case strings.HasPrefix(arg, "--config="):
			flags.configPath = strings.TrimPrefix(arg, "--config=")
			idx++
		case arg == "-v" || arg == "--verbose":
			flags.verbose = true
			idx++
		case arg == "-h" || arg == "--help":
			flags.remaining = []string{"--help"}
			return flags, nil
		case strings.HasPrefix(arg, "-") && arg != "-":
			return globalFlags{}, fmt.Errorf("%w: %s", errUnknownFlag, arg)
		default:
			flags.remaining = args[idx:]
			return flags, nil
		}
	}
	return flags, nil
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
	}
	return false
}

func printUsage(w io.Writer) {
	fprintln(w, `dit - distributed issue tracker

Usage: dit [options] <command> [args]

Options:
  -C, --cwd <dir>        Run as if started in <dir>
  -c, --config <file>    Use specified config file
  -v, --verbose          Debug logging to stderr

Commands:
  create [<title>]       Create an issue (opens editor without -t)
  comment <ref>          Comment on an issue or comment
  show <ref>             Show an entity and its discussion
  ls                     List issues
  users                  List known users
  labels                 List labels
  label <ref> <name>     Add a label to an issue (--remove to take off)
  assign <ref> <user>    Assign an issue
  unassign <ref> <user>  Remove an assignment
  resolve <ref>          Mark an issue resolved
  reopen <ref>           Reopen a resolved issue
  search <terms>         Search issues, comments, users and labels
  status                 Show uncommitted tracker changes
  commit [<ref>]         Commit one entity, or everything pending
  revert [<ref>]         Discard uncommitted changes
  attach <ref> <file>    Attach a file to an issue
  console                Interactive console
  print-config           Show resolved configuration`)
}

func cmdPrintConfig(o *IO, cfg config.Config) int {
	formatted, err := config.Format(cfg)
	if err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}
	o.Println(formatted)
	return 0
}
