package cli

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"dit/internal/config"
)

var errNoEditor = errors.New("no editor found (set $EDITOR or \"editor\" in config)")

// resolveEditor picks the editor used to compose text.
// Priority: config editor, $EDITOR, vi, nano.
func resolveEditor(cfg config.Config, env map[string]string) (string, error) {
	if cfg.Editor != "" {
		if _, err := exec.LookPath(cfg.Editor); err == nil {
			return cfg.Editor, nil
		}
	}
	if editor := env["EDITOR"]; editor != "" {
		if _, err := exec.LookPath(editor); err == nil {
			return editor, nil
		}
	}
	for _, fallback := range []string{"vi", "nano"} {
		if _, err := exec.LookPath(fallback); err == nil {
			return fallback, nil
		}
	}
	return "", errNoEditor
}

// composeText opens the editor on a temp file seeded with initial and
// returns the trimmed result. Lines starting with '#' are stripped so
// the seed can carry instructions.
func composeText(cfg config.Config, env map[string]string, initial string) (string, error) {
	editor, err := resolveEditor(cfg, env)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "dit-*.md")
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := tmp.WriteString(initial); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	command := exec.Command(editor, path)
	command.Stdin = os.Stdin
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	if err := command.Run(); err != nil {
		return "", err
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var kept []string
	for _, line := range strings.Split(string(edited), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), nil
}
