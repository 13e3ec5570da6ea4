package app

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

var (
	unixEditors    = [][]string{{"vim"}, {"nano"}, {"vi"}}
	windowsEditors = [][]string{{"code", "--wait"}, {"notepad++.exe"}, {"notepad.exe"}}
)

func detectEditorCommand() ([]string, bool) {
	return detectEditorCommandInternal(runtime.GOOS, os.Getenv, exec.LookPath)
}

// detectEditorCommandInternal prefers $VISUAL, then $EDITOR, then the first
// platform default found on PATH.
func detectEditorCommandInternal(goos string, getenv func(string) string, lookPath func(string) (string, error)) ([]string, bool) {
	for _, name := range []string{"VISUAL", "EDITOR"} {
		if args, ok := resolveEditor(parseEditorCommand(getenv(name)), lookPath); ok {
			return args, true
		}
	}

	defaults := unixEditors
	if strings.EqualFold(goos, "windows") {
		defaults = windowsEditors
	}
	for _, def := range defaults {
		if args, ok := resolveEditor(append([]string(nil), def...), lookPath); ok {
			return args, true
		}
	}
	return nil, false
}

func resolveEditor(args []string, lookPath func(string) (string, error)) ([]string, bool) {
	if len(args) == 0 || args[0] == "" {
		return nil, false
	}
	path, err := lookPath(expandUserPath(args[0]))
	if err != nil || path == "" {
		return nil, false
	}
	args[0] = path
	return args, true
}

// parseEditorCommand splits an $EDITOR value into arguments, honouring single
// and double quotes.
func parseEditorCommand(cmd string) []string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return nil
	}

	var (
		args    []string
		current strings.Builder
		quote   rune
		started bool
	)
	for _, r := range cmd {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote == 0 && (r == '\'' || r == '"'):
			quote = r
			started = true
		case quote == 0 && unicode.IsSpace(r):
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, current.String())
	}
	return args
}

func expandUserPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != '\\' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if len(path) == 1 {
		return home
	}
	return filepath.Join(home, path[2:])
}
