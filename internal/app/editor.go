package app

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/logging"
)

var errNoEditor = errors.New("no editor configured; set $VISUAL or $EDITOR")

var commandBuilder = exec.Command

// openEntry hands a file to the user's editor with the terminal released.
func (app *Application) openEntry(entry fs.Entry) error {
	if len(app.editorCmd) == 0 {
		return errNoEditor
	}
	logging.Debug("open in editor", logging.String("path", entry.FullPath))
	if err := app.openFileInEditor(entry.FullPath); err != nil {
		return fmt.Errorf("open %s: %w", entry.Name, err)
	}
	return nil
}

func (app *Application) openFileInEditor(filePath string) error {
	editorArgs := app.editorArgsWithFile(filePath)
	useTTY := runtime.GOOS != "windows"
	var tty *os.File
	var err error

	if useTTY {
		tty, err = os.OpenFile("/dev/tty", os.O_RDWR, 0)
		if err != nil {
			return app.openFileInEditorFallback(editorArgs)
		}
		defer func() {
			_ = tty.Close()
		}()
	}

	if err := app.screen.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend screen: %w", err)
	}

	cmd := commandBuilder(editorArgs[0], editorArgs[1:]...)
	if useTTY {
		cmd.Stdin = tty
		cmd.Stdout = tty
		cmd.Stderr = tty
	} else {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	runErr := cmd.Run()
	if err := flushConsoleInput(); err != nil {
		logging.Debug("flush console input", logging.Err(err))
	}

	if err := app.screen.Resume(); err != nil {
		return fmt.Errorf("failed to resume screen: %w", err)
	}
	app.screen.Sync()
	return runErr
}

func (app *Application) openFileInEditorFallback(args []string) error {
	if err := app.screen.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend screen: %w", err)
	}
	defer func() {
		_ = app.screen.Resume()
		app.screen.Sync()
	}()

	cmd := commandBuilder(args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

func (app *Application) editorArgsWithFile(filePath string) []string {
	args := make([]string, len(app.editorCmd)+1)
	copy(args, app.editorCmd)
	args[len(app.editorCmd)] = filePath
	return args
}
