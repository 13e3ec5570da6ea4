//go:build !windows

package app

import (
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/millr/internal/nav"
)

func (app *Application) suspendToShell() {
	// Return terminal control to the shell before stopping the process.
	_ = app.screen.Suspend()
	// Stop only this process so the launching shell keeps job control.
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGTSTP)
}

func (app *Application) resumeAfterStop() bool {
	if err := app.screen.Resume(); err != nil {
		return false
	}
	app.screen.Sync()
	_ = app.screen.PostEvent(tcell.NewEventInterrupt("resume"))
	if w, h := app.screen.Size(); w > 0 && h > 0 {
		_, _ = app.tabs.Apply(nav.ResizeAction{Width: w, Height: h})
	}
	// Directories may have changed while we were stopped.
	for _, path := range app.tabs.Paths() {
		app.cache.Invalidate(path)
	}
	return true
}
