//go:build windows

package app

// Windows consoles have no job control to return to.
func (app *Application) suspendToShell() {
	app.ctrl().SetMessage("suspend is not supported on Windows")
}

func (app *Application) resumeAfterStop() bool {
	return true
}
