package app

import (
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/millr/internal/cache"
	"github.com/kk-code-lab/millr/internal/config"
	"github.com/kk-code-lab/millr/internal/logging"
	"github.com/kk-code-lab/millr/internal/nav"
	inputui "github.com/kk-code-lab/millr/internal/ui/input"
	renderui "github.com/kk-code-lab/millr/internal/ui/render"
	"github.com/kk-code-lab/millr/internal/watch"
)

// Application represents the running app.
type Application struct {
	screen     tcell.Screen
	cfg        config.Config
	cache      *cache.Cache
	tabs       *nav.Tabs
	watcher    *watch.Watcher // nil when change notification is unavailable
	marks      *markBook
	renderer   *renderui.Renderer
	input      *inputui.InputHandler
	actionCh   chan nav.Action
	shouldQuit bool
	editorCmd  []string
}

// Close stops background work and restores the terminal.
func (app *Application) Close() error {
	if app.watcher != nil {
		if err := app.watcher.Close(); err != nil {
			logging.Warn("close watcher", logging.Err(err))
		}
	}
	if err := app.marks.close(); err != nil {
		logging.Warn("close bookmarks", logging.Err(err))
	}
	st := app.cache.Stats()
	logging.Debug("cache at exit",
		logging.Int("listings", st.Listings),
		logging.Int("pinned", st.Pinned),
		logging.Int("workers", st.Workers),
		logging.Int("pending", st.Pending),
	)
	err := app.cache.Close()
	app.screen.Fini()
	return err
}

// ctrl returns the controller of the active tab.
func (app *Application) ctrl() *nav.Controller {
	return app.tabs.Active()
}

// FocusedPath returns the directory that was current when the loop ended.
func (app *Application) FocusedPath() string {
	return app.ctrl().Focused()
}
