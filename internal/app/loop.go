package app

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/millr/internal/cache"
	"github.com/kk-code-lab/millr/internal/config"
	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/logging"
	"github.com/kk-code-lab/millr/internal/nav"
	inputui "github.com/kk-code-lab/millr/internal/ui/input"
	renderui "github.com/kk-code-lab/millr/internal/ui/render"
	"github.com/kk-code-lab/millr/internal/watch"
)

const actionQueueDepth = 16

// NewApplication takes over the terminal and focuses cfg.StartPath.
func NewApplication(cfg config.Config) (*Application, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	app, err := newApplication(screen, cfg)
	if err != nil {
		screen.Fini()
		return nil, err
	}
	return app, nil
}

func newApplication(screen tcell.Screen, cfg config.Config) (*Application, error) {
	start, err := filepath.Abs(cfg.StartPath)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.StartPath, err)
	}
	info, err := os.Stat(start)
	if err != nil {
		return nil, err
	}

	editorCmd, _ := detectEditorCommand()
	actionCh := make(chan nav.Action, actionQueueDepth)
	app := &Application{
		screen:    screen,
		cfg:       cfg,
		renderer:  renderui.NewRenderer(screen),
		input:     inputui.NewInputHandler(actionCh),
		actionCh:  actionCh,
		editorCmd: editorCmd,
	}

	app.cache = cache.New(cache.Options{
		Capacity: cfg.CacheCapacity,
		Workers:  cfg.WorkerCount,
		Load:     fs.ReadDirectory,
	})
	app.tabs = nav.NewTabs(app.cache, nav.Options{
		ShowHidden: cfg.ShowHidden,
		DepthLimit: cfg.AncestorDepthLimit,
		Opener:     nav.OpenerFunc(app.openEntry),
	})

	if watcher, err := watch.New(app.cache, watch.DefaultDebounce); err != nil {
		logging.Warn("change notification unavailable", logging.Err(err))
	} else {
		app.watcher = watcher
	}
	app.marks = openMarks(cfg.BookmarksPath)
	app.renderer.SetTagged(app.marks.tagged)

	if w, h := screen.Size(); h > 0 {
		_, _ = app.tabs.Apply(nav.ResizeAction{Width: w, Height: h})
	}
	// A file start path opens its directory with the file selected.
	focus := app.ctrl().Focus
	if !info.IsDir() {
		focus = app.ctrl().Reveal
	}
	if err := focus(start); err != nil {
		_ = app.Close()
		return nil, err
	}

	logging.Info("started",
		logging.String("path", start),
		logging.Int("workers", cfg.WorkerCount),
		logging.Int("cache", cfg.CacheCapacity),
		logging.Bool("watching", app.watcher != nil),
	)
	return app, nil
}

// Run processes terminal events, actions and cache notifications until the
// user quits. Every listing change arrives through the cache's notify
// channel, so all controller and render work stays on this goroutine.
func (app *Application) Run() {
	eventChan := make(chan tcell.Event)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			ev := app.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-stop:
				return
			}
		}
	}()

	var sigContCh chan os.Signal
	if sigs := contSignals(); len(sigs) > 0 {
		sigContCh = make(chan os.Signal, 1)
		signal.Notify(sigContCh, sigs...)
		defer signal.Stop(sigContCh)
	}

	app.render()
	for !app.shouldQuit {
		renderPending := false

		select {
		case ev := <-eventChan:
			renderPending = app.handleEvent(ev)
		case action := <-app.actionCh:
			renderPending = app.handleAction(action)
		case <-app.cache.Notify():
			app.tabs.Refresh()
			renderPending = true
		case err := <-app.marks.errors():
			app.ctrl().SetMessage(fmt.Sprintf("bookmark not saved: %v", err))
			renderPending = true
		case <-sigContCh:
			renderPending = app.resumeAfterStop()
		}

		if app.processActions() {
			renderPending = true
		}
		if renderPending && !app.shouldQuit {
			app.render()
		}
	}
}

func (app *Application) render() {
	state := app.tabs.Snapshot()
	if app.watcher != nil {
		app.watcher.Sync(app.tabs.Paths())
	}
	app.renderer.Render(state)
}

func (app *Application) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey, *tcell.EventResize:
		prefix, prompting := app.input.Pending(), app.input.Prompting()
		if !app.input.ProcessEvent(ev) {
			app.shouldQuit = true
		}
		switch app.input.Pending() {
		case 'm':
			app.ctrl().SetMessage("mark: press a key")
		case 'M':
			app.ctrl().SetMessage("unmark: press a key")
		case '\'':
			app.ctrl().SetMessage("jump: press a key")
		case 0:
			if prefix != 0 {
				app.ctrl().SetMessage("")
			}
		}
		switch {
		case app.input.Prompting():
			app.ctrl().SetMessage("/" + app.input.Query())
		case prompting:
			app.ctrl().SetMessage("")
		}
		return true
	case *tcell.EventInterrupt:
		return true
	default:
		return false
	}
}

func (app *Application) processActions() bool {
	changed := false
	for {
		select {
		case action := <-app.actionCh:
			if app.handleAction(action) {
				changed = true
			}
		default:
			return changed
		}
	}
}

func (app *Application) handleAction(action nav.Action) bool {
	if action == nil {
		return false
	}

	switch a := action.(type) {
	case nav.QuitAction:
		app.shouldQuit = true
		return false
	case nav.SuspendAction:
		app.suspendToShell()
		return app.resumeAfterStop()
	case nav.BookmarkSetAction:
		app.setBookmark(a.Key)
		return true
	case nav.BookmarkJumpAction:
		app.jumpToBookmark(a.Key)
		return true
	case nav.BookmarkDeleteAction:
		app.deleteBookmark(a.Key)
		return true
	case nav.TagToggleAction:
		app.toggleTag()
		return true
	case nav.ResizeAction:
		app.screen.Sync()
	}

	handled, err := app.tabs.Apply(action)
	if err != nil {
		logging.Debug("action failed", logging.String("action", fmt.Sprintf("%T", action)), logging.Err(err))
	}
	switch action.(type) {
	case nav.NewTabAction, nav.CloseTabAction, nav.NextTabAction, nav.PrevTabAction:
		logging.Debug("tabs", logging.Int("active", app.tabs.Index()), logging.Int("open", app.tabs.Len()))
	}
	return handled
}

func (app *Application) setBookmark(key rune) {
	path := app.ctrl().Focused()
	app.marks.set(key, path)
	app.ctrl().SetMessage(fmt.Sprintf("mark %c → %s", key, path))
}

func (app *Application) deleteBookmark(key rune) {
	if app.marks.remove(key) {
		app.ctrl().SetMessage(fmt.Sprintf("mark %c removed", key))
	} else {
		app.ctrl().SetMessage(fmt.Sprintf("no bookmark %c", key))
	}
}

// toggleTag tags or untags the selected entry of the current column.
func (app *Application) toggleTag() {
	entry, ok := app.ctrl().SelectedEntry()
	if !ok {
		return
	}
	if app.marks.toggleTag(entry.FullPath) {
		app.ctrl().SetMessage("tagged " + entry.FullPath)
	} else {
		app.ctrl().SetMessage("untagged " + entry.FullPath)
	}
}

func (app *Application) jumpToBookmark(key rune) {
	path, ok := app.marks.get(key)
	if !ok {
		app.ctrl().SetMessage(fmt.Sprintf("no bookmark %c", key))
		return
	}
	if err := app.ctrl().Focus(path); err != nil {
		logging.Debug("bookmark jump refused", logging.String("path", path), logging.Err(err))
	}
}
