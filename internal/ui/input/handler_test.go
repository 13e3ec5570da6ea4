package input

import (
	"fmt"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/millr/internal/nav"
)

func runeEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func keyEvent(key tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(key, 0, tcell.ModNone)
}

func TestKeyBindings(t *testing.T) {
	tests := []struct {
		name        string
		event       tcell.Event
		want        nav.Action
		keepRunning bool
	}{
		{name: "j", event: runeEvent('j'), want: nav.MoveAction{Delta: 1}, keepRunning: true},
		{name: "k", event: runeEvent('k'), want: nav.MoveAction{Delta: -1}, keepRunning: true},
		{name: "down", event: keyEvent(tcell.KeyDown), want: nav.MoveAction{Delta: 1}, keepRunning: true},
		{name: "up", event: keyEvent(tcell.KeyUp), want: nav.MoveAction{Delta: -1}, keepRunning: true},
		{name: "h", event: runeEvent('h'), want: nav.UpAction{}, keepRunning: true},
		{name: "left", event: keyEvent(tcell.KeyLeft), want: nav.UpAction{}, keepRunning: true},
		{name: "l", event: runeEvent('l'), want: nav.EnterAction{}, keepRunning: true},
		{name: "right", event: keyEvent(tcell.KeyRight), want: nav.EnterAction{}, keepRunning: true},
		{name: "enter", event: keyEvent(tcell.KeyEnter), want: nav.EnterAction{}, keepRunning: true},
		{name: "g", event: runeEvent('g'), want: nav.TopAction{}, keepRunning: true},
		{name: "G", event: runeEvent('G'), want: nav.BottomAction{}, keepRunning: true},
		{name: "page up", event: keyEvent(tcell.KeyPgUp), want: nav.PageUpAction{}, keepRunning: true},
		{name: "page down", event: keyEvent(tcell.KeyPgDn), want: nav.PageDownAction{}, keepRunning: true},
		{name: "dot", event: runeEvent('.'), want: nav.ToggleHiddenAction{}, keepRunning: true},
		{name: "a", event: runeEvent('a'), want: nav.ToggleHiddenAction{}, keepRunning: true},
		{name: "s", event: runeEvent('s'), want: nav.ToggleReverseAction{}, keepRunning: true},
		{name: "r", event: runeEvent('r'), want: nav.RefreshAction{}, keepRunning: true},
		{name: "ctrl-r", event: keyEvent(tcell.KeyCtrlR), want: nav.RefreshAction{}, keepRunning: true},
		{name: "tilde", event: runeEvent('~'), want: nav.GoHomeAction{}, keepRunning: true},
		{name: "ctrl-z", event: keyEvent(tcell.KeyCtrlZ), want: nav.SuspendAction{}, keepRunning: true},
		{name: "ctrl-t", event: keyEvent(tcell.KeyCtrlT), want: nav.NewTabAction{}, keepRunning: true},
		{name: "ctrl-w", event: keyEvent(tcell.KeyCtrlW), want: nav.CloseTabAction{}, keepRunning: true},
		{name: "tab", event: keyEvent(tcell.KeyTab), want: nav.NextTabAction{}, keepRunning: true},
		{name: "backtab", event: keyEvent(tcell.KeyBacktab), want: nav.PrevTabAction{}, keepRunning: true},
		{name: "t", event: runeEvent('t'), want: nav.TagToggleAction{}, keepRunning: true},
		{name: "q", event: runeEvent('q'), want: nav.QuitAction{}, keepRunning: false},
		{name: "ctrl-c", event: keyEvent(tcell.KeyCtrlC), want: nav.QuitAction{}, keepRunning: false},
		{name: "resize", event: tcell.NewEventResize(80, 24), want: nav.ResizeAction{Width: 80, Height: 24}, keepRunning: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actionChan := make(chan nav.Action, 1)
			handler := NewInputHandler(actionChan)

			if got := handler.ProcessEvent(tt.event); got != tt.keepRunning {
				t.Fatalf("ProcessEvent returned %v, want %v", got, tt.keepRunning)
			}
			select {
			case action := <-actionChan:
				if action != tt.want {
					t.Fatalf("expected %#v, got %#v", tt.want, action)
				}
			default:
				t.Fatalf("expected %T to be emitted", tt.want)
			}
		})
	}
}

func TestUnboundKeyEmitsNothing(t *testing.T) {
	actionChan := make(chan nav.Action, 1)
	handler := NewInputHandler(actionChan)

	for _, ev := range []tcell.Event{runeEvent('x'), keyEvent(tcell.KeyF5), keyEvent(tcell.KeyEscape)} {
		if !handler.ProcessEvent(ev) {
			t.Fatalf("unbound key should not quit")
		}
	}
	if len(actionChan) != 0 {
		t.Fatalf("expected no actions, got %d", len(actionChan))
	}
}

func TestBookmarkPrefixes(t *testing.T) {
	tests := []struct {
		prefix rune
		key    rune
		want   nav.Action
	}{
		{prefix: 'm', key: 'a', want: nav.BookmarkSetAction{Key: 'a'}},
		{prefix: 'm', key: 'q', want: nav.BookmarkSetAction{Key: 'q'}},
		{prefix: '\'', key: 'a', want: nav.BookmarkJumpAction{Key: 'a'}},
		{prefix: '\'', key: '1', want: nav.BookmarkJumpAction{Key: '1'}},
		{prefix: 'M', key: 'a', want: nav.BookmarkDeleteAction{Key: 'a'}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%c%c", tt.prefix, tt.key), func(t *testing.T) {
			actionChan := make(chan nav.Action, 1)
			handler := NewInputHandler(actionChan)

			handler.ProcessEvent(runeEvent(tt.prefix))
			if len(actionChan) != 0 || handler.Pending() != tt.prefix {
				t.Fatalf("prefix should wait for a key")
			}
			if !handler.ProcessEvent(runeEvent(tt.key)) {
				t.Fatalf("bookmark key should not quit")
			}
			if action := <-actionChan; action != tt.want {
				t.Fatalf("expected %#v, got %#v", tt.want, action)
			}
			if handler.Pending() != 0 {
				t.Fatalf("prefix should be consumed")
			}
		})
	}
}

func TestBookmarkPrefixCancelled(t *testing.T) {
	actionChan := make(chan nav.Action, 1)
	handler := NewInputHandler(actionChan)

	handler.ProcessEvent(runeEvent('m'))
	handler.ProcessEvent(keyEvent(tcell.KeyEscape))
	if len(actionChan) != 0 || handler.Pending() != 0 {
		t.Fatalf("escape should abandon the prefix silently")
	}

	handler.ProcessEvent(runeEvent('j'))
	if action := <-actionChan; action != (nav.MoveAction{Delta: 1}) {
		t.Fatalf("expected normal handling after cancel, got %#v", action)
	}

	handler.ProcessEvent(runeEvent('\''))
	if handler.ProcessEvent(keyEvent(tcell.KeyCtrlC)) {
		t.Fatalf("ctrl-c should still quit while a prefix is pending")
	}
	if _, ok := (<-actionChan).(nav.QuitAction); !ok {
		t.Fatalf("expected QuitAction")
	}
}

func TestFilterPrompt(t *testing.T) {
	actionChan := make(chan nav.Action, 8)
	handler := NewInputHandler(actionChan)

	handler.ProcessEvent(runeEvent('/'))
	if !handler.Prompting() || len(actionChan) != 0 {
		t.Fatalf("slash should open the prompt without emitting")
	}

	steps := []struct {
		event tcell.Event
		want  nav.Action
	}{
		{event: runeEvent('g'), want: nav.FilterAction{Query: "g"}},
		{event: runeEvent('q'), want: nav.FilterAction{Query: "gq"}},
		{event: keyEvent(tcell.KeyBackspace2), want: nav.FilterAction{Query: "g"}},
		{event: runeEvent('o'), want: nav.FilterAction{Query: "go"}},
		{event: keyEvent(tcell.KeyDown), want: nav.MoveAction{Delta: 1}},
	}
	for _, step := range steps {
		handler.ProcessEvent(step.event)
		if action := <-actionChan; action != step.want {
			t.Fatalf("expected %#v, got %#v", step.want, action)
		}
	}
	if handler.Query() != "go" {
		t.Fatalf("expected query go, got %q", handler.Query())
	}

	// Letters that are bindings outside the prompt are query text inside it.
	handler.ProcessEvent(runeEvent('q'))
	if action := <-actionChan; action != (nav.FilterAction{Query: "goq"}) {
		t.Fatalf("q should extend the query, got %#v", action)
	}
	handler.ProcessEvent(keyEvent(tcell.KeyBackspace2))
	<-actionChan

	handler.ProcessEvent(keyEvent(tcell.KeyEnter))
	if handler.Prompting() || len(actionChan) != 0 {
		t.Fatalf("enter should close the prompt and keep the filter")
	}

	handler.ProcessEvent(runeEvent('j'))
	if action := <-actionChan; action != (nav.MoveAction{Delta: 1}) {
		t.Fatalf("expected normal keys after enter, got %#v", action)
	}

	handler.ProcessEvent(keyEvent(tcell.KeyEscape))
	if action := <-actionChan; action != (nav.FilterAction{}) {
		t.Fatalf("escape should clear the kept filter, got %#v", action)
	}
	if handler.Query() != "" {
		t.Fatalf("query should be cleared")
	}
}

func TestFilterPromptEscapeDropsQuery(t *testing.T) {
	actionChan := make(chan nav.Action, 4)
	handler := NewInputHandler(actionChan)

	handler.ProcessEvent(runeEvent('/'))
	handler.ProcessEvent(runeEvent('x'))
	<-actionChan
	handler.ProcessEvent(keyEvent(tcell.KeyEscape))

	if handler.Prompting() {
		t.Fatalf("escape should close the prompt")
	}
	if action := <-actionChan; action != (nav.FilterAction{}) {
		t.Fatalf("expected empty FilterAction, got %#v", action)
	}

	handler.ProcessEvent(runeEvent('/'))
	if handler.ProcessEvent(keyEvent(tcell.KeyCtrlC)) {
		t.Fatalf("ctrl-c should quit from the prompt")
	}
	if _, ok := (<-actionChan).(nav.QuitAction); !ok {
		t.Fatalf("expected QuitAction")
	}
}
