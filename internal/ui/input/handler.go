package input

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/millr/internal/nav"
)

// InputHandler converts tcell events to Actions
type InputHandler struct {
	actionChan chan nav.Action
	// pending is the bookmark prefix ('m', 'M' or '\'') waiting for its key.
	pending rune

	// prompting is set while the filter query is being typed.
	prompting bool
	query     []rune
}

// NewInputHandler creates a new input handler
func NewInputHandler(actionChan chan nav.Action) *InputHandler {
	return &InputHandler{
		actionChan: actionChan,
	}
}

// Pending reports the bookmark prefix waiting for a key, or 0.
func (ih *InputHandler) Pending() rune {
	return ih.pending
}

// Prompting reports whether the filter prompt is open.
func (ih *InputHandler) Prompting() bool {
	return ih.prompting
}

// Query returns the filter query as typed so far.
func (ih *InputHandler) Query() string {
	return string(ih.query)
}

// ProcessEvent converts a tcell event into an Action. It returns false once
// the user asked to quit.
func (ih *InputHandler) ProcessEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ih.processKeyEvent(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		ih.actionChan <- nav.ResizeAction{Width: w, Height: h}
		return true
	default:
		return true
	}
}

// processKeyEvent handles keyboard input
func (ih *InputHandler) processKeyEvent(ev *tcell.EventKey) bool {
	if ih.pending != 0 {
		return ih.completeBookmark(ev)
	}
	if ih.prompting {
		return ih.processPromptKey(ev)
	}

	// Handle special keys first
	switch ev.Key() {
	case tcell.KeyCtrlC:
		ih.actionChan <- nav.QuitAction{}
		return false
	case tcell.KeyEscape:
		if len(ih.query) > 0 {
			ih.query = nil
			ih.actionChan <- nav.FilterAction{}
		}
		return true
	case tcell.KeyCtrlT:
		ih.actionChan <- nav.NewTabAction{}
		return true
	case tcell.KeyCtrlW:
		ih.actionChan <- nav.CloseTabAction{}
		return true
	case tcell.KeyTab:
		ih.actionChan <- nav.NextTabAction{}
		return true
	case tcell.KeyBacktab:
		ih.actionChan <- nav.PrevTabAction{}
		return true
	case tcell.KeyCtrlZ:
		ih.actionChan <- nav.SuspendAction{}
		return true
	case tcell.KeyCtrlR:
		ih.actionChan <- nav.RefreshAction{}
		return true
	case tcell.KeyUp:
		ih.actionChan <- nav.MoveAction{Delta: -1}
		return true
	case tcell.KeyDown:
		ih.actionChan <- nav.MoveAction{Delta: 1}
		return true
	case tcell.KeyLeft, tcell.KeyBackspace, tcell.KeyBackspace2:
		ih.actionChan <- nav.UpAction{}
		return true
	case tcell.KeyRight, tcell.KeyEnter:
		ih.actionChan <- nav.EnterAction{}
		return true
	case tcell.KeyHome:
		ih.actionChan <- nav.TopAction{}
		return true
	case tcell.KeyEnd:
		ih.actionChan <- nav.BottomAction{}
		return true
	case tcell.KeyPgUp:
		ih.actionChan <- nav.PageUpAction{}
		return true
	case tcell.KeyPgDn:
		ih.actionChan <- nav.PageDownAction{}
		return true
	case tcell.KeyRune:
		return ih.processRune(ev.Rune())
	}
	return true
}

func (ih *InputHandler) processRune(r rune) bool {
	switch r {
	case 'q', 'Q':
		ih.actionChan <- nav.QuitAction{}
		return false
	case 'j':
		ih.actionChan <- nav.MoveAction{Delta: 1}
	case 'k':
		ih.actionChan <- nav.MoveAction{Delta: -1}
	case 'h':
		ih.actionChan <- nav.UpAction{}
	case 'l':
		ih.actionChan <- nav.EnterAction{}
	case 'g':
		ih.actionChan <- nav.TopAction{}
	case 'G':
		ih.actionChan <- nav.BottomAction{}
	case '.', 'a':
		ih.actionChan <- nav.ToggleHiddenAction{}
	case 's':
		ih.actionChan <- nav.ToggleReverseAction{}
	case 'r':
		ih.actionChan <- nav.RefreshAction{}
	case '~':
		ih.actionChan <- nav.GoHomeAction{}
	case 't':
		ih.actionChan <- nav.TagToggleAction{}
	case '/':
		ih.prompting = true
		ih.query = nil
	case 'm', 'M', '\'':
		ih.pending = r
	}
	return true
}

// processPromptKey edits the filter query. Every edit is applied at once;
// Enter keeps the filter and Escape drops it.
func (ih *InputHandler) processPromptKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		ih.prompting = false
		ih.actionChan <- nav.QuitAction{}
		return false
	case tcell.KeyEscape:
		ih.prompting = false
		ih.query = nil
		ih.actionChan <- nav.FilterAction{}
	case tcell.KeyEnter:
		ih.prompting = false
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(ih.query) > 0 {
			ih.query = ih.query[:len(ih.query)-1]
			ih.actionChan <- nav.FilterAction{Query: string(ih.query)}
		}
	case tcell.KeyUp:
		ih.actionChan <- nav.MoveAction{Delta: -1}
	case tcell.KeyDown:
		ih.actionChan <- nav.MoveAction{Delta: 1}
	case tcell.KeyRune:
		if r := ev.Rune(); unicode.IsPrint(r) {
			ih.query = append(ih.query, r)
			ih.actionChan <- nav.FilterAction{Query: string(ih.query)}
		}
	}
	return true
}

// completeBookmark consumes the key following a bookmark prefix. Escape or a
// non-printable key abandons the prefix.
func (ih *InputHandler) completeBookmark(ev *tcell.EventKey) bool {
	prefix := ih.pending
	ih.pending = 0

	if ev.Key() == tcell.KeyCtrlC {
		ih.actionChan <- nav.QuitAction{}
		return false
	}
	if ev.Key() != tcell.KeyRune {
		return true
	}
	key := ev.Rune()
	if !unicode.IsPrint(key) || unicode.IsSpace(key) {
		return true
	}

	switch prefix {
	case 'm':
		ih.actionChan <- nav.BookmarkSetAction{Key: key}
	case 'M':
		ih.actionChan <- nav.BookmarkDeleteAction{Key: key}
	default:
		ih.actionChan <- nav.BookmarkJumpAction{Key: key}
	}
	return true
}
