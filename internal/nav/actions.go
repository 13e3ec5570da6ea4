package nav

// Action is a command from the input layer.
type Action interface{}

// ===== NAVIGATION ACTIONS =====

type MoveAction struct {
	Delta int
}
type TopAction struct{}
type BottomAction struct{}
type PageUpAction struct{}
type PageDownAction struct{}
type EnterAction struct{}
type UpAction struct{}
type GoHomeAction struct{}

// ===== VIEW ACTIONS =====

type ToggleHiddenAction struct{}
type ToggleReverseAction struct{}
type RefreshAction struct{}

// FilterAction replaces the current column's filter; an empty query clears it.
type FilterAction struct {
	Query string
}

type ResizeAction struct {
	Width  int
	Height int
}

// ===== TAB ACTIONS =====
// Handled by Tabs.

type NewTabAction struct{}
type CloseTabAction struct{}
type NextTabAction struct{}
type PrevTabAction struct{}

// ===== APPLICATION ACTIONS =====
// Handled by the event loop rather than the controller.

type QuitAction struct{}
type SuspendAction struct{}

type BookmarkSetAction struct {
	Key rune
}
type BookmarkJumpAction struct {
	Key rune
}
type BookmarkDeleteAction struct {
	Key rune
}

// TagToggleAction tags or untags the entry under the cursor.
type TagToggleAction struct{}
