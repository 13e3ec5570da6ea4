package nav

import (
	"errors"

	"github.com/kk-code-lab/millr/internal/cache"
	"github.com/kk-code-lab/millr/internal/fs"
)

// Role tags what a column shows relative to the focused directory.
type Role int

const (
	RoleAncestor Role = iota
	RoleCurrent
	RolePreview
)

func (r Role) String() string {
	switch r {
	case RoleCurrent:
		return "current"
	case RolePreview:
		return "preview"
	default:
		return "ancestor"
	}
}

// Column is one pane. It references the cached Listing it renders and the
// filtered view derived from it; it never owns filesystem data.
type Column struct {
	Path    string
	Role    Role
	Depth   int // levels above the current directory; 0 for current and preview
	Listing *cache.Listing

	// Entries is the visible view of Listing.Entries after the hidden-file
	// predicate, the filter (current column only) and sort direction. Indices maps each row back to its
	// position in Listing.Entries.
	Entries  []fs.Entry
	Indices  []int
	Selected int // row in Entries, -1 when nothing is selected
	Status   string
}

// SelectedEntry returns the entry under the column's cursor.
func (c *Column) SelectedEntry() (fs.Entry, bool) {
	if c == nil || c.Selected < 0 || c.Selected >= len(c.Entries) {
		return fs.Entry{}, false
	}
	return c.Entries[c.Selected], true
}

// State is the render-ready snapshot handed to the renderer. It is rebuilt
// as a whole on every change and never mutated afterwards.
type State struct {
	Columns      []Column
	Focused      string
	ShowHidden   bool
	SortReversed bool
	Filter       string
	Message      string

	// Tab is the index of the tab this state belongs to, out of TabCount.
	Tab      int
	TabCount int
}

// Current returns the column with RoleCurrent. The column aliases the
// snapshot's Columns.
func (s State) Current() *Column {
	for i := range s.Columns {
		if s.Columns[i].Role == RoleCurrent {
			return &s.Columns[i]
		}
	}
	return nil
}

// Preview returns the preview column, if one is shown.
func (s State) Preview() *Column {
	for i := range s.Columns {
		if s.Columns[i].Role == RolePreview {
			return &s.Columns[i]
		}
	}
	return nil
}

// Paths lists every displayed directory, outermost first.
func (s State) Paths() []string {
	paths := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		paths = append(paths, col.Path)
	}
	return paths
}

// StatusText describes a listing's load state for the status line. Ready
// listings with entries report nothing.
func StatusText(l *cache.Listing) string {
	if l == nil {
		return "loading…"
	}
	switch l.Status {
	case cache.StatusLoading:
		return "loading…"
	case cache.StatusStale:
		return "refreshing…"
	case cache.StatusFailed:
		var loadErr *fs.LoadError
		if errors.As(l.Err, &loadErr) {
			return loadErr.Detail()
		}
		if l.Err != nil {
			return l.Err.Error()
		}
		return "failed"
	}
	if len(l.Entries) == 0 {
		return "empty"
	}
	return ""
}
