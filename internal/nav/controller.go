// Package nav drives the miller-columns view: which directories are shown,
// where the cursor is, and which loads are still wanted.
package nav

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/kk-code-lab/millr/internal/cache"
	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/logging"
	"github.com/kk-code-lab/millr/internal/search"
)

// DefaultPageSize is used for page moves until the first resize.
const DefaultPageSize = 10

// Cache is the subset of the directory cache the controller uses.
type Cache interface {
	GetOrLoad(path string) *cache.Listing
	Invalidate(path string) bool
	SetSelected(path string, index int) (*cache.Listing, bool)
	SelectName(path, name string) (*cache.Listing, bool)
	Pin(owner string, paths []string)
	Unpin(owner string)
	Abandon(path string)
	EvictIfNeeded() int
}

// Opener handles Enter on entries that are not directories.
type Opener interface {
	Open(entry fs.Entry) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(entry fs.Entry) error

func (f OpenerFunc) Open(entry fs.Entry) error {
	return f(entry)
}

// Options configures a Controller.
type Options struct {
	ShowHidden bool
	// DepthLimit bounds how many ancestor columns are shown; 0 shows every
	// ancestor up to the root.
	DepthLimit int
	Opener     Opener
	HomeDir    func() (string, error)
}

var controllerSeq atomic.Uint64

// Controller owns the column stack. It must only be used from the UI loop.
type Controller struct {
	cache Cache
	opts  Options
	owner string // pin-set name in the shared cache

	focused    string
	showHidden bool
	reversed   bool
	filter     search.Query
	message    string
	pageSize   int

	// fallback is where to return if the focused directory turns out to be
	// unreadable once its first load finishes.
	fallback string
	// pending holds a name to select in a directory once its entries arrive.
	pending map[string]string

	state State
}

// NewController creates a controller with nothing focused yet.
func NewController(c Cache, opts Options) *Controller {
	if opts.HomeDir == nil {
		opts.HomeDir = os.UserHomeDir
	}
	if opts.DepthLimit < 0 {
		opts.DepthLimit = 0
	}
	return &Controller{
		cache:      c,
		opts:       opts,
		owner:      fmt.Sprintf("view-%d", controllerSeq.Add(1)),
		showHidden: opts.ShowHidden,
		pageSize:   DefaultPageSize,
		pending:    make(map[string]string),
	}
}

// Snapshot returns the latest NavigationState. The returned value is shared
// and must be treated as read-only.
func (c *Controller) Snapshot() State {
	return c.state
}

// Focused returns the current directory.
func (c *Controller) Focused() string {
	return c.focused
}

// SelectedEntry returns the entry under the cursor in the current column.
func (c *Controller) SelectedEntry() (fs.Entry, bool) {
	return c.state.Current().SelectedEntry()
}

// SetMessage replaces the status-line message.
func (c *Controller) SetMessage(msg string) {
	c.message = msg
	c.state.Message = msg
}

// SetPageSize sets how many rows a page move covers.
func (c *Controller) SetPageSize(rows int) {
	if rows < 1 {
		rows = 1
	}
	c.pageSize = rows
}

// Focus makes path the current directory. Focusing a directory whose
// listing already failed is refused: the view is left as it was and the
// load error is returned.
func (c *Controller) Focus(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	abs = filepath.Clean(abs)

	c.protect(abs)
	listing := c.cache.GetOrLoad(abs)
	if listing.Status == cache.StatusFailed {
		c.refuse(listing)
		return listing.Err
	}

	if c.focused != "" && c.focused != abs {
		c.fallback = c.focused
		c.filter = search.Query{}
	}
	c.focused = abs
	c.message = ""
	c.rebuild()
	return nil
}

// Reveal focuses the directory containing path and selects path in it.
func (c *Controller) Reveal(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir, name := filepath.Split(filepath.Clean(abs))
	dir = filepath.Clean(dir)
	if name == "" {
		return c.Focus(dir)
	}
	c.pending[dir] = name
	return c.Focus(dir)
}

// MoveSelection moves the cursor of the current column by delta visible
// rows, clamped to its bounds.
func (c *Controller) MoveSelection(delta int) {
	col := c.state.Current()
	if col == nil || len(col.Entries) == 0 {
		return
	}
	row := col.Selected
	if row < 0 {
		row = 0
	}
	c.selectRow(row + delta)
}

// Top moves the cursor to the first visible entry.
func (c *Controller) Top() {
	c.selectRow(0)
}

// Bottom moves the cursor to the last visible entry.
func (c *Controller) Bottom() {
	if col := c.state.Current(); col != nil {
		c.selectRow(len(col.Entries) - 1)
	}
}

func (c *Controller) selectRow(row int) {
	col := c.state.Current()
	if col == nil || len(col.Entries) == 0 {
		return
	}
	if row < 0 {
		row = 0
	}
	if row >= len(col.Entries) {
		row = len(col.Entries) - 1
	}
	if row == col.Selected {
		return
	}
	c.cache.SetSelected(c.focused, col.Indices[row])
	delete(c.pending, c.focused)
	c.rebuild()
}

// Enter descends into the selected directory, or hands a file to the opener.
func (c *Controller) Enter() error {
	entry, ok := c.SelectedEntry()
	if !ok {
		return nil
	}
	if entry.IsDir() {
		return c.Focus(entry.FullPath)
	}
	if c.opts.Opener == nil {
		return nil
	}
	if err := c.opts.Opener.Open(entry); err != nil {
		c.SetMessage(err.Error())
		return err
	}
	c.cache.Invalidate(c.focused)
	return nil
}

// Up focuses the parent directory with the cursor on the directory we left.
func (c *Controller) Up() error {
	parent := filepath.Dir(c.focused)
	if c.focused == "" || parent == c.focused {
		return nil
	}
	c.pending[parent] = filepath.Base(c.focused)
	if err := c.Focus(parent); err != nil {
		delete(c.pending, parent)
		return err
	}
	return nil
}

// GoHome focuses the user's home directory.
func (c *Controller) GoHome() error {
	home, err := c.opts.HomeDir()
	if err != nil {
		c.SetMessage("home directory unavailable")
		return fmt.Errorf("home directory: %w", err)
	}
	return c.Focus(home)
}

// SetShowHidden changes the hidden-file predicate. Listings are not reloaded.
func (c *Controller) SetShowHidden(show bool) {
	if c.showHidden == show {
		return
	}
	c.showHidden = show
	c.rebuild()
}

// SetSortReversed flips name order within each kind group. Listings are not
// reloaded.
func (c *Controller) SetSortReversed(reversed bool) {
	if c.reversed == reversed {
		return
	}
	c.reversed = reversed
	c.rebuild()
}

// SetFilter narrows the current column to entries matching query. An empty
// query clears the filter. Listings are not reloaded.
func (c *Controller) SetFilter(query string) {
	if query == c.filter.String() {
		return
	}
	c.filter = search.ParseQuery(query)
	c.rebuild()
}

// Filter returns the active filter query.
func (c *Controller) Filter() string {
	return c.filter.String()
}

// Release drops this controller's claims on the cache: its pins go away and
// first loads only it was waiting for are abandoned.
func (c *Controller) Release() {
	c.cache.Unpin(c.owner)
	for _, p := range c.state.Paths() {
		c.cache.Abandon(p)
	}
}

// Reload invalidates the current directory.
func (c *Controller) Reload() {
	if c.focused == "" {
		return
	}
	c.cache.Invalidate(c.focused)
	c.rebuild()
}

// Refresh re-derives the snapshot from the cache. The UI loop calls it when
// the cache signals that a listing changed.
func (c *Controller) Refresh() {
	if c.focused == "" {
		return
	}
	c.rebuild()
}

// Apply dispatches a navigation action. Actions the controller does not own
// are ignored and reported as unhandled.
func (c *Controller) Apply(action Action) (bool, error) {
	switch a := action.(type) {
	case MoveAction:
		c.MoveSelection(a.Delta)
	case TopAction:
		c.Top()
	case BottomAction:
		c.Bottom()
	case PageUpAction:
		c.MoveSelection(-c.pageSize)
	case PageDownAction:
		c.MoveSelection(c.pageSize)
	case EnterAction:
		return true, c.Enter()
	case UpAction:
		return true, c.Up()
	case GoHomeAction:
		return true, c.GoHome()
	case ToggleHiddenAction:
		c.SetShowHidden(!c.showHidden)
	case ToggleReverseAction:
		c.SetSortReversed(!c.reversed)
	case FilterAction:
		c.SetFilter(a.Query)
	case RefreshAction:
		c.Reload()
	case ResizeAction:
		// header and status line take two rows
		c.SetPageSize(a.Height - 2)
	default:
		return false, nil
	}
	return true, nil
}

func (c *Controller) refuse(listing *cache.Listing) {
	c.message = fmt.Sprintf("%s: %s", listing.Path, StatusText(listing))
	c.state.Message = c.message
	logging.Debug("focus refused", logging.String("path", listing.Path), logging.Err(listing.Err))
}

// rebuild derives a fresh State from the cache. Every displayed path is
// requested through GetOrLoad so missing or stale listings get loaded.
func (c *Controller) rebuild() {
	c.protect(c.focused)
	current := c.cache.GetOrLoad(c.focused)
	if current.Status == cache.StatusFailed && c.fallback != "" && c.fallback != c.focused {
		// The directory could not be read after all; go back to where we
		// were and report why.
		c.refuse(current)
		msg := c.message
		c.focused, c.fallback = c.fallback, ""
		c.rebuild()
		c.message = msg
		c.state.Message = msg
		return
	}
	if current.Status != cache.StatusLoading {
		c.fallback = ""
	}

	ancestors := ancestorPaths(c.focused, c.opts.DepthLimit)
	columns := make([]Column, 0, len(ancestors)+2)

	for i, path := range ancestors {
		child := c.focused
		if i+1 < len(ancestors) {
			child = ancestors[i+1]
		}
		name := filepath.Base(child)

		listing := c.cache.GetOrLoad(path)
		if listing.HasEntries() {
			if entry, ok := listing.SelectedEntry(); !ok || entry.Name != name {
				if updated, found := c.cache.SelectName(path, name); found {
					listing = updated
				}
			}
		}
		columns = append(columns, c.column(path, RoleAncestor, len(ancestors)-i, listing, name, search.Query{}))
	}

	if name, ok := c.pending[c.focused]; ok && current.HasEntries() {
		if updated, found := c.cache.SelectName(c.focused, name); found {
			current = updated
		}
		delete(c.pending, c.focused)
	}
	currentCol := c.column(c.focused, RoleCurrent, 0, current, "", c.filter)
	if currentCol.Selected >= 0 && currentCol.Indices[currentCol.Selected] != current.Selected {
		if updated, ok := c.cache.SetSelected(c.focused, currentCol.Indices[currentCol.Selected]); ok {
			currentCol.Listing = updated
		}
	}
	columns = append(columns, currentCol)

	if entry, ok := currentCol.SelectedEntry(); ok && entry.IsDir() {
		preview := c.cache.GetOrLoad(entry.FullPath)
		columns = append(columns, c.column(entry.FullPath, RolePreview, 0, preview, "", search.Query{}))
	}

	next := State{
		Columns:      columns,
		Focused:      c.focused,
		ShowHidden:   c.showHidden,
		SortReversed: c.reversed,
		Filter:       c.filter.String(),
		Message:      c.message,
	}

	c.retire(c.state.Paths(), next.Paths())
	c.state = next
}

func (c *Controller) column(path string, role Role, depth int, listing *cache.Listing, keep string, filter search.Query) Column {
	col := Column{
		Path:     path,
		Role:     role,
		Depth:    depth,
		Listing:  listing,
		Selected: -1,
		Status:   StatusText(listing),
	}
	if !listing.HasEntries() {
		return col
	}
	col.Entries, col.Indices = buildView(listing.Entries, viewOptions{
		showHidden: c.showHidden,
		reversed:   c.reversed,
		keep:       keep,
		filter:     filter,
	})
	col.Selected = rowFor(col.Indices, listing.Selected)
	return col
}

// protect pins the chain about to be shown for focus along with what is on
// screen now, so loads inserted while rebuilding cannot evict either.
func (c *Controller) protect(focus string) {
	chain := ancestorPaths(focus, c.opts.DepthLimit)
	paths := append(c.state.Paths(), chain...)
	paths = append(paths, focus)
	c.cache.Pin(c.owner, paths)
}

// retire pins the displayed paths, lets the cache evict, and abandons first
// loads of directories that dropped out of view.
func (c *Controller) retire(before, after []string) {
	c.cache.Pin(c.owner, after)
	c.cache.EvictIfNeeded()

	shown := make(map[string]struct{}, len(after))
	for _, p := range after {
		shown[p] = struct{}{}
	}
	for _, p := range before {
		if _, ok := shown[p]; !ok {
			c.cache.Abandon(p)
		}
	}
}

// ancestorPaths lists the parents of path, outermost first, limited to the
// nearest limit entries when limit > 0.
func ancestorPaths(path string, limit int) []string {
	var chain []string
	for p := path; ; {
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		chain = append(chain, parent)
		if limit > 0 && len(chain) == limit {
			break
		}
		p = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
