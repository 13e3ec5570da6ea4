package nav

import (
	"sort"
)

// Tabs holds several controllers over one shared cache. Exactly one tab is
// active; inactive tabs keep their columns pinned so switching back is
// instant.
type Tabs struct {
	cache  Cache
	opts   Options
	tabs   []*Controller
	active int
}

// NewTabs creates a tab set with a single, unfocused tab.
func NewTabs(c Cache, opts Options) *Tabs {
	return &Tabs{
		cache: c,
		opts:  opts,
		tabs:  []*Controller{NewController(c, opts)},
	}
}

// Active returns the controller of the active tab.
func (t *Tabs) Active() *Controller {
	return t.tabs[t.active]
}

// Len returns the number of open tabs.
func (t *Tabs) Len() int {
	return len(t.tabs)
}

// Index returns the position of the active tab.
func (t *Tabs) Index() int {
	return t.active
}

// Snapshot returns the active tab's state stamped with its tab position.
func (t *Tabs) Snapshot() State {
	st := t.Active().Snapshot()
	st.Tab = t.active
	st.TabCount = len(t.tabs)
	return st
}

// Paths returns every directory shown by any tab, sorted and without
// duplicates.
func (t *Tabs) Paths() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tab := range t.tabs {
		for _, p := range tab.state.Paths() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Open adds a tab after the active one, showing the same directory with the
// same view settings and filter, and makes it active.
func (t *Tabs) Open() error {
	cur := t.Active()
	opts := t.opts
	opts.ShowHidden = cur.showHidden

	tab := NewController(t.cache, opts)
	tab.reversed = cur.reversed
	tab.pageSize = cur.pageSize
	if cur.focused != "" {
		if err := tab.Focus(cur.focused); err != nil {
			tab.Release()
			return err
		}
		tab.SetFilter(cur.Filter())
	}

	at := t.active + 1
	t.tabs = append(t.tabs, nil)
	copy(t.tabs[at+1:], t.tabs[at:])
	t.tabs[at] = tab
	t.active = at
	return nil
}

// Close removes the active tab. The last tab cannot be closed.
func (t *Tabs) Close() bool {
	if len(t.tabs) == 1 {
		return false
	}
	closing := t.tabs[t.active]
	t.tabs = append(t.tabs[:t.active], t.tabs[t.active+1:]...)
	if t.active >= len(t.tabs) {
		t.active = len(t.tabs) - 1
	}
	closing.Release()
	t.Active().Refresh()
	return true
}

// Switch activates the tab at index, wrapping around at both ends.
func (t *Tabs) Switch(index int) {
	n := len(t.tabs)
	index = ((index % n) + n) % n
	if index == t.active {
		return
	}
	t.active = index
	t.Active().Refresh()
}

// Refresh re-derives the active tab. Inactive tabs catch up when they are
// switched to.
func (t *Tabs) Refresh() {
	t.Active().Refresh()
}

// Apply handles tab actions and resizes, and forwards everything else to the
// active tab.
func (t *Tabs) Apply(action Action) (bool, error) {
	switch a := action.(type) {
	case NewTabAction:
		return true, t.Open()
	case CloseTabAction:
		if !t.Close() {
			t.Active().SetMessage("cannot close the last tab")
		}
		return true, nil
	case NextTabAction:
		t.Switch(t.active + 1)
		return true, nil
	case PrevTabAction:
		t.Switch(t.active - 1)
		return true, nil
	case ResizeAction:
		for _, tab := range t.tabs {
			_, _ = tab.Apply(a)
		}
		return true, nil
	}
	return t.Active().Apply(action)
}
