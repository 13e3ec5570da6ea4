package cache

import (
	"time"

	"github.com/kk-code-lab/millr/internal/fs"
)

// Status is the load state of a Listing.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusStale
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusStale:
		return "stale"
	case StatusFailed:
		return "failed"
	default:
		return "loading"
	}
}

// Listing is an immutable snapshot of one cached directory. The cache never
// modifies a Listing after handing it out; every change publishes a new value.
// Callers must treat Entries as read-only.
type Listing struct {
	Path       string
	Entries    []fs.Entry
	Generation uint64
	Status     Status
	Err        error // *fs.LoadError when Status is StatusFailed
	LoadedAt   time.Time
	Selected   int
}

// Len returns the number of entries.
func (l *Listing) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// SelectedEntry returns the entry under the cursor, if any.
func (l *Listing) SelectedEntry() (fs.Entry, bool) {
	if l == nil || l.Selected < 0 || l.Selected >= len(l.Entries) {
		return fs.Entry{}, false
	}
	return l.Entries[l.Selected], true
}

// IndexOf returns the position of the entry called name, or -1.
func (l *Listing) IndexOf(name string) int {
	if l == nil {
		return -1
	}
	for i := range l.Entries {
		if l.Entries[i].Name == name {
			return i
		}
	}
	return -1
}

// HasEntries reports whether the listing carries a last-known set of entries
// worth rendering (Ready, or Stale while it refreshes).
func (l *Listing) HasEntries() bool {
	return l != nil && (l.Status == StatusReady || l.Status == StatusStale)
}

func (l *Listing) clone() *Listing {
	cp := *l
	return &cp
}

// remapSelection finds where the previously selected entry ended up after a
// reload. Entries that vanished fall back to the old position, clamped to the
// new bounds.
func remapSelection(prev []fs.Entry, prevSelected int, next []fs.Entry) int {
	if len(next) == 0 {
		return 0
	}

	if prevSelected >= 0 && prevSelected < len(prev) {
		name := prev[prevSelected].Name
		for i := range next {
			if next[i].Name == name {
				return i
			}
		}
	}

	return clampIndex(prevSelected, len(next))
}

func clampIndex(idx, length int) int {
	if length == 0 || idx < 0 {
		return 0
	}
	if idx >= length {
		return length - 1
	}
	return idx
}
