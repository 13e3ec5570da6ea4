package fs

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// SortEntries orders entries in place: directories first, then by
// case-folded name, with raw byte order breaking ties between names that
// fold to the same key. The order is total, so repeated loads of the same
// contents always produce the same sequence.
func SortEntries(entries []Entry) {
	if len(entries) < 2 {
		return
	}

	caser := cases.Fold()
	keys := make([]string, len(entries))
	for i := range entries {
		keys[i] = caser.String(norm.NFC.String(entries[i].Name))
	}

	sort.Sort(entrySorter{entries: entries, keys: keys})
}

func less(a, b Entry, keyA, keyB string) bool {
	if a.IsDir() != b.IsDir() {
		return a.IsDir()
	}
	if keyA != keyB {
		return keyA < keyB
	}
	return a.Name < b.Name
}

type entrySorter struct {
	entries []Entry
	keys    []string
}

func (s entrySorter) Len() int { return len(s.entries) }

func (s entrySorter) Less(i, j int) bool {
	return less(s.entries[i], s.entries[j], s.keys[i], s.keys[j])
}

func (s entrySorter) Swap(i, j int) {
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
