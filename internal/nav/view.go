package nav

import (
	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/search"
)

// viewOptions controls how a listing is projected into visible rows.
type viewOptions struct {
	showHidden bool
	reversed   bool
	keep       string       // name shown even when hidden (the chain child in ancestors)
	filter     search.Query // zero value shows everything
}

// buildView filters and orders entries for display. Hidden and filtered-out
// entries stay in the listing and are only skipped here. Reversal flips name
// order inside the directory block and the file block separately so
// directories stay on top.
func buildView(entries []fs.Entry, opts viewOptions) ([]fs.Entry, []int) {
	if len(entries) == 0 {
		return nil, nil
	}

	indices := make([]int, 0, len(entries))
	for i := range entries {
		if entries[i].Hidden && !opts.showHidden && entries[i].Name != opts.keep {
			continue
		}
		if !opts.filter.Empty() {
			if _, ok := opts.filter.Match(entries[i].DisplayName()); !ok {
				continue
			}
		}
		indices = append(indices, i)
	}

	if opts.reversed {
		split := 0
		for split < len(indices) && entries[indices[split]].IsDir() {
			split++
		}
		reverseInts(indices[:split])
		reverseInts(indices[split:])
	}

	view := make([]fs.Entry, len(indices))
	for row, idx := range indices {
		view[row] = entries[idx]
	}
	return view, indices
}

// rowFor maps a listing index to a visible row. A selection that is filtered
// out falls to the nearest visible entry after it in listing order, or the
// nearest before it when none follows.
func rowFor(indices []int, selected int) int {
	if len(indices) == 0 {
		return -1
	}

	bestAfter, bestBefore := -1, -1
	for row, idx := range indices {
		switch {
		case idx == selected:
			return row
		case idx > selected:
			if bestAfter < 0 || idx < indices[bestAfter] {
				bestAfter = row
			}
		default:
			if bestBefore < 0 || idx > indices[bestBefore] {
				bestBefore = row
			}
		}
	}
	if bestAfter >= 0 {
		return bestAfter
	}
	return bestBefore
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
