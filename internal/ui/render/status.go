package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/millr/internal/cache"
	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/nav"
	"github.com/kk-code-lab/millr/internal/textutil"
)

// drawStatusLine shows the selected entry's path on the left and its
// metadata on the right.
func (r *Renderer) drawStatusLine(state *nav.State, w, y int) {
	normalStyle := tcell.StyleDefault.Background(r.theme.StatusBg).Foreground(r.theme.StatusFg)
	detailStyle := normalStyle.Foreground(r.theme.StatusDetailFg)

	pathText := state.Focused
	detail := ""
	if current := state.Current(); current != nil {
		if entry, ok := current.SelectedEntry(); ok {
			pathText = entryPathText(entry)
			detail = entryDetail(entry)
		}
	}
	pathText = textutil.SafeName(pathText)

	detailWidth := 0
	if detail != "" {
		detailWidth = r.measureTextWidth(detail) + 1
		if detailWidth > w/2 {
			detail, detailWidth = "", 0
		}
	}

	pathWidth := w - detailWidth
	endX := r.drawTextLine(0, y, pathWidth, r.fitBreadcrumb(pathText, pathWidth), normalStyle)
	if detail != "" {
		r.fillLine(endX, w-detailWidth+1, y, normalStyle)
		endX = r.drawTextLine(w-detailWidth+1, y, detailWidth-1, detail, detailStyle)
	}
	r.fillLine(endX, w, y, normalStyle)
}

func entryPathText(entry fs.Entry) string {
	switch {
	case entry.IsBrokenSymlink():
		return entry.FullPath + " → (broken)"
	case entry.IsSymlink():
		return entry.FullPath + " → " + entry.SymlinkTarget
	default:
		return entry.FullPath
	}
}

func entryDetail(entry fs.Entry) string {
	parts := make([]string, 0, 3)
	if entry.Mode != 0 {
		parts = append(parts, entry.Mode.String())
	}
	if entry.HasSize && !entry.IsDir() {
		parts = append(parts, humanize.Bytes(uint64(entry.Size)))
	}
	if !entry.Modified.IsZero() {
		parts = append(parts, humanize.Time(entry.Modified))
	}
	return strings.Join(parts, "  ")
}

// drawFooter shows the transient message, or the focused directory's load
// status, followed by view flags and the cursor position.
func (r *Renderer) drawFooter(state *nav.State, w, y int) {
	normalStyle := tcell.StyleDefault.Background(r.theme.StatusBg).Foreground(r.theme.StatusFg)

	left, leftStyle := "", normalStyle
	current := state.Current()
	switch {
	case state.Message != "":
		left, leftStyle = state.Message, normalStyle.Foreground(r.theme.MessageFg)
	case current != nil && current.Status != "":
		left = current.Status
		if current.Listing != nil && current.Listing.Status == cache.StatusFailed {
			leftStyle = normalStyle.Foreground(r.theme.ErrorFg)
		} else {
			leftStyle = normalStyle.Foreground(r.theme.PlaceholderFg)
		}
	}

	right := footerFlags(state, current)
	rightWidth := r.measureTextWidth(right)
	if rightWidth >= w {
		right, rightWidth = "", 0
	}

	endX := r.drawTextLine(0, y, w-rightWidth, textutil.Truncate(textutil.SafeName(left), w-rightWidth-1), leftStyle)
	r.fillLine(endX, w-rightWidth, y, normalStyle)
	endX = r.drawTextLine(w-rightWidth, y, rightWidth, right, normalStyle)
	r.fillLine(endX, w, y, normalStyle)
}

func footerFlags(state *nav.State, current *nav.Column) string {
	var flags []string
	if state.ShowHidden {
		flags = append(flags, "[hidden]")
	}
	if state.SortReversed {
		flags = append(flags, "[reversed]")
	}
	if state.Filter != "" {
		flags = append(flags, fmt.Sprintf("[filter: %s]", textutil.SafeName(state.Filter)))
	}
	if current != nil && len(current.Entries) > 0 {
		flags = append(flags, fmt.Sprintf("%d/%d", current.Selected+1, len(current.Entries)))
	}
	if len(flags) == 0 {
		return ""
	}
	return strings.Join(flags, " ") + " "
}
