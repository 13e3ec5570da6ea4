package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/kk-code-lab/millr/internal/cache"
	"github.com/kk-code-lab/millr/internal/fs"
	"github.com/kk-code-lab/millr/internal/nav"
	"github.com/kk-code-lab/millr/internal/textutil"
)

const (
	breadcrumbSeparator = " › "
	minSizeColumnWidth  = 30
)

// Renderer draws navigation snapshots. It is used from the UI loop only.
type Renderer struct {
	screen           tcell.Screen
	theme            ColorTheme
	runeWidthCache   [128]int // ASCII cache (0-127)
	runeWidthCacheMu sync.RWMutex
	runeWidthWide    sync.Map // For non-ASCII runes

	// offsets remembers the first visible row per directory so the list
	// scrolls only when the selection leaves the window.
	offsets map[string]int

	// tagged reports whether a path carries a tag; nil means none do.
	tagged func(path string) bool
}

// NewRenderer creates a new renderer
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen:  screen,
		theme:   GetColorTheme(),
		offsets: make(map[string]int),
	}
}

// SetTagged installs the lookup used to mark tagged entries.
func (r *Renderer) SetTagged(tagged func(path string) bool) {
	r.tagged = tagged
}

// Render draws the entire UI for state.
func (r *Renderer) Render(state nav.State) {
	r.screen.Clear()

	w, h := r.screen.Size()
	if w <= 0 || h <= 0 {
		r.screen.Show()
		return
	}

	r.drawHeader(&state, w)

	bottom := h - 2
	if bottom < 1 {
		bottom = 1
	}
	layout := r.computeLayout(w, &state)
	seen := make(map[string]struct{}, len(layout.slots))
	for i, slot := range layout.slots {
		col := &state.Columns[slot.index]
		seen[col.Path] = struct{}{}
		r.drawColumn(col, slot, 1, bottom)
		if i < len(layout.slots)-1 {
			sepX := slot.x + slot.width
			for y := 1; y < bottom; y++ {
				r.screen.SetContent(sepX, y, ' ', nil, tcell.StyleDefault)
			}
		}
	}
	for path := range r.offsets {
		if _, ok := seen[path]; !ok {
			delete(r.offsets, path)
		}
	}

	if h >= 3 {
		r.drawStatusLine(&state, w, h-2)
	}
	if h >= 2 {
		r.drawFooter(&state, w, h-1)
	}

	r.screen.Show()
}

// drawHeader renders the top bar with title and breadcrumb
func (r *Renderer) drawHeader(state *nav.State, w int) {
	headerStyle := tcell.StyleDefault.Background(r.theme.HeaderBg).Foreground(r.theme.HeaderFg)

	title := "millr"
	if state.TabCount > 1 {
		title = fmt.Sprintf("millr [%d/%d]", state.Tab+1, state.TabCount)
	}
	endX := r.drawTextLine(0, 0, w, title, headerStyle)
	if endX < w {
		r.screen.SetContent(endX, 0, ' ', nil, headerStyle)
		endX++
	}

	segments := r.formatBreadcrumbSegments(state.Focused)
	if endX < w && len(segments) > 0 {
		lastIdx := len(segments) - 1
		if lastIdx > 0 {
			prefix := textutil.SafeName(strings.Join(segments[:lastIdx], breadcrumbSeparator))
			prefix = r.fitBreadcrumb(prefix, w-endX)
			endX = r.drawTextLine(endX, 0, w-endX, prefix, headerStyle)
			if endX < w {
				endX = r.drawTextLine(endX, 0, w-endX, r.fitBreadcrumb(breadcrumbSeparator, w-endX), headerStyle)
			}
		}
		if endX < w {
			last := r.fitBreadcrumb(textutil.SafeName(segments[lastIdx]), w-endX)
			endX = r.drawTextLine(endX, 0, w-endX, last, headerStyle.Bold(true))
		}
	}

	r.fillLine(endX, w, 0, headerStyle)
}

// fitBreadcrumb trims text from the left so the end of a path stays
// visible.
func (r *Renderer) fitBreadcrumb(path string, width int) string {
	if width <= 0 {
		return ""
	}
	if r.measureTextWidth(path) <= width {
		return path
	}

	ellipsisWidth := r.measureTextWidth(textutil.Ellipsis)
	if width <= ellipsisWidth {
		return textutil.Ellipsis
	}
	available := width - ellipsisWidth

	runes := []rune(path)
	start := len(runes)
	currentWidth := 0
	for start > 0 {
		ruWidth := r.cachedRuneWidth(runes[start-1])
		if currentWidth+ruWidth > available {
			break
		}
		currentWidth += ruWidth
		start--
	}
	return textutil.Ellipsis + string(runes[start:])
}

func (r *Renderer) formatBreadcrumbSegments(path string) []string {
	if path == "" {
		return nil
	}

	cleanPath := filepath.Clean(path)
	volume := filepath.VolumeName(cleanPath)
	slashed := filepath.ToSlash(strings.TrimPrefix(cleanPath, volume))
	if slashed == "/" || slashed == "" {
		return []string{volume + "/"}
	}

	var segments []string
	if strings.HasPrefix(slashed, "/") {
		segments = append(segments, volume+"/")
		slashed = strings.TrimPrefix(slashed, "/")
	} else if volume != "" {
		segments = append(segments, volume)
	}

	for _, part := range strings.Split(slashed, "/") {
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// drawColumn renders one directory listing between rows top and bottom
// (exclusive).
func (r *Renderer) drawColumn(col *nav.Column, slot columnSlot, top, bottom int) {
	baseStyle := tcell.StyleDefault.Background(r.theme.ColumnBg).Foreground(r.theme.ColumnFg)
	endCol := slot.x + slot.width
	y := top

	if len(col.Entries) == 0 {
		if y < bottom {
			text, style := r.placeholder(col, baseStyle)
			endX := r.drawTextLine(slot.x, y, slot.width, textutil.Truncate(text, slot.width), style)
			r.fillLine(endX, endCol, y, baseStyle)
			y++
		}
	} else {
		offset := r.scrollOffset(col, bottom-top)
		for i := offset; i < len(col.Entries) && y < bottom; i++ {
			r.drawEntryRow(col, i, slot, y, baseStyle)
			y++
		}
	}

	for ; y < bottom; y++ {
		r.fillLine(slot.x, endCol, y, baseStyle)
	}
}

func (r *Renderer) placeholder(col *nav.Column, baseStyle tcell.Style) (string, tcell.Style) {
	status := col.Status
	if status == "" {
		status = "empty"
	}
	if col.Listing != nil && col.Listing.Status == cache.StatusFailed {
		return " " + status, baseStyle.Foreground(r.theme.ErrorFg)
	}
	return " " + status, baseStyle.Foreground(r.theme.PlaceholderFg)
}

// scrollOffset keeps the selected row inside a window of visible rows.
// Ancestor columns center their selection like a trail; other columns
// scroll only as far as needed.
func (r *Renderer) scrollOffset(col *nav.Column, visible int) int {
	total := len(col.Entries)
	if visible <= 0 || total <= visible {
		r.offsets[col.Path] = 0
		return 0
	}

	selected := col.Selected
	if selected < 0 {
		selected = 0
	}

	offset := r.offsets[col.Path]
	if col.Role == nav.RoleAncestor {
		offset = selected - visible/2
	} else {
		if selected < offset {
			offset = selected
		}
		if selected >= offset+visible {
			offset = selected - visible + 1
		}
	}
	if offset > total-visible {
		offset = total - visible
	}
	if offset < 0 {
		offset = 0
	}
	r.offsets[col.Path] = offset
	return offset
}

func (r *Renderer) drawEntryRow(col *nav.Column, idx int, slot columnSlot, y int, baseStyle tcell.Style) {
	entry := col.Entries[idx]
	isSelected := idx == col.Selected

	var rowStyle tcell.Style
	switch {
	case isSelected && col.Role == nav.RoleCurrent:
		rowStyle = tcell.StyleDefault.Background(r.theme.SelectionBg).Foreground(r.theme.SelectionFg)
	case isSelected:
		rowStyle = tcell.StyleDefault.Background(r.theme.TrailActiveBg).Foreground(r.theme.TrailActiveFg)
	case entry.IsBrokenSymlink():
		rowStyle = baseStyle.Foreground(r.theme.BrokenLinkFg)
	case entry.IsSymlink():
		rowStyle = baseStyle.Foreground(r.theme.SymlinkFg)
	case entry.IsDir():
		rowStyle = baseStyle.Foreground(r.theme.DirectoryFg)
	default:
		rowStyle = baseStyle.Foreground(r.theme.FileFg)
	}
	if entry.Hidden && !isSelected {
		rowStyle = rowStyle.Foreground(r.theme.HiddenFg)
	}

	mark := " "
	if r.tagged != nil && r.tagged(entry.FullPath) {
		mark = "*"
	}
	prefix := fmt.Sprintf("%s%s ", mark, entryIcon(entry))

	detail := ""
	if col.Role == nav.RoleCurrent && slot.width >= minSizeColumnWidth && entry.HasSize && !entry.IsDir() {
		detail = humanize.Bytes(uint64(entry.Size))
	}
	detailWidth := 0
	if detail != "" {
		detailWidth = r.measureTextWidth(detail) + 2
	}

	nameWidth := slot.width - r.measureTextWidth(prefix) - detailWidth
	name := textutil.Truncate(textutil.SafeName(entry.DisplayName()), nameWidth)

	endCol := slot.x + slot.width
	endX := r.drawTextLine(slot.x, y, slot.width, prefix+name, rowStyle)
	if detail != "" {
		detailX := endCol - detailWidth + 1
		r.fillLine(endX, detailX, y, rowStyle)
		endX = r.drawTextLine(detailX, y, endCol-detailX, detail, rowStyle)
	}
	r.fillLine(endX, endCol, y, rowStyle)
}

// entryIcon marks symlinks with @ and directories with /.
func entryIcon(entry fs.Entry) string {
	switch {
	case entry.IsSymlink():
		return "@"
	case entry.IsDir():
		return "/"
	default:
		return " "
	}
}
