package render

import "github.com/kk-code-lab/millr/internal/nav"

// columnSlot places one State column on screen.
type columnSlot struct {
	index int // position in State.Columns
	x     int
	width int
}

type layoutMetrics struct {
	slots []columnSlot
	// hiddenAncestors counts ancestor columns that did not fit.
	hiddenAncestors int
}

const (
	minMainPanelWidth       = 24
	minPreviewPanelWidth    = 16
	minPreviewTerminalWidth = 60
	previewWidthRatio       = 0.4
	columnSeparatorWidth    = 1
)

// computeLayout gives ancestors a fixed narrow width, the preview a share of
// the terminal, and the current directory everything left. Ancestors are
// dropped outermost first when they do not fit.
func (r *Renderer) computeLayout(w int, state *nav.State) layoutMetrics {
	metrics := layoutMetrics{}
	if w <= 0 || state == nil {
		return metrics
	}

	current, preview := -1, -1
	for i := range state.Columns {
		switch state.Columns[i].Role {
		case nav.RoleCurrent:
			current = i
		case nav.RolePreview:
			preview = i
		}
	}
	if current < 0 {
		return metrics
	}

	previewWidth := 0
	if preview >= 0 && w >= minPreviewTerminalWidth {
		previewWidth = int(float64(w)*previewWidthRatio + 0.5)
		if previewWidth < minPreviewPanelWidth {
			previewWidth = minPreviewPanelWidth
		}
		if w-previewWidth-columnSeparatorWidth < minMainPanelWidth {
			previewWidth = w - columnSeparatorWidth - minMainPanelWidth
		}
		if previewWidth < minPreviewPanelWidth {
			previewWidth = 0
		}
	}
	reserved := 0
	if previewWidth > 0 {
		reserved = previewWidth + columnSeparatorWidth
	}

	ancestorWidth := ancestorWidthForWidth(w)
	shown := 0
	if ancestorWidth > 0 {
		budget := w - reserved - minMainPanelWidth
		for i := current - 1; i >= 0; i-- {
			if (shown+1)*(ancestorWidth+columnSeparatorWidth) > budget {
				break
			}
			shown++
		}
	}
	metrics.hiddenAncestors = current - shown

	x := 0
	for i := current - shown; i < current; i++ {
		metrics.slots = append(metrics.slots, columnSlot{index: i, x: x, width: ancestorWidth})
		x += ancestorWidth + columnSeparatorWidth
	}

	mainWidth := w - x - reserved
	if mainWidth < 0 {
		mainWidth = 0
	}
	metrics.slots = append(metrics.slots, columnSlot{index: current, x: x, width: mainWidth})
	x += mainWidth

	if previewWidth > 0 {
		x += columnSeparatorWidth
		metrics.slots = append(metrics.slots, columnSlot{index: preview, x: x, width: previewWidth})
	}
	return metrics
}

func ancestorWidthForWidth(w int) int {
	switch {
	case w >= 150:
		return 28
	case w >= 120:
		return 24
	case w >= 100:
		return 20
	case w >= 80:
		return 16
	case w >= 65:
		return 12
	case w >= 52:
		return 10
	default:
		return 0
	}
}
