package render

import "github.com/gdamore/tcell/v2"

// ColorTheme defines application colors.
type ColorTheme struct {
	Background     tcell.Color
	Foreground     tcell.Color
	ColumnBg       tcell.Color
	ColumnFg       tcell.Color
	HiddenFg       tcell.Color
	TrailActiveBg  tcell.Color
	TrailActiveFg  tcell.Color
	SelectionBg    tcell.Color
	SelectionFg    tcell.Color
	DirectoryFg    tcell.Color
	SymlinkFg      tcell.Color
	BrokenLinkFg   tcell.Color
	FileFg         tcell.Color
	PlaceholderFg  tcell.Color
	ErrorFg        tcell.Color
	HeaderBg       tcell.Color
	HeaderFg       tcell.Color
	StatusBg       tcell.Color
	StatusFg       tcell.Color
	StatusDetailFg tcell.Color
	MessageFg      tcell.Color
}

// GetColorTheme returns the default color scheme.
func GetColorTheme() ColorTheme {
	return ColorTheme{
		Background:     tcell.ColorDefault,
		Foreground:     tcell.ColorDefault,
		ColumnBg:       tcell.ColorDefault,
		ColumnFg:       tcell.ColorDefault,
		HiddenFg:       tcell.ColorLightSlateGray,
		TrailActiveBg:  tcell.Color238,
		TrailActiveFg:  tcell.ColorWhite,
		SelectionBg:    tcell.Color33,
		SelectionFg:    tcell.ColorWhite,
		DirectoryFg:    tcell.Color33,
		SymlinkFg:      tcell.Color51,
		BrokenLinkFg:   tcell.Color167,
		FileFg:         tcell.ColorDefault,
		PlaceholderFg:  tcell.ColorLightSlateGray,
		ErrorFg:        tcell.Color167,
		HeaderBg:       tcell.ColorDefault,
		HeaderFg:       tcell.ColorDefault,
		StatusBg:       tcell.ColorDefault,
		StatusFg:       tcell.ColorDefault,
		StatusDetailFg: tcell.ColorLightSlateGray,
		MessageFg:      tcell.Color214, // amber so messages stand apart from paths
	}
}
