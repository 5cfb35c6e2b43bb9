package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var (
	colorAccent = tcell.NewRGBColor(31, 132, 89)   // #1f8459
	colorMuted  = tcell.NewRGBColor(102, 112, 109) // #66706d
	colorDanger = tcell.NewRGBColor(217, 54, 54)   // #d93636
)

// SetupTheme applies the page palette to every tview primitive.
func SetupTheme() {
	tview.Styles = tview.Theme{
		PrimitiveBackgroundColor:    tcell.NewRGBColor(249, 249, 250), // #f9f9fa
		ContrastBackgroundColor:     tcell.NewRGBColor(228, 236, 233), // #e4ece9
		MoreContrastBackgroundColor: tcell.NewRGBColor(205, 213, 210), // #cdd5d2
		BorderColor:                 tcell.NewRGBColor(163, 173, 170), // #a3adaa
		TitleColor:                  colorAccent,
		GraphicsColor:               colorAccent,
		PrimaryTextColor:            tcell.NewRGBColor(31, 37, 35), // #1f2523
		SecondaryTextColor:          tcell.NewRGBColor(77, 92, 87), // #4d5c57
		TertiaryTextColor:           colorMuted,
		InverseTextColor:            tcell.NewRGBColor(249, 249, 250),
		ContrastSecondaryTextColor:  tcell.NewRGBColor(31, 37, 35),
	}
}
