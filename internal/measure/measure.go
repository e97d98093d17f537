// Package measure provides the text measurement service used for word
// wrapping and line width caching.
//
// The editing core treats widths as opaque numbers; the only requirement
// is that measuring a prefix never yields more than measuring the whole.
package measure

import (
	"github.com/rivo/uniseg"
)

// Measurer measures rendered text.
type Measurer interface {
	// MeasureTextWidth returns the rendered width of text, which holds no newline.
	MeasureTextWidth(text []byte) float64

	// TextHeight returns the height of one rendered line.
	TextHeight() float64
}

// DefaultTabWidth is the tab stop distance in cells when none is set.
const DefaultTabWidth = 4

// Monospace measures text on a fixed cell grid. Wide graphemes (East Asian
// wide characters, most emoji) occupy two cells and tabs advance to the
// next tab stop.
type Monospace struct {
	CellWidth  float64
	LineHeight float64
	TabWidth   int
}

// NewMonospace returns a measurer with one unit per cell.
func NewMonospace(tabWidth int) Monospace {
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}
	return Monospace{CellWidth: 1, LineHeight: 1, TabWidth: tabWidth}
}

// MeasureTextWidth returns the width of text in cells times CellWidth.
func (m Monospace) MeasureTextWidth(text []byte) float64 {
	return float64(m.Cells(text)) * m.cellWidth()
}

// TextHeight returns the line height.
func (m Monospace) TextHeight() float64 {
	if m.LineHeight <= 0 {
		return 1
	}
	return m.LineHeight
}

// Cells returns the number of grid cells text occupies.
func (m Monospace) Cells(text []byte) int {
	tab := m.TabWidth
	if tab <= 0 {
		tab = DefaultTabWidth
	}
	cells := 0
	state := -1
	for len(text) > 0 {
		var cluster []byte
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeCluster(text, state)
		if len(cluster) == 1 && cluster[0] == '\t' {
			cells += tab - cells%tab
			continue
		}
		cells += width
	}
	return cells
}

func (m Monospace) cellWidth() float64 {
	if m.CellWidth <= 0 {
		return 1
	}
	return m.CellWidth
}
