// Package sdggrid packs independently laid out fragments into a grid.
package sdggrid

import (
	"math"

	"oss.terrastruct.com/sdg/lib/geo"
)

// Layout moves every fragment, in place, into a row-directed grid with
// ceil(sqrt(n)) columns. All fragments in a row share the row's height and all
// in a column the column's width, with gap between cells.
//
//	┌───────┐
//	│ a b c │
//	│ d e f │
//	│ g     │
//	└───────┘
//
// It returns the bounding box of the packed fragments.
func Layout(fragments [][]geo.Point, gap float64) *geo.Box {
	n := len(fragments)
	if n == 0 {
		return geo.NewBox(geo.Point{}, 0, 0)
	}
	columns := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + columns - 1) / columns

	boxes := make([]*geo.Box, n)
	for i, f := range fragments {
		boxes[i] = geo.BoundingBox(f, nil)
	}
	getBox := func(rowIndex, columnIndex int) (int, bool) {
		index := rowIndex*columns + columnIndex
		return index, index < n
	}

	rowHeights := make([]float64, 0, rows)
	colWidths := make([]float64, 0, columns)
	for i := 0; i < rows; i++ {
		rowHeight := 0.
		for j := 0; j < columns; j++ {
			k, ok := getBox(i, j)
			if !ok {
				break
			}
			rowHeight = math.Max(rowHeight, boxes[k].Height)
		}
		rowHeights = append(rowHeights, rowHeight)
	}
	for j := 0; j < columns; j++ {
		columnWidth := 0.
		for i := 0; i < rows; i++ {
			k, ok := getBox(i, j)
			if !ok {
				break
			}
			columnWidth = math.Max(columnWidth, boxes[k].Width)
		}
		colWidths = append(colWidths, columnWidth)
	}

	cursor := geo.NewPoint(0, 0)
	for i := 0; i < rows; i++ {
		for j := 0; j < columns; j++ {
			k, ok := getBox(i, j)
			if !ok {
				break
			}
			// centre the fragment in its cell
			b := boxes[k]
			target := geo.NewPoint(
				cursor.X+(colWidths[j]-b.Width)/2,
				cursor.Y+(rowHeights[i]-b.Height)/2,
			)
			geo.Translate(fragments[k], nil, b.TopLeft.VectorTo(target))
			cursor.X += colWidths[j] + gap
		}
		cursor.X = 0
		cursor.Y += rowHeights[i] + gap
	}

	var totalWidth, totalHeight float64
	for _, w := range colWidths {
		totalWidth += w + gap
	}
	for _, h := range rowHeights {
		totalHeight += h + gap
	}
	return geo.NewBox(geo.Point{}, totalWidth-gap, totalHeight-gap)
}
