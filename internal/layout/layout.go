// Package layout maps an item count to the row/column shape of the gallery board.
package layout

import "math"

const (
	// DefaultMaxCount is the number of images the board can show.
	DefaultMaxCount = 100
	// AspectRatio is the width/height ratio the grid aims for.
	AspectRatio = 4.0 / 3.0
)

// Layout is the shape of the board grid.
type Layout struct {
	Columns int `json:"columns"`
	Rows    int `json:"rows"`
}

// Compute returns the grid shape for count items on a board holding at most maxCount.
// It is total: any count yields at least a 1x1 grid, and a non-positive maxCount falls
// back to DefaultMaxCount.
func Compute(count, maxCount int) Layout {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	if count <= 0 {
		return Layout{Columns: 1, Rows: 1}
	}
	if count > maxCount {
		count = maxCount
	}

	idealColumns := int(math.Round(math.Sqrt(float64(count) * AspectRatio)))
	if idealColumns < 1 {
		idealColumns = 1
	}
	rows := ceilDiv(count, idealColumns)
	// re-derive columns so no row is left empty
	columns := ceilDiv(count, rows)

	side := SideCap(maxCount)
	return Layout{
		Columns: min(columns, side),
		Rows:    min(rows, side),
	}
}

// SideCap is the side length of the smallest square that holds maxCount items.
func SideCap(maxCount int) int {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return int(math.Ceil(math.Sqrt(float64(maxCount))))
}

// Cells returns the number of cells in the grid, saturating at math.MaxInt.
func (l Layout) Cells() int {
	if l.Columns > 0 && l.Rows > math.MaxInt/l.Columns {
		return math.MaxInt
	}
	return l.Columns * l.Rows
}

// Underfilled reports whether the side cap left fewer cells than there are items to show.
// Compute keeps the cap as-is; callers use this to log or flag the condition.
func (l Layout) Underfilled(count, maxCount int) bool {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return l.Cells() < min(max(count, 0), maxCount)
}

// CellSize returns the pixel size of one cell when the grid is painted on a board of the
// given size, with gap pixels between cells and around the edge.
func (l Layout) CellSize(boardWidth, boardHeight, gap int) (width, height int) {
	columns := max(l.Columns, 1)
	rows := max(l.Rows, 1)
	width = (boardWidth - gap*(columns+1)) / columns
	height = (boardHeight - gap*(rows+1)) / rows
	return max(width, 1), max(height, 1)
}

// ceilDiv divides positive a by positive b, rounding up without overflowing near math.MaxInt.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
