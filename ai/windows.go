package ai

import "connect4ai/games"

// Cell is a board coordinate.
type Cell struct {
	Row, Col int
}

// Window is a run of ConnectLength cells on one line.
type Window [games.ConnectLength]Cell

// Catalog is the closed list of every window on a board of a given size.
// It is built once and never modified.
type Catalog struct {
	rows, cols int
	windows    []Window
}

// NewCatalog enumerates horizontal, vertical and both diagonal windows.
// A 6x7 board has 24+21+12+12 = 69 of them.
func NewCatalog(rows, cols int) *Catalog {
	const n = games.ConnectLength
	cat := &Catalog{rows: rows, cols: cols}
	add := func(r, c, dr, dc int) {
		var w Window
		for i := 0; i < n; i++ {
			w[i] = Cell{Row: r + i*dr, Col: c + i*dc}
		}
		cat.windows = append(cat.windows, w)
	}
	for r := 0; r < rows; r++ {
		for c := 0; c+n <= cols; c++ {
			add(r, c, 0, 1)
		}
	}
	for r := 0; r+n <= rows; r++ {
		for c := 0; c < cols; c++ {
			add(r, c, 1, 0)
		}
	}
	for r := 0; r+n <= rows; r++ {
		for c := 0; c+n <= cols; c++ {
			add(r, c, 1, 1)
		}
	}
	for r := n - 1; r < rows; r++ {
		for c := 0; c+n <= cols; c++ {
			add(r, c, -1, 1)
		}
	}
	return cat
}

func (c *Catalog) Len() int { return len(c.windows) }

// Windows returns the catalog entries. Callers must not modify them.
func (c *Catalog) Windows() []Window { return c.windows }

// Fits reports whether the catalog was built for b's dimensions.
func (c *Catalog) Fits(b *games.Board) bool {
	return c.rows == b.Rows() && c.cols == b.Cols()
}
