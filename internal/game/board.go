package game

import (
	"encoding/json"
	"fmt"
)

// Cell is one board square. Empty marks an unowned square; other values are
// occupancy codes whose meaning belongs to the rule module (participant slot
// for the rotation game, the server's piece codes for the falling-piece
// game). The wire encodes Empty as JSON null.
type Cell int

const Empty Cell = -1

func (c Cell) MarshalJSON() ([]byte, error) {
	if c == Empty {
		return []byte("null"), nil
	}
	return json.Marshal(int(c))
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Empty
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode cell: %w", err)
	}
	*c = Cell(v)
	return nil
}

// Grid is a row-major board, indexed grid[y][x].
type Grid [][]Cell

// NewGrid returns a height×width grid with every cell set to fill.
func NewGrid(width, height int, fill Cell) Grid {
	g := make(Grid, height)
	for y := range g {
		row := make([]Cell, width)
		for x := range row {
			row[x] = fill
		}
		g[y] = row
	}
	return g
}

// In reports whether (x, y) addresses a cell of the grid.
func (g Grid) In(x, y int) bool {
	return y >= 0 && y < len(g) && x >= 0 && x < len(g[y])
}

// Clone returns a deep copy. Rule modules transform copies, never the
// original rows.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for y, row := range g {
		out[y] = append([]Cell(nil), row...)
	}
	return out
}
