// Package pentago implements the rule module for the rotation game: place a
// piece on an 8×8 board, then rotate one of the four 4×4 quadrants.
package pentago

import "gamehall/internal/game"

const (
	BoardSize    = 8
	QuadrantSize = 4
	Quadrants    = 4
)

const (
	Clockwise        = "clockwise"
	Counterclockwise = "counterclockwise"
)

type Game struct{}

func New() *Game { return &Game{} }

func (*Game) InitialBoard() game.Grid {
	return game.NewGrid(BoardSize, BoardSize, game.Empty)
}

func (*Game) IsLegal(m game.Move, st *game.State) bool {
	if m.Kind != game.MovePlace {
		return false
	}
	if st == nil || !st.Board.In(m.X, m.Y) {
		return false
	}
	if st.Board[m.Y][m.X] != game.Empty {
		return false
	}
	if m.Quadrant < 0 || m.Quadrant >= Quadrants {
		return false
	}
	return m.Direction == Clockwise || m.Direction == Counterclockwise
}

func (*Game) LegalMoves(st *game.State) []game.Move {
	if st == nil {
		return nil
	}
	var moves []game.Move
	for y, row := range st.Board {
		for x, cell := range row {
			if cell != game.Empty {
				continue
			}
			for q := 0; q < Quadrants; q++ {
				for _, dir := range []string{Clockwise, Counterclockwise} {
					moves = append(moves, game.Move{
						Kind:      game.MovePlace,
						X:         x,
						Y:         y,
						Quadrant:  q,
						Direction: dir,
					})
				}
			}
		}
	}
	return moves
}

func (g *Game) MoveFromSelection(st *game.State, sel game.Selection) (game.Move, bool) {
	if sel.X == nil || sel.Y == nil || sel.Quadrant == nil {
		return game.Move{}, false
	}
	if sel.Direction != Clockwise && sel.Direction != Counterclockwise {
		return game.Move{}, false
	}
	m := game.Move{
		Kind:      game.MovePlace,
		X:         *sel.X,
		Y:         *sel.Y,
		Quadrant:  *sel.Quadrant,
		Direction: sel.Direction,
	}
	if !g.IsLegal(m, st) {
		return game.Move{}, false
	}
	return m, true
}

// RotateQuadrant returns a copy of the grid with one quadrant rotated 90°.
// Quadrants bisect the board by coordinate range: quadrant = 2*(row half) +
// (column half). The source sub-grid is read only; the rotated copy replaces
// it in the returned grid.
func RotateQuadrant(g game.Grid, quadrant int, direction string) game.Grid {
	out := g.Clone()
	startRow := (quadrant / 2) * QuadrantSize
	startCol := (quadrant % 2) * QuadrantSize

	rotated := game.NewGrid(QuadrantSize, QuadrantSize, game.Empty)
	for r := 0; r < QuadrantSize; r++ {
		for c := 0; c < QuadrantSize; c++ {
			v := g[startRow+r][startCol+c]
			if direction == Clockwise {
				rotated[c][QuadrantSize-1-r] = v
			} else {
				rotated[QuadrantSize-1-c][r] = v
			}
		}
	}
	for r := 0; r < QuadrantSize; r++ {
		for c := 0; c < QuadrantSize; c++ {
			out[startRow+r][startCol+c] = rotated[r][c]
		}
	}
	return out
}

// Apply places slot's piece and rotates the chosen quadrant, returning the
// resulting board. The input grid is left untouched. Used for local move
// preview; the server board remains authoritative.
func Apply(g game.Grid, m game.Move, slot int) game.Grid {
	placed := g.Clone()
	placed[m.Y][m.X] = game.Cell(slot)
	return RotateQuadrant(placed, m.Quadrant, m.Direction)
}
