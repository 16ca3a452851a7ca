package pentago

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehall/internal/game"
)

func stateWith(board game.Grid) *game.State {
	return &game.State{GameType: "pentago", Board: board}
}

func scatter(g game.Grid) game.Grid {
	out := g.Clone()
	for y := range out {
		for x := range out[y] {
			if (x*7+y*3)%5 == 0 {
				out[y][x] = game.Cell((x + y) % 2)
			}
		}
	}
	return out
}

func TestInitialBoard(t *testing.T) {
	g := New()
	board := g.InitialBoard()
	require.Len(t, board, BoardSize)
	for _, row := range board {
		require.Len(t, row, BoardSize)
		for _, cell := range row {
			assert.Equal(t, game.Empty, cell)
		}
	}
}

func TestRotateRoundTrip(t *testing.T) {
	board := scatter(New().InitialBoard())
	for q := 0; q < Quadrants; q++ {
		cw := RotateQuadrant(board, q, Clockwise)
		back := RotateQuadrant(cw, q, Counterclockwise)
		assert.Equal(t, board, back, "quadrant %d cw then ccw", q)

		ccw := RotateQuadrant(board, q, Counterclockwise)
		back = RotateQuadrant(ccw, q, Clockwise)
		assert.Equal(t, board, back, "quadrant %d ccw then cw", q)
	}
}

func TestRotateIsPureCopy(t *testing.T) {
	board := scatter(New().InitialBoard())
	snapshot := board.Clone()
	_ = RotateQuadrant(board, 2, Clockwise)
	assert.Equal(t, snapshot, board)
}

func TestRotateClockwisePlacement(t *testing.T) {
	board := New().InitialBoard()
	// Top-left corner of quadrant 0 moves to the top-right corner.
	board[0][0] = 1
	rotated := RotateQuadrant(board, 0, Clockwise)
	assert.Equal(t, game.Empty, rotated[0][0])
	assert.Equal(t, game.Cell(1), rotated[0][QuadrantSize-1])
}

func TestIsLegal(t *testing.T) {
	g := New()
	empty := stateWith(g.InitialBoard())

	occupied := g.InitialBoard()
	occupied[0][0] = 0

	tests := []struct {
		name string
		st   *game.State
		m    game.Move
		want bool
	}{
		{"ok", empty, game.Move{Kind: game.MovePlace, X: 0, Y: 0, Quadrant: 0, Direction: Clockwise}, true},
		{"wrong kind", empty, game.Move{Kind: game.MovePiece, Action: "drop"}, false},
		{"x out of bounds", empty, game.Move{Kind: game.MovePlace, X: BoardSize, Y: 0, Direction: Clockwise}, false},
		{"y negative", empty, game.Move{Kind: game.MovePlace, X: 0, Y: -1, Direction: Clockwise}, false},
		{"occupied cell", stateWith(occupied), game.Move{Kind: game.MovePlace, X: 0, Y: 0, Quadrant: 0, Direction: Clockwise}, false},
		{"quadrant too high", empty, game.Move{Kind: game.MovePlace, X: 0, Y: 0, Quadrant: 4, Direction: Clockwise}, false},
		{"quadrant negative", empty, game.Move{Kind: game.MovePlace, X: 0, Y: 0, Quadrant: -1, Direction: Clockwise}, false},
		{"bad direction", empty, game.Move{Kind: game.MovePlace, X: 0, Y: 0, Quadrant: 0, Direction: "sideways"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsLegal(tt.m, tt.st))
		})
	}
}

func TestResubmittedMoveIsIllegal(t *testing.T) {
	g := New()
	st := stateWith(g.InitialBoard())
	m := game.Move{Kind: game.MovePlace, X: 0, Y: 0, Quadrant: 0, Direction: Clockwise}

	require.True(t, g.IsLegal(m, st))
	st.Board = Apply(st.Board, m, 0)
	// Quadrant 0 rotated clockwise carries (0,0) to (3,0), so re-target
	// the now-occupied cell.
	taken := game.Move{Kind: game.MovePlace, X: QuadrantSize - 1, Y: 0, Quadrant: 0, Direction: Clockwise}
	assert.False(t, g.IsLegal(taken, st))
}

func TestLegalMoves(t *testing.T) {
	g := New()
	st := stateWith(g.InitialBoard())
	moves := g.LegalMoves(st)
	// 64 empty cells × 4 quadrants × 2 directions.
	assert.Len(t, moves, 64*4*2)

	full := g.InitialBoard()
	for y := range full {
		for x := range full[y] {
			full[y][x] = game.Cell((x + y) % 2)
		}
	}
	assert.Empty(t, g.LegalMoves(stateWith(full)))
}

func TestMoveFromSelection(t *testing.T) {
	g := New()
	st := stateWith(g.InitialBoard())
	x, y, q := 2, 3, 1

	m, ok := g.MoveFromSelection(st, game.Selection{X: &x, Y: &y, Quadrant: &q, Direction: Counterclockwise})
	require.True(t, ok)
	assert.Equal(t, game.Move{Kind: game.MovePlace, X: 2, Y: 3, Quadrant: 1, Direction: Counterclockwise}, m)

	_, ok = g.MoveFromSelection(st, game.Selection{X: &x, Y: &y, Quadrant: &q})
	assert.False(t, ok, "missing direction")

	_, ok = g.MoveFromSelection(st, game.Selection{X: &x, Direction: Clockwise})
	assert.False(t, ok, "missing cell and quadrant")
}
