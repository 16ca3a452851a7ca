package tetris

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehall/internal/game"
)

func stateWith(t *testing.T, board game.Grid, bs *BoardState) *game.State {
	t.Helper()
	raw, err := json.Marshal(bs)
	require.NoError(t, err)
	return &game.State{GameType: "tetris", Board: board, Aux: raw}
}

func falling(pieceType string, x, y, rotation int) *BoardState {
	return &BoardState{
		Width:        BoardWidth,
		Height:       BoardHeight,
		FallingPiece: &FallingPiece{Type: pieceType, X: x, Y: y, Rotation: rotation},
	}
}

func TestRotateCycleLaw(t *testing.T) {
	for _, pt := range PieceTypes() {
		base, ok := Shape(pt, 0)
		require.True(t, ok)
		s := base
		for i := 0; i < 4; i++ {
			s = Rotate(s)
		}
		assert.Equal(t, base, s, "piece %s", pt)
	}
}

func TestShapeMatchesRepeatedRotation(t *testing.T) {
	for _, pt := range PieceTypes() {
		base, _ := Shape(pt, 0)
		once := Rotate(base)
		got, ok := Shape(pt, 1)
		require.True(t, ok)
		assert.Equal(t, once, got, "piece %s", pt)

		wrapped, ok := Shape(pt, 5)
		require.True(t, ok)
		assert.Equal(t, once, wrapped, "piece %s rotation wraps mod 4", pt)
	}
	_, ok := Shape("X", 0)
	assert.False(t, ok)
}

func TestCanPlace(t *testing.T) {
	g := New()
	board := g.InitialBoard()
	shape, _ := Shape("O", 0)

	assert.True(t, CanPlace(board, shape, 0, 0))
	assert.True(t, CanPlace(board, shape, 0, -2), "rows above the top never collide")
	// The O bitmap's leftmost column is blank, so x=-1 still fits; x=-2
	// pushes a filled cell past the wall.
	assert.True(t, CanPlace(board, shape, -1, 0))
	assert.False(t, CanPlace(board, shape, -2, 0), "column out of bounds")
	assert.False(t, CanPlace(board, shape, BoardWidth-2, 0), "right edge")
	assert.False(t, CanPlace(board, shape, 0, BoardHeight-1), "below the floor")

	board[1][1] = 3
	assert.False(t, CanPlace(board, shape, 0, 0), "occupied cell")
	assert.True(t, CanPlace(board, shape, 0, -2), "collision only counts inside the board")
}

func TestDropY(t *testing.T) {
	g := New()
	board := g.InitialBoard()
	shape, _ := Shape("O", 0)
	// O occupies rows 0-1 of its bitmap; resting rows are 18-19.
	assert.Equal(t, BoardHeight-2, DropY(board, shape, 0, 0))

	board[BoardHeight-1][1] = 3
	assert.Equal(t, BoardHeight-3, DropY(board, shape, 0, 0))
}

func TestIsLegalActions(t *testing.T) {
	g := New()
	board := g.InitialBoard()
	st := stateWith(t, board, falling("T", 4, 0, 0))

	tests := []struct {
		name string
		m    game.Move
		want bool
	}{
		{"shift left", game.Move{Kind: game.MovePiece, Action: ActionShift, Direction: DirLeft}, true},
		{"shift right", game.Move{Kind: game.MovePiece, Action: ActionShift, Direction: DirRight}, true},
		{"rotate", game.Move{Kind: game.MovePiece, Action: ActionRotate}, true},
		{"drop", game.Move{Kind: game.MovePiece, Action: ActionDrop}, true},
		{"lock", game.Move{Kind: game.MovePiece, Action: ActionLock}, true},
		{"wrong kind", game.Move{Kind: game.MovePlace, X: 0, Y: 0}, false},
		{"unknown action", game.Move{Kind: game.MovePiece, Action: "hold"}, false},
		{"shift without direction", game.Move{Kind: game.MovePiece, Action: ActionShift}, false},
		{"shift bad direction", game.Move{Kind: game.MovePiece, Action: ActionShift, Direction: "up"}, false},
		{"rotate with direction", game.Move{Kind: game.MovePiece, Action: ActionRotate, Direction: DirLeft}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.IsLegal(tt.m, st))
		})
	}
}

func TestIsLegalAtWalls(t *testing.T) {
	g := New()
	board := g.InitialBoard()

	// T at rotation 0 fills columns x..x+2, so at x=0 it is flush
	// against the left wall.
	left := stateWith(t, board, falling("T", 0, 0, 0))
	assert.False(t, g.IsLegal(game.Move{Kind: game.MovePiece, Action: ActionShift, Direction: DirLeft}, left))
	assert.True(t, g.IsLegal(game.Move{Kind: game.MovePiece, Action: ActionShift, Direction: DirRight}, left))
}

func TestIsLegalWithoutFallingPiece(t *testing.T) {
	g := New()
	st := stateWith(t, g.InitialBoard(), &BoardState{Width: BoardWidth, Height: BoardHeight})
	assert.False(t, g.IsLegal(game.Move{Kind: game.MovePiece, Action: ActionDrop}, st))
	assert.Empty(t, g.LegalMoves(st))
}

func TestLegalMoves(t *testing.T) {
	g := New()
	st := stateWith(t, g.InitialBoard(), falling("I", 3, 1, 0))
	moves := g.LegalMoves(st)
	assert.Len(t, moves, 5)
	for _, m := range moves {
		assert.True(t, g.IsLegal(m, st))
	}
}

func TestMoveFromSelection(t *testing.T) {
	g := New()
	st := stateWith(t, g.InitialBoard(), falling("L", 4, 2, 1))

	m, ok := g.MoveFromSelection(st, game.Selection{Action: ActionShift, Direction: DirLeft})
	require.True(t, ok)
	assert.Equal(t, game.Move{Kind: game.MovePiece, Action: ActionShift, Direction: DirLeft}, m)

	_, ok = g.MoveFromSelection(st, game.Selection{})
	assert.False(t, ok, "no action chosen")

	_, ok = g.MoveFromSelection(st, game.Selection{Action: ActionShift})
	assert.False(t, ok, "shift needs a direction")
}
