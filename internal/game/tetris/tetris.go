// Package tetris implements the rule module for the two-player falling-piece
// game: a shared 10×20 well, alternating piece placement.
package tetris

import (
	"encoding/json"
	"fmt"

	"gamehall/internal/game"
)

const (
	BoardWidth  = 10
	BoardHeight = 20
)

// Move actions and shift directions.
const (
	ActionShift  = "shift"
	ActionDrop   = "drop"
	ActionRotate = "rotate"
	ActionLock   = "lock"

	DirLeft  = "left"
	DirRight = "right"
)

// Base orientation of each tetromino. Other orientations are produced by
// repeated 90° clockwise rotation, never by lookup, so asymmetric shapes
// behave exactly like N single-step rotations.
var shapes = map[string][][]int{
	"I": {
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	},
	"O": {
		{0, 1, 1, 0},
		{0, 1, 1, 0},
		{0, 0, 0, 0},
	},
	"T": {
		{0, 1, 0},
		{1, 1, 1},
		{0, 0, 0},
	},
	"S": {
		{0, 1, 1},
		{1, 1, 0},
		{0, 0, 0},
	},
	"Z": {
		{1, 1, 0},
		{0, 1, 1},
		{0, 0, 0},
	},
	"J": {
		{1, 0, 0},
		{1, 1, 1},
		{0, 0, 0},
	},
	"L": {
		{0, 0, 1},
		{1, 1, 1},
		{0, 0, 0},
	},
}

// PieceTypes lists the seven tetromino identifiers.
func PieceTypes() []string {
	return []string{"I", "O", "T", "S", "Z", "J", "L"}
}

// Shape returns the bitmap of a piece after the given number of clockwise
// quarter turns, or false for an unknown piece type.
func Shape(pieceType string, rotation int) ([][]int, bool) {
	base, ok := shapes[pieceType]
	if !ok {
		return nil, false
	}
	s := base
	for i := 0; i < ((rotation%4)+4)%4; i++ {
		s = Rotate(s)
	}
	return s, true
}

// Rotate turns a bitmap 90° clockwise: source [r][c] lands at [c][h-1-r].
// An h×w bitmap becomes w×h.
func Rotate(shape [][]int) [][]int {
	if len(shape) == 0 {
		return nil
	}
	h, w := len(shape), len(shape[0])
	out := make([][]int, w)
	for r := range out {
		out[r] = make([]int, h)
	}
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			out[c][h-1-r] = shape[r][c]
		}
	}
	return out
}

// CanPlace reports whether every filled cell of the shape, anchored at
// (x, y), maps to an in-bounds column, a row no lower than the floor and,
// when the row is inside the board, an unoccupied cell. Rows above the
// visible top never collide, so a piece may rotate while partially above
// the board.
func CanPlace(g game.Grid, shape [][]int, x, y int) bool {
	height := len(g)
	for ry, row := range shape {
		for rx, v := range row {
			if v == 0 {
				continue
			}
			gx, gy := x+rx, y+ry
			if gy >= height {
				return false
			}
			if gy < 0 {
				if gx < 0 || (height > 0 && gx >= len(g[0])) {
					return false
				}
				continue
			}
			if gx < 0 || gx >= len(g[gy]) {
				return false
			}
			if g[gy][gx] != 0 {
				return false
			}
		}
	}
	return true
}

// DropY returns the lowest row the shape can fall to from (x, y).
func DropY(g game.Grid, shape [][]int, x, y int) int {
	for CanPlace(g, shape, x, y+1) {
		y++
	}
	return y
}

// FallingPiece mirrors the server's falling-piece document.
type FallingPiece struct {
	Type     string `json:"type"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation int    `json:"rotation"`
}

// BoardState mirrors the server's board_state document for this game.
type BoardState struct {
	Grid               [][]int       `json:"grid"`
	Width              int           `json:"width"`
	Height             int           `json:"height"`
	NextPieces         []string      `json:"next_pieces"`
	Scores             []int         `json:"scores"`
	FallingPiece       *FallingPiece `json:"falling_piece"`
	CurrentPlayerPiece *string       `json:"current_player_piece"`
}

// ParseState decodes the auxiliary board document carried in session state.
func ParseState(raw json.RawMessage) (*BoardState, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("no board state")
	}
	var bs BoardState
	if err := json.Unmarshal(raw, &bs); err != nil {
		return nil, fmt.Errorf("decode board state: %w", err)
	}
	return &bs, nil
}

type Game struct{}

func New() *Game { return &Game{} }

func (*Game) InitialBoard() game.Grid {
	return game.NewGrid(BoardWidth, BoardHeight, 0)
}

func (*Game) IsLegal(m game.Move, st *game.State) bool {
	if m.Kind != game.MovePiece || st == nil {
		return false
	}
	switch m.Action {
	case ActionShift:
		if m.Direction != DirLeft && m.Direction != DirRight {
			return false
		}
	case ActionDrop, ActionRotate, ActionLock:
		if m.Direction != "" {
			return false
		}
	default:
		return false
	}

	bs, err := ParseState(st.Aux)
	if err != nil || bs.FallingPiece == nil {
		return false
	}
	p := bs.FallingPiece
	shape, ok := Shape(p.Type, p.Rotation)
	if !ok {
		return false
	}

	switch m.Action {
	case ActionShift:
		dx := -1
		if m.Direction == DirRight {
			dx = 1
		}
		return CanPlace(st.Board, shape, p.X+dx, p.Y)
	case ActionRotate:
		rotated, _ := Shape(p.Type, p.Rotation+1)
		return CanPlace(st.Board, rotated, p.X, p.Y)
	default: // drop, lock act on the piece wherever it is
		return true
	}
}

func (g *Game) LegalMoves(st *game.State) []game.Move {
	if st == nil {
		return nil
	}
	var moves []game.Move
	for _, m := range []game.Move{
		{Kind: game.MovePiece, Action: ActionShift, Direction: DirLeft},
		{Kind: game.MovePiece, Action: ActionShift, Direction: DirRight},
		{Kind: game.MovePiece, Action: ActionRotate},
		{Kind: game.MovePiece, Action: ActionDrop},
		{Kind: game.MovePiece, Action: ActionLock},
	} {
		if g.IsLegal(m, st) {
			moves = append(moves, m)
		}
	}
	return moves
}

func (g *Game) MoveFromSelection(st *game.State, sel game.Selection) (game.Move, bool) {
	if sel.Action == "" {
		return game.Move{}, false
	}
	m := game.Move{Kind: game.MovePiece, Action: sel.Action}
	if sel.Action == ActionShift {
		m.Direction = sel.Direction
	}
	if !g.IsLegal(m, st) {
		return game.Move{}, false
	}
	return m, true
}
