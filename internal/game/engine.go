package game

// Engine is the capability set a game contributes to the shared
// session/board/move pipeline. Implementations are pure: they never perform
// I/O and never mutate the state they are given.
type Engine interface {
	// InitialBoard returns the empty starting board. Deterministic.
	InitialBoard() Grid

	// IsLegal reports whether the move may be submitted from the given
	// state. A kind mismatch, an out-of-bounds coordinate, an occupied
	// target cell or any value outside the game's fixed enums is illegal.
	IsLegal(m Move, st *State) bool

	// LegalMoves enumerates every legal move from the state. Used for
	// tooling and debugging; the result is bounded and a full board
	// yields an empty slice.
	LegalMoves(st *State) []Move

	// MoveFromSelection translates a transient UI selection into a move.
	// It returns ok=false, without error, while the selection is
	// incomplete.
	MoveFromSelection(st *State, sel Selection) (Move, bool)
}
