package game

// MoveKind tags which payload fields of a Move are meaningful.
type MoveKind string

const (
	// MovePlace places a piece on a cell and rotates a quadrant
	// (rotation game).
	MovePlace MoveKind = "place"
	// MovePiece steers the current falling piece (falling-piece game).
	MovePiece MoveKind = "piece"
)

// Move is an immutable tagged record. Construct it once, via a rule module,
// and never mutate it afterwards.
type Move struct {
	Kind MoveKind

	// MovePlace payload.
	X        int
	Y        int
	Quadrant int

	// Shared: rotation direction for MovePlace, shift direction for
	// MovePiece.
	Direction string

	// MovePiece payload.
	Action string
}

// Selection is the transient UI input a move is built from. Pointer fields
// are nil while unchosen; a rule module returns no move until its required
// fields are all present.
type Selection struct {
	X        *int
	Y        *int
	Quadrant *int

	Direction string
	Action    string
}
