package game

import "encoding/json"

// Status is the server-driven match status. The client never invents new
// values; transitions arrive in snapshot frames.
type Status string

const (
	StatusWaiting        Status = "waiting"
	StatusFirstMove      Status = "first_move"
	StatusPlaying        Status = "playing"
	StatusDisconnectWait Status = "disconnect_wait"
	StatusFinished       Status = "finished"
	StatusAbandoned      Status = "abandoned"
)

// Participant is one seat in a match. Slot identifies the seat, not the
// account behind it.
type Participant struct {
	Slot      int
	ID        string
	Name      string
	Color     string
	Remaining float64
}

// NoPlayer marks slot fields that reference no participant.
const NoPlayer = -1

// State is the renderable slice of a live match. It is replaced wholesale by
// each inbound snapshot frame; nothing merges field-by-field.
type State struct {
	SessionID string
	GameType  string
	Status    Status

	Board Grid
	// Aux carries the game-specific board document verbatim (the
	// falling-piece game keeps its piece queue, scores and falling piece
	// here). Rule modules decode it as needed.
	Aux json.RawMessage

	Players []Participant
	Current int
	Winner  string

	ResetVotes []int

	FirstMoveTimer  float64
	FirstMovePlayer int

	DisconnectTimer    float64
	DisconnectedPlayer int
}

// SlotOf resolves a display name to a participant slot, or NoPlayer. The
// local seat is a lookup, never a stored reference.
func (s *State) SlotOf(name string) int {
	if name == "" {
		return NoPlayer
	}
	for _, p := range s.Players {
		if p.Name == name {
			return p.Slot
		}
	}
	return NoPlayer
}

// Clone returns a copy safe to hand to another goroutine.
func (s *State) Clone() State {
	out := *s
	out.Board = s.Board.Clone()
	out.Aux = append(json.RawMessage(nil), s.Aux...)
	out.Players = append([]Participant(nil), s.Players...)
	out.ResetVotes = append([]int(nil), s.ResetVotes...)
	return out
}
