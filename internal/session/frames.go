package session

import (
	"encoding/json"

	"gamehall/internal/game"
)

// ChatMessage is one entry in the ordered chat log.
type ChatMessage struct {
	Player int    `json:"player_id"`
	Name   string `json:"username,omitempty"`
	Text   string `json:"message"`
	Time   string `json:"timestamp,omitempty"`
}

// frame is the inbound message envelope. Which fields are populated depends
// on Type; Chat stays raw because state frames carry a history array while
// chat frames carry a single message.
type frame struct {
	Type string `json:"type"`

	// state
	Board              json.RawMessage `json:"board,omitempty"`
	BoardState         json.RawMessage `json:"board_state,omitempty"`
	GameType           string          `json:"game_type,omitempty"`
	Players            []framePlayer   `json:"players,omitempty"`
	Status             string          `json:"status,omitempty"`
	CurrentPlayer      int             `json:"current_player"`
	ResetVotes         []int           `json:"reset_votes,omitempty"`
	Winner             *string         `json:"winner,omitempty"`
	FirstMoveTimer     float64         `json:"first_move_timer,omitempty"`
	FirstMovePlayer    *int            `json:"first_move_player,omitempty"`
	DisconnectTimer    float64         `json:"disconnect_timer,omitempty"`
	DisconnectedPlayer *int            `json:"disconnected_player,omitempty"`

	// state (history) or chat (single message)
	Chat json.RawMessage `json:"chat,omitempty"`

	// error
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

type framePlayer struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Remaining float64 `json:"remaining"`
}

// Outbound command envelopes. Commands are only meaningful against a live
// authoritative server, so there is no offline form of any of these.
type placeEnvelope struct {
	Type      string `json:"type"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Quadrant  int    `json:"quadrant"`
	Direction string `json:"direction"`
}

type pieceEnvelope struct {
	Type      string `json:"type"`
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`
}

type resetEnvelope struct {
	Type string `json:"type"`
}

type chatEnvelope struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func moveEnvelope(m game.Move) (any, bool) {
	switch m.Kind {
	case game.MovePlace:
		return placeEnvelope{Type: "move", X: m.X, Y: m.Y, Quadrant: m.Quadrant, Direction: m.Direction}, true
	case game.MovePiece:
		return pieceEnvelope{Type: "move", Action: m.Action, Direction: m.Direction}, true
	}
	return nil, false
}
