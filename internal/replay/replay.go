// Package replay rebuilds historical board states from a persisted match
// record, move by move. It never touches a live connection: every displayed
// state is a pure derivation of the record and an integer cursor.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gamehall/internal/game"
)

// Player is one seat of a persisted match.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Move is one historical move. BoardAfter holds the full board document
// persisted after the move; older records may lack it.
type Move struct {
	Seq        int             `json:"move_number"`
	Player     int             `json:"player_id"`
	Data       json.RawMessage `json:"move_data"`
	BoardAfter json.RawMessage `json:"board_state_after,omitempty"`
	Timestamp  string          `json:"timestamp,omitempty"`
	TimeSpent  float64         `json:"time_spent,omitempty"`
}

// Record is a persisted match as consumed by the viewer. Moves are densely
// ordered from zero.
type Record struct {
	ID            string   `json:"id"`
	GameType      string   `json:"game_type"`
	Players       []Player `json:"players"`
	CurrentPlayer int      `json:"current_player"`
	Winner        *string  `json:"winner,omitempty"`
	Moves         []Move   `json:"moves"`
}

// Store fetches persisted match records; implementations are external
// collaborators (authenticated HTTP service, local files in the CLI).
type Store interface {
	Record(ctx context.Context, id string) (*Record, error)
}

// Library lists and saves match records. Consumed by listing UIs; defined
// here as the contract only.
type Library interface {
	List(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, rec *Record) error
}

// View is the displayed state at a cursor. Cursor 0 is the initial board;
// cursor Total is after the last move.
type View struct {
	Board   game.Grid
	Aux     json.RawMessage
	Current int
	Status  game.Status
	Cursor  int
	Total   int
	// TimeSpent is the seconds the mover took over the move just applied
	// (move cursor-1); zero at the initial board.
	TimeSpent float64
	// Stale is set when the move at the cursor had no persisted snapshot
	// and the nearest earlier one is shown instead.
	Stale bool
}

// Viewer walks a record with a movable cursor and an optional auto-play
// timer. The timer mutates only the cursor; boards are recomputed from it,
// so no partial state is ever observable.
type Viewer struct {
	rec *Record
	eng game.Engine

	onChange func(View)

	mu     sync.Mutex
	cursor int
	pause  context.CancelFunc
}

// NewViewer resolves the record's game type through the registry. An
// unregistered type yields an error the caller renders as "not supported".
func NewViewer(reg *game.Registry, rec *Record, onChange func(View)) (*Viewer, error) {
	eng := reg.Lookup(rec.GameType)
	if eng == nil {
		return nil, fmt.Errorf("replay match %s: game type %q not supported", rec.ID, rec.GameType)
	}
	return &Viewer{rec: rec, eng: eng, onChange: onChange}, nil
}

// View returns the state at the current cursor.
func (v *Viewer) View() View {
	v.mu.Lock()
	c := v.cursor
	v.mu.Unlock()
	return v.at(c)
}

// Seek jumps to an arbitrary cursor, clamped to [0, move count].
func (v *Viewer) Seek(c int) View {
	v.mu.Lock()
	v.cursor = clamp(c, len(v.rec.Moves))
	c = v.cursor
	v.mu.Unlock()
	return v.at(c)
}

// Next steps the cursor forward by one, clamped.
func (v *Viewer) Next() View {
	v.mu.Lock()
	v.cursor = clamp(v.cursor+1, len(v.rec.Moves))
	c := v.cursor
	v.mu.Unlock()
	return v.at(c)
}

// Prev steps the cursor back by one, clamped.
func (v *Viewer) Prev() View {
	v.mu.Lock()
	v.cursor = clamp(v.cursor-1, len(v.rec.Moves))
	c := v.cursor
	v.mu.Unlock()
	return v.at(c)
}

// Play advances the cursor on a fixed interval until it reaches the end or
// Pause is called. Each step is reported through the onChange callback.
// Calling Play while already playing is a no-op.
func (v *Viewer) Play(interval time.Duration) {
	v.mu.Lock()
	if v.pause != nil {
		v.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.pause = cancel
	v.mu.Unlock()

	go func() {
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				view := v.Next()
				if v.onChange != nil {
					v.onChange(view)
				}
				if view.Cursor >= view.Total {
					v.Pause()
					return
				}
			}
		}
	}()
}

// Pause stops auto-play. Pausing an idle viewer is a no-op.
func (v *Viewer) Pause() {
	v.mu.Lock()
	pause := v.pause
	v.pause = nil
	v.mu.Unlock()
	if pause != nil {
		pause()
	}
}

// Close cancels any pending auto-play timer. Call on unmount.
func (v *Viewer) Close() {
	v.Pause()
}

func (v *Viewer) at(c int) View {
	total := len(v.rec.Moves)
	view := View{Cursor: c, Total: total, Status: game.StatusPlaying}

	if c == 0 {
		view.Board = v.eng.InitialBoard()
	} else {
		view.TimeSpent = v.rec.Moves[c-1].TimeSpent
		// Use the snapshot persisted after move c-1. When it is
		// missing the viewer cannot re-derive the board without
		// duplicating game rules, so it falls back to the nearest
		// earlier snapshot and flags the view as stale.
		for i := c - 1; i >= 0; i-- {
			if len(v.rec.Moves[i].BoardAfter) == 0 {
				continue
			}
			view.Board, view.Aux = decodeSnapshot(v.rec.Moves[i].BoardAfter)
			view.Stale = i != c-1
			break
		}
		if view.Board == nil {
			view.Board = v.eng.InitialBoard()
			view.Stale = true
		}
	}

	switch {
	case c < total:
		// About-to-act semantics: the mover of move c is on turn.
		view.Current = v.rec.Moves[c].Player
	case total > 0:
		view.Current = (v.rec.Moves[total-1].Player + 1) % max(len(v.rec.Players), 1)
	default:
		view.Current = v.rec.CurrentPlayer
	}

	if c >= total && total > 0 {
		view.Status = game.StatusFinished
	}
	return view
}

// decodeSnapshot accepts either a full board document carrying a grid field
// or a bare grid.
func decodeSnapshot(raw json.RawMessage) (game.Grid, json.RawMessage) {
	var doc struct {
		Grid game.Grid `json:"grid"`
	}
	if err := json.Unmarshal(raw, &doc); err == nil && doc.Grid != nil {
		return doc.Grid, raw
	}
	var grid game.Grid
	if err := json.Unmarshal(raw, &grid); err == nil {
		return grid, nil
	}
	return nil, nil
}

func clamp(c, total int) int {
	if c < 0 {
		return 0
	}
	if c > total {
		return total
	}
	return c
}
