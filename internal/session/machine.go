// Package session owns the live connection to the match server. A machine
// receives snapshot and event frames on a single ordered dispatch path,
// exposes the normalized renderable state, and transmits command envelopes
// while live. Reconnecting after a drop is a deliberate new Attach, never an
// automatic retry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"gamehall/internal/game"
)

// Status is the machine's connection lifecycle state, distinct from the
// server-driven match status carried inside snapshots.
type Status int

const (
	Idle Status = iota
	Connecting
	Live
	Closed
	Errored
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Live:
		return "live"
	case Closed:
		return "closed"
	case Errored:
		return "errored"
	}
	return "unknown"
}

var (
	// ErrNotLive marks a command dropped because the connection is not
	// live. Commands are never queued for later.
	ErrNotLive = errors.New("session: connection not live")
	// ErrAttached marks an attach attempt while a different match is
	// pending or live.
	ErrAttached = errors.New("session: already attached")
	// ErrIllegalMove marks a move rejected by the local rule module
	// before any transmission.
	ErrIllegalMove = errors.New("session: illegal move")
	// ErrUnsupportedGame marks a game type with no registered engine.
	ErrUnsupportedGame = errors.New("session: unsupported game type")
)

const pingInterval = 15 * time.Second

// Handlers receive machine events. All handlers are invoked from the single
// dispatch goroutine, in frame receipt order. Nil handlers are skipped.
type Handlers struct {
	OnState  func(game.State)
	OnChat   func(ChatMessage)
	OnError  func(code, message string)
	OnLeave  func(reason string) // forced navigation away from the match
	OnClosed func(err error)     // nil err for a graceful close
}

type Machine struct {
	reg       *game.Registry
	endpoints Endpoints
	tokens    TokenProvider
	identity  Identity
	handlers  Handlers
	dial      Dialer

	id string // connection id, for logs

	mu      sync.Mutex
	status  Status
	matchID string
	conn    Conn
	cancel  context.CancelFunc
	send    chan []byte
	st      game.State
	chat    []ChatMessage
}

// Option adjusts machine construction.
type Option func(*Machine)

// WithDialer substitutes the transport dialer. Tests use this to inject a
// scripted connection.
func WithDialer(d Dialer) Option {
	return func(m *Machine) { m.dial = d }
}

func New(reg *game.Registry, endpoints Endpoints, tokens TokenProvider, identity Identity, h Handlers, opts ...Option) *Machine {
	m := &Machine{
		reg:       reg,
		endpoints: endpoints,
		tokens:    tokens,
		identity:  identity,
		handlers:  h,
		dial:      DialWebsocket,
		id:        randID(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach connects the machine to a match. Attaching while a connection to
// the same match is pending or live is a no-op; attaching to a different
// match fails with ErrAttached. One match id, at most one live connection.
func (m *Machine) Attach(ctx context.Context, matchID string) error {
	m.mu.Lock()
	if m.status == Connecting || m.status == Live {
		same := m.matchID == matchID
		m.mu.Unlock()
		if same {
			return nil
		}
		return fmt.Errorf("%w to match %s", ErrAttached, m.matchID)
	}
	m.status = Connecting
	m.matchID = matchID
	m.mu.Unlock()

	header := http.Header{}
	if m.tokens != nil {
		if tok := m.tokens.Token(); tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	conn, err := m.dial(ctx, m.endpoints.SocketURL(matchID), header)
	if err != nil {
		m.mu.Lock()
		if m.status == Connecting {
			m.status = Errored
		}
		m.mu.Unlock()
		return fmt.Errorf("attach match %s: %w", matchID, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	if m.status != Connecting {
		// Close won the race while the dial was in flight. The teardown
		// sticks; the late connection is released, never installed.
		status := m.status
		m.mu.Unlock()
		cancel()
		_ = conn.Close("bye")
		return fmt.Errorf("attach match %s: session %s during dial", matchID, status)
	}
	m.conn = conn
	m.cancel = cancel
	m.send = make(chan []byte, 64)
	m.status = Live
	m.st = game.State{SessionID: matchID, FirstMovePlayer: game.NoPlayer, DisconnectedPlayer: game.NoPlayer}
	m.chat = nil
	send := m.send
	m.mu.Unlock()

	go m.writeLoop(runCtx, conn, send)
	go m.readLoop(runCtx, conn)
	log.Printf("session %s attached to match %s", m.id, matchID)
	return nil
}

// readLoop funnels every inbound frame through dispatch, preserving receipt
// order. All session state mutation happens here.
func (m *Machine) readLoop(ctx context.Context, conn Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			m.readFailed(err)
			return
		}
		m.dispatch(data)
	}
}

func (m *Machine) readFailed(err error) {
	m.mu.Lock()
	if m.status == Closed {
		// Deliberate local close; Close already settled everything.
		m.mu.Unlock()
		return
	}
	graceful := isNormalClose(err)
	if graceful {
		m.status = Closed
		err = nil
	} else {
		m.status = Errored
	}
	// Disconnected display placeholder: drop the board, keep the session
	// identity so a later reconnect can target the same match.
	m.st.Board = nil
	m.st.Aux = nil
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err != nil {
		log.Printf("session %s: connection lost: %v", m.id, err)
	} else {
		log.Printf("session %s: connection closed", m.id)
	}
	if m.handlers.OnClosed != nil {
		m.handlers.OnClosed(err)
	}
}

func (m *Machine) writeLoop(ctx context.Context, conn Conn, send <-chan []byte) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-send:
			if err := conn.Write(ctx, data); err != nil {
				log.Printf("session %s: write failed: %v", m.id, err)
				return
			}
		case <-ping.C:
			_ = conn.Ping(ctx)
		}
	}
}

func (m *Machine) dispatch(data []byte) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("session %s: bad frame: %v", m.id, err)
		return
	}
	switch f.Type {
	case "state":
		m.applyState(&f)
	case "chat":
		var cm ChatMessage
		if err := json.Unmarshal(f.Chat, &cm); err != nil {
			log.Printf("session %s: bad chat frame: %v", m.id, err)
			return
		}
		m.mu.Lock()
		m.chat = append(m.chat, cm)
		m.mu.Unlock()
		if m.handlers.OnChat != nil {
			m.handlers.OnChat(cm)
		}
	case "error":
		if f.Message == "room full" {
			// Short-circuits normal error display: leave at once.
			log.Printf("session %s: match %s is full", m.id, m.MatchID())
			m.Close()
			if m.handlers.OnLeave != nil {
				m.handlers.OnLeave(f.Message)
			}
			return
		}
		if m.handlers.OnError != nil {
			m.handlers.OnError(f.Code, f.Message)
		}
	default:
		log.Printf("session %s: unknown frame type %q", m.id, f.Type)
	}
}

// applyState replaces the whole renderable slice with the snapshot. The
// server is the sole source of truth; nothing merges with the previous
// state. Pending move selections live in the UI layer, so a snapshot never
// touches them.
func (m *Machine) applyState(f *frame) {
	st := game.State{
		SessionID:          m.MatchID(),
		GameType:           f.GameType,
		Status:             game.Status(f.Status),
		Aux:                f.BoardState,
		Current:            f.CurrentPlayer,
		ResetVotes:         f.ResetVotes,
		FirstMoveTimer:     f.FirstMoveTimer,
		FirstMovePlayer:    game.NoPlayer,
		DisconnectTimer:    f.DisconnectTimer,
		DisconnectedPlayer: game.NoPlayer,
	}
	if f.Winner != nil {
		st.Winner = *f.Winner
	}
	if f.FirstMovePlayer != nil {
		st.FirstMovePlayer = *f.FirstMovePlayer
	}
	if f.DisconnectedPlayer != nil {
		st.DisconnectedPlayer = *f.DisconnectedPlayer
	}
	for i, p := range f.Players {
		st.Players = append(st.Players, game.Participant{
			Slot:      i,
			ID:        p.ID,
			Name:      p.Name,
			Color:     p.Color,
			Remaining: p.Remaining,
		})
	}

	if len(f.Board) > 0 {
		if err := json.Unmarshal(f.Board, &st.Board); err != nil {
			log.Printf("session %s: bad board in state frame: %v", m.id, err)
		}
	} else if len(f.BoardState) > 0 {
		var doc struct {
			Grid game.Grid `json:"grid"`
		}
		if err := json.Unmarshal(f.BoardState, &doc); err == nil {
			st.Board = doc.Grid
		}
	}

	m.mu.Lock()
	if m.status != Live {
		// A frame racing a local Close must not restore state onto a
		// torn-down machine.
		m.mu.Unlock()
		return
	}
	m.st = st
	if len(f.Chat) > 0 {
		var history []ChatMessage
		if err := json.Unmarshal(f.Chat, &history); err == nil {
			m.chat = history
		}
	}
	m.mu.Unlock()

	if m.handlers.OnState != nil {
		m.handlers.OnState(st.Clone())
	}
}

// SubmitMove validates the move against the registered rule module and, if
// legal, transmits it. Local rejections never reach the wire.
func (m *Machine) SubmitMove(mv game.Move) error {
	eng, st := m.engineState()
	if eng == nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedGame, st.GameType)
	}
	if !eng.IsLegal(mv, &st) {
		return ErrIllegalMove
	}
	return m.SendMove(mv)
}

// SendMove transmits a move envelope without local validation.
func (m *Machine) SendMove(mv game.Move) error {
	env, ok := moveEnvelope(mv)
	if !ok {
		return fmt.Errorf("session: unknown move kind %q", mv.Kind)
	}
	return m.enqueue("move", env)
}

// SendReset transmits a reset vote.
func (m *Machine) SendReset() error {
	return m.enqueue("reset", resetEnvelope{Type: "reset"})
}

// SendChat transmits a chat message.
func (m *Machine) SendChat(text string) error {
	return m.enqueue("chat", chatEnvelope{Type: "chat", Text: text})
}

func (m *Machine) enqueue(kind string, env any) error {
	m.mu.Lock()
	if m.status != Live {
		status := m.status
		m.mu.Unlock()
		log.Printf("session %s: dropping %s send, connection is %s", m.id, kind, status)
		return ErrNotLive
	}
	send := m.send
	m.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	select {
	case send <- data:
	default:
		log.Printf("session %s: send buffer full, dropping %s", m.id, kind)
	}
	return nil
}

// Close tears the connection down. Closing an already-closed machine is a
// no-op.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.status == Closed {
		m.mu.Unlock()
		return
	}
	m.status = Closed
	m.st.Board = nil
	m.st.Aux = nil
	conn, cancel := m.conn, m.cancel
	m.conn = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close("bye")
	}
	log.Printf("session %s closed", m.id)
}

// Status reports the connection lifecycle state.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// MatchID reports the attached match, which survives a disconnect.
func (m *Machine) MatchID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchID
}

// State returns a copy of the current renderable state.
func (m *Machine) State() game.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.Clone()
}

// Chat returns a copy of the ordered chat log. Truncation is the UI's
// concern.
func (m *Machine) Chat() []ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatMessage(nil), m.chat...)
}

// Engine resolves the rule module for the current game type, or nil when
// the type is unsupported.
func (m *Machine) Engine() game.Engine {
	m.mu.Lock()
	gameType := m.st.GameType
	m.mu.Unlock()
	return m.reg.Lookup(gameType)
}

// LocalSlot derives the local participant's seat by display-name match, or
// game.NoPlayer for a spectator.
func (m *Machine) LocalSlot() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return game.NoPlayer
	}
	return m.st.SlotOf(m.identity.Username())
}

func (m *Machine) engineState() (game.Engine, game.State) {
	m.mu.Lock()
	st := m.st.Clone()
	m.mu.Unlock()
	return m.reg.Lookup(st.GameType), st
}
