// Command client attaches to a live match on the game platform or replays a
// saved match record from disk.
//
//	client live <match-id>
//	client replay <record.json> [cursor]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"gamehall/internal/game"
	"gamehall/internal/game/pentago"
	"gamehall/internal/game/tetris"
	"gamehall/internal/platform/config"
	"gamehall/internal/replay"
	"gamehall/internal/script"
	"gamehall/internal/session"
)

type appConfig struct {
	ServerURL string `env:"GAMEHALL_SERVER_URL" envDefault:"ws://localhost:8000"`
	Token     string `env:"GAMEHALL_TOKEN"`
	Username  string `env:"GAMEHALL_USERNAME" envDefault:"guest"`
	// Extra rule modules as game-type:script-path pairs, e.g.
	// GAMEHALL_SCRIPTS=tictactoe:/etc/gamehall/tictactoe.lua
	Scripts map[string]string `env:"GAMEHALL_SCRIPTS"`
}

func main() {
	var cfg appConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("%v", err)
	}
	if len(os.Args) < 3 {
		config.Exitf("usage: client live <match-id> | client replay <record.json> [cursor]")
	}

	reg := game.NewRegistry()
	reg.Register("pentago", pentago.New())
	reg.Register("tetris", tetris.New())
	if err := registerScripts(reg, cfg.Scripts); err != nil {
		config.Exitf("%v", err)
	}

	switch os.Args[1] {
	case "live":
		runLive(cfg, reg, os.Args[2])
	case "replay":
		runReplay(reg, os.Args[2], os.Args[3:])
	default:
		config.Exitf("unknown command %q", os.Args[1])
	}
}

// registerScripts loads Lua rule modules from disk and registers them next to
// the built-in games.
func registerScripts(reg *game.Registry, scripts map[string]string) error {
	for name, path := range scripts {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("rule script %s: %w", name, err)
		}
		eng, err := script.New(string(src))
		if err != nil {
			return fmt.Errorf("rule script %s: %w", name, err)
		}
		reg.Register(name, eng)
	}
	return nil
}

func runLive(cfg appConfig, reg *game.Registry, matchID string) {
	done := make(chan struct{})
	handlers := session.Handlers{
		OnState: func(st game.State) {
			printState(st)
		},
		OnChat: func(msg session.ChatMessage) {
			fmt.Printf("[chat] %s: %s\n", msg.Name, msg.Text)
		},
		OnError: func(code, message string) {
			fmt.Printf("[server error] %s\n", message)
		},
		OnLeave: func(reason string) {
			fmt.Printf("leaving match: %s\n", reason)
			close(done)
		},
		OnClosed: func(err error) {
			if err != nil {
				fmt.Printf("connection lost: %v\n", err)
			}
			close(done)
		},
	}

	m := session.New(reg, endpoints(cfg.ServerURL), bearer(cfg.Token), account(cfg.Username), handlers)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Attach(ctx, matchID); err != nil {
		config.Exitf("attach: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-interrupt:
		m.Close()
		<-done
	case <-done:
	}
}

func runReplay(reg *game.Registry, path string, rest []string) {
	store := fileStore{}
	rec, err := store.Record(context.Background(), path)
	if err != nil {
		config.Exitf("load record: %v", err)
	}

	done := make(chan struct{})
	viewer, err := replay.NewViewer(reg, rec, func(view replay.View) {
		printView(view, rec.GameType)
		if view.Cursor >= view.Total {
			close(done)
		}
	})
	if err != nil {
		config.Exitf("%v", err)
	}
	defer viewer.Close()

	if len(rest) > 0 {
		cursor, err := strconv.Atoi(rest[0])
		if err != nil {
			config.Exitf("bad cursor %q", rest[0])
		}
		printView(viewer.Seek(cursor), rec.GameType)
		return
	}

	printView(viewer.View(), rec.GameType)
	if len(rec.Moves) == 0 {
		return
	}
	viewer.Play(700 * time.Millisecond)
	<-done
}

func printState(st game.State) {
	fmt.Printf("== %s  status=%s  turn=%d", st.GameType, st.Status, st.Current)
	if st.Winner != "" {
		fmt.Printf("  winner=%s", st.Winner)
	}
	fmt.Println()
	for _, p := range st.Players {
		fmt.Printf("  seat %d  %-16s %6.1fs\n", p.Slot, p.Name, p.Remaining)
	}
	fmt.Print(renderGrid(st.Board, st.GameType))
}

func printView(view replay.View, gameType string) {
	fmt.Printf("== move %d/%d  status=%s  turn=%d", view.Cursor, view.Total, view.Status, view.Current)
	if view.TimeSpent > 0 {
		fmt.Printf("  took=%.1fs", view.TimeSpent)
	}
	if view.Stale {
		fmt.Print("  (nearest snapshot)")
	}
	fmt.Println()
	fmt.Print(renderGrid(view.Board, gameType))
}

func renderGrid(g game.Grid, gameType string) string {
	if g == nil {
		return "  (no board)\n"
	}
	// The falling-piece game encodes empty cells as 0 on the wire; the
	// rotation game uses null, decoded to game.Empty.
	empty := game.Empty
	if gameType == "tetris" {
		empty = 0
	}
	var b strings.Builder
	for _, row := range g {
		b.WriteString("  ")
		for _, cell := range row {
			if cell == empty {
				b.WriteString(". ")
			} else {
				b.WriteString(strconv.Itoa(int(cell)) + " ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

type bearer string

func (b bearer) Token() string { return string(b) }

type endpoints string

func (e endpoints) SocketURL(matchID string) string {
	return strings.TrimRight(string(e), "/") + "/ws/" + matchID
}

type account string

func (a account) Username() string { return string(a) }

// fileStore loads match records from local JSON files, using the path as the
// record id.
type fileStore struct{}

func (fileStore) Record(_ context.Context, id string) (*replay.Record, error) {
	data, err := os.ReadFile(id)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var rec replay.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

var _ replay.Store = fileStore{}

func init() {
	log.SetFlags(log.Ltime)
}
