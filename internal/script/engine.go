// Package script adapts Lua-scripted rule modules into the game.Engine
// contract, so additional games can be registered without recompiling. A
// script exports four global functions:
//
//	initial_board()            -> board table (rows of cell numbers, -1 empty)
//	is_legal(move, state)      -> boolean
//	legal_moves(state)         -> array of move tables
//	build_move(state, sel)     -> move table or nil
//
// Moves and selections cross the boundary as flat tables with the fields
// kind, x, y, quadrant, direction and action.
package script

import (
	"fmt"
	"log"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"gamehall/internal/game"
)

var required = []string{"initial_board", "is_legal", "legal_moves", "build_move"}

// Engine runs one Lua rule module. A Lua state is single-threaded, so every
// call is serialized behind a mutex.
type Engine struct {
	mu sync.Mutex
	l  *lua.LState
}

// New compiles and runs the script, then checks the exported functions.
func New(source string) (*Engine, error) {
	l := lua.NewState()
	if err := l.DoString(source); err != nil {
		l.Close()
		return nil, fmt.Errorf("load rule script: %w", err)
	}
	for _, name := range required {
		if _, ok := l.GetGlobal(name).(*lua.LFunction); !ok {
			l.Close()
			return nil, fmt.Errorf("rule script: missing function %q", name)
		}
	}
	return &Engine{l: l}, nil
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.l.Close()
}

func (e *Engine) InitialBoard() game.Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	ret, err := e.call("initial_board")
	if err != nil {
		log.Printf("script: initial_board: %v", err)
		return nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil
	}
	return tableToGrid(tbl)
}

func (e *Engine) IsLegal(m game.Move, st *game.State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	ret, err := e.call("is_legal", moveToTable(e.l, m), stateToTable(e.l, st))
	if err != nil {
		log.Printf("script: is_legal: %v", err)
		return false
	}
	return lua.LVAsBool(ret)
}

func (e *Engine) LegalMoves(st *game.State) []game.Move {
	e.mu.Lock()
	defer e.mu.Unlock()
	ret, err := e.call("legal_moves", stateToTable(e.l, st))
	if err != nil {
		log.Printf("script: legal_moves: %v", err)
		return nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil
	}
	var moves []game.Move
	tbl.ForEach(func(_, v lua.LValue) {
		if mt, ok := v.(*lua.LTable); ok {
			moves = append(moves, tableToMove(mt))
		}
	})
	return moves
}

func (e *Engine) MoveFromSelection(st *game.State, sel game.Selection) (game.Move, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ret, err := e.call("build_move", stateToTable(e.l, st), selectionToTable(e.l, sel))
	if err != nil {
		log.Printf("script: build_move: %v", err)
		return game.Move{}, false
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return game.Move{}, false
	}
	return tableToMove(tbl), true
}

func (e *Engine) call(name string, args ...lua.LValue) (lua.LValue, error) {
	fn := e.l.GetGlobal(name)
	if err := e.l.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, err
	}
	ret := e.l.Get(-1)
	e.l.Pop(1)
	return ret, nil
}

func moveToTable(l *lua.LState, m game.Move) *lua.LTable {
	t := l.NewTable()
	t.RawSetString("kind", lua.LString(m.Kind))
	t.RawSetString("x", lua.LNumber(m.X))
	t.RawSetString("y", lua.LNumber(m.Y))
	t.RawSetString("quadrant", lua.LNumber(m.Quadrant))
	t.RawSetString("direction", lua.LString(m.Direction))
	t.RawSetString("action", lua.LString(m.Action))
	return t
}

func tableToMove(t *lua.LTable) game.Move {
	m := game.Move{
		Kind:      game.MoveKind(lua.LVAsString(t.RawGetString("kind"))),
		Direction: lua.LVAsString(t.RawGetString("direction")),
		Action:    lua.LVAsString(t.RawGetString("action")),
	}
	m.X = int(lua.LVAsNumber(t.RawGetString("x")))
	m.Y = int(lua.LVAsNumber(t.RawGetString("y")))
	m.Quadrant = int(lua.LVAsNumber(t.RawGetString("quadrant")))
	return m
}

func selectionToTable(l *lua.LState, sel game.Selection) *lua.LTable {
	t := l.NewTable()
	if sel.X != nil {
		t.RawSetString("x", lua.LNumber(*sel.X))
	}
	if sel.Y != nil {
		t.RawSetString("y", lua.LNumber(*sel.Y))
	}
	if sel.Quadrant != nil {
		t.RawSetString("quadrant", lua.LNumber(*sel.Quadrant))
	}
	if sel.Direction != "" {
		t.RawSetString("direction", lua.LString(sel.Direction))
	}
	if sel.Action != "" {
		t.RawSetString("action", lua.LString(sel.Action))
	}
	return t
}

func stateToTable(l *lua.LState, st *game.State) *lua.LTable {
	t := l.NewTable()
	if st == nil {
		return t
	}
	t.RawSetString("game_type", lua.LString(st.GameType))
	t.RawSetString("status", lua.LString(st.Status))
	t.RawSetString("current", lua.LNumber(st.Current))
	t.RawSetString("board", gridToTable(l, st.Board))
	return t
}

func gridToTable(l *lua.LState, g game.Grid) *lua.LTable {
	t := l.NewTable()
	for _, row := range g {
		rt := l.NewTable()
		for _, cell := range row {
			rt.Append(lua.LNumber(cell))
		}
		t.Append(rt)
	}
	return t
}

func tableToGrid(t *lua.LTable) game.Grid {
	var g game.Grid
	t.ForEach(func(_, v lua.LValue) {
		rt, ok := v.(*lua.LTable)
		if !ok {
			return
		}
		var row []game.Cell
		rt.ForEach(func(_, cv lua.LValue) {
			row = append(row, game.Cell(lua.LVAsNumber(cv)))
		})
		g = append(g, row)
	})
	return g
}
