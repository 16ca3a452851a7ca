package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellJSONNull(t *testing.T) {
	var g Grid
	require.NoError(t, json.Unmarshal([]byte(`[[null,0],[2,null]]`), &g))
	assert.Equal(t, Grid{{Empty, 0}, {2, Empty}}, g)

	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `[[null,0],[2,null]]`, string(out))
}

func TestGridClone(t *testing.T) {
	g := NewGrid(3, 2, Empty)
	g[1][2] = 1

	c := g.Clone()
	c[1][2] = 0
	c[0][0] = 7

	assert.Equal(t, Cell(1), g[1][2])
	assert.Equal(t, Empty, g[0][0])
}

func TestGridIn(t *testing.T) {
	g := NewGrid(4, 3, Empty)
	assert.True(t, g.In(0, 0))
	assert.True(t, g.In(3, 2))
	assert.False(t, g.In(4, 0))
	assert.False(t, g.In(0, 3))
	assert.False(t, g.In(-1, 0))
	assert.False(t, Grid(nil).In(0, 0))
}

func TestStateSlotOf(t *testing.T) {
	st := State{Players: []Participant{
		{Slot: 0, Name: "alice"},
		{Slot: 1, Name: "bob"},
	}}
	assert.Equal(t, 1, st.SlotOf("bob"))
	assert.Equal(t, NoPlayer, st.SlotOf("carol"))
	assert.Equal(t, NoPlayer, st.SlotOf(""))
}

func TestStateCloneIsolation(t *testing.T) {
	st := State{
		Board:      NewGrid(2, 2, Empty),
		Players:    []Participant{{Slot: 0, Name: "alice"}},
		ResetVotes: []int{0},
	}
	c := st.Clone()
	c.Board[0][0] = 1
	c.Players[0].Name = "mallory"
	c.ResetVotes[0] = 1

	assert.Equal(t, Empty, st.Board[0][0])
	assert.Equal(t, "alice", st.Players[0].Name)
	assert.Equal(t, 0, st.ResetVotes[0])
}
