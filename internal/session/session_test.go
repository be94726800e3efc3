package session

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsDistinctIncrementingIDs(t *testing.T) {
	tbl := NewTable()
	a := tbl.Add(1, 4)
	b := tbl.Add(2, 4)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.ID+1, b.ID)
	assert.Equal(t, 2, tbl.Count())
}

func TestRemoveClosesBroadcastAndForgetsSession(t *testing.T) {
	tbl := NewTable()
	s := tbl.Add(1, 4)
	tbl.Remove(s.ID)

	assert.Nil(t, tbl.Get(s.ID))
	_, ok := <-s.Broadcast
	assert.False(t, ok, "broadcast channel should be closed")
	assert.Equal(t, 0, tbl.Count())
}

func TestSetAccountRecordsAllThreeFields(t *testing.T) {
	tbl := NewTable()
	s := tbl.Add(1, 4)
	u := uuid.New()
	tbl.SetAccount(s.ID, 7, u, 0x3)

	got := tbl.Get(s.ID)
	require.NotNil(t, got)
	assert.Equal(t, uint32(7), got.AccountIdx)
	assert.Equal(t, u, got.AcctUuid)
	assert.Equal(t, uint32(0x3), got.AcctFlags)
}

func TestSetAccountOnUnknownSessionIsNoop(t *testing.T) {
	tbl := NewTable()
	assert.NotPanics(t, func() {
		tbl.SetAccount(999, 1, uuid.New(), 0)
	})
}

func TestBindPlayerAndAgeNode(t *testing.T) {
	tbl := NewTable()
	s := tbl.Add(1, 4)
	p := &Player{Idx: 5, Name: "Relto Owner", AvatarShape: "male"}
	tbl.BindPlayer(s.ID, p)
	tbl.SetAgeNode(s.ID, 42)

	got := tbl.Get(s.ID)
	require.NotNil(t, got.Player)
	assert.Equal(t, "Relto Owner", got.Player.Name)
	assert.Equal(t, uint32(42), got.AgeNodeId)
}

func TestIsPlayerBoundElsewhereExcludesOwnSession(t *testing.T) {
	tbl := NewTable()
	s1 := tbl.Add(1, 4)
	s2 := tbl.Add(2, 4)
	tbl.BindPlayer(s1.ID, &Player{Idx: 9})

	assert.False(t, tbl.IsPlayerBoundElsewhere(9, s1.ID), "should not collide with itself")
	assert.True(t, tbl.IsPlayerBoundElsewhere(9, s2.ID), "should collide with a different session")
	assert.False(t, tbl.IsPlayerBoundElsewhere(123, s2.ID), "unbound player id should never collide")
}

func TestCloseAllClosesEverySessionAndEmptiesTable(t *testing.T) {
	tbl := NewTable()
	s1 := tbl.Add(1, 4)
	s2 := tbl.Add(2, 4)
	tbl.CloseAll()

	for _, s := range []*Session{s1, s2} {
		_, ok := <-s.Broadcast
		assert.False(t, ok)
	}
	assert.Equal(t, 0, tbl.Count())
}

func TestForEachVisitsEveryLiveSession(t *testing.T) {
	tbl := NewTable()
	tbl.Add(1, 4)
	tbl.Add(2, 4)

	visited := 0
	tbl.ForEach(func(s *Session) { visited++ })
	assert.Equal(t, 2, visited)
}
