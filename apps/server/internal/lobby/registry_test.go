package lobby

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belote-lite/apps/server/internal/codec"
	"belote-lite/belote"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	cfg := belote.DefaultConfig()
	cfg.Seed = 11
	reg := NewRegistry(cfg, nil)
	t.Cleanup(reg.Close)
	return reg
}

func discard(codec.View) {}

func TestGetRoomValidatesAndReuses(t *testing.T) {
	reg := newTestRegistry(t)

	for _, id := range []int{0, -1, 101} {
		_, err := reg.GetRoom(id)
		assert.ErrorIs(t, err, ErrInvalidRoomID, "id %d", id)
	}

	r1, err := reg.GetRoom(5)
	require.NoError(t, err)
	r2, err := reg.GetRoom(5)
	require.NoError(t, err)
	assert.Same(t, r1, r2)

	r100, err := reg.GetRoom(100)
	require.NoError(t, err)
	assert.Equal(t, 100, r100.ID)
}

func TestLobbyListPlaceholders(t *testing.T) {
	reg := newTestRegistry(t)

	list := reg.LobbyList("")
	require.Len(t, list, 3)
	for i, s := range list {
		assert.Equal(t, i+1, s.ID)
		assert.Equal(t, StatusEmpty, s.Status)
	}

	r2, err := reg.GetRoom(2)
	require.NoError(t, err)
	require.NoError(t, r2.Join(belote.JoinRequest{ConnID: "c1", PlayerID: "g:alice", Name: "Alice"}, discard))

	// An opened but empty room is not listed as occupied.
	_, err = reg.GetRoom(7)
	require.NoError(t, err)

	list = reg.LobbyList("g:bob")
	require.Len(t, list, 4)
	ids := []int{list[0].ID, list[1].ID, list[2].ID, list[3].ID}
	assert.Equal(t, []int{1, 2, 3, 4}, ids)
	assert.Equal(t, StatusWaiting, list[1].Status)
	assert.Equal(t, 1, list[1].PlayerCount)
	assert.Equal(t, "Alice", list[1].Players[0].Name)
}

func TestLobbyListRestrictedToViewersRoom(t *testing.T) {
	reg := newTestRegistry(t)

	r2, err := reg.GetRoom(2)
	require.NoError(t, err)
	require.NoError(t, r2.Join(belote.JoinRequest{ConnID: "c1", PlayerID: "g:alice", Name: "Alice"}, discard))
	r9, err := reg.GetRoom(9)
	require.NoError(t, err)
	require.NoError(t, r9.Join(belote.JoinRequest{ConnID: "c2", PlayerID: "g:bob", Name: "Bob"}, discard))
	require.NoError(t, r9.StartWithBots("c2"))

	list := reg.LobbyList("g:bob")
	require.Len(t, list, 1)
	assert.Equal(t, 9, list[0].ID)
	assert.Equal(t, StatusPlaying, list[0].Status)
	assert.Equal(t, 4, list[0].PlayerCount)
}

func TestOnChangeFiresAfterRoomUpdates(t *testing.T) {
	reg := newTestRegistry(t)
	changed := make(chan int, 8)
	reg.SetOnChange(func(id int) { changed <- id })

	r, err := reg.GetRoom(4)
	require.NoError(t, err)
	require.NoError(t, r.Join(belote.JoinRequest{ConnID: "c1", PlayerID: "g:alice", Name: "Alice"}, discard))

	select {
	case id := <-changed:
		assert.Equal(t, 4, id)
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestWatchdogStopsWithContext(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.GetRoom(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.RunWatchdog(ctx, 5*time.Millisecond)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watchdog did not stop")
	}
}
