package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belote-lite/belote"
)

func newStores(t *testing.T) map[string]Service {
	t.Helper()
	sqliteService, err := NewSQLiteService(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteService.Close() })
	return map[string]Service{
		"memory": NewMemoryService(),
		"sqlite": sqliteService,
	}
}

func TestRecordGameAndHistory(t *testing.T) {
	ctx := context.Background()
	for name, svc := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			scores := belote.Scores{Team1: 512, Team2: 344}
			require.NoError(t, svc.CreateGame(ctx, "game-1", scores, belote.Team1))
			require.NoError(t, svc.AddParticipant(ctx, "game-1", "u:7", belote.Team1, 100, 16))
			require.NoError(t, svc.UpdateRating(ctx, "u:7", 116))
			require.NoError(t, svc.AddParticipant(ctx, "game-1", "u:8", belote.Team2, 100, -16))
			require.NoError(t, svc.UpdateRating(ctx, "u:8", 84))

			rating, ok, err := svc.Rating(ctx, 7)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 116, rating)

			_, ok, err = svc.Rating(ctx, 99)
			require.NoError(t, err)
			assert.False(t, ok)

			items, err := svc.RecentGames(ctx, 8, 0)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, "game-1", items[0].GameID)
			assert.Equal(t, scores, items[0].Scores)
			assert.Equal(t, belote.Team2, items[0].MyTeam)
			assert.False(t, items[0].Won)
			assert.Equal(t, -16, items[0].RatingChange)
		})
	}
}

func TestRecentGamesNewestFirstAndLimited(t *testing.T) {
	ctx := context.Background()
	for name, svc := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 7; i++ {
				id := fmt.Sprintf("game-%d", i)
				require.NoError(t, svc.CreateGame(ctx, id, belote.Scores{Team1: 501, Team2: i}, belote.Team1))
				require.NoError(t, svc.AddParticipant(ctx, id, "u:1", belote.Team1, 100+i, 10))
			}

			items, err := svc.RecentGames(ctx, 1, 0)
			require.NoError(t, err)
			require.Len(t, items, defaultRecentLimit)
			assert.Equal(t, "game-7", items[0].GameID)
			assert.True(t, items[0].Won)

			items, err = svc.RecentGames(ctx, 1, 2)
			require.NoError(t, err)
			assert.Len(t, items, 2)
		})
	}
}

func TestRecorderRejectsGuestsAndDuplicates(t *testing.T) {
	ctx := context.Background()
	for name, svc := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, svc.CreateGame(ctx, "game-1", belote.Scores{}, belote.Team2))
			assert.True(t, errors.Is(svc.CreateGame(ctx, "game-1", belote.Scores{}, belote.Team2), ErrDuplicateGame))
			assert.True(t, errors.Is(svc.AddParticipant(ctx, "game-1", "g:guest", belote.Team1, 100, 0), ErrUnratedPlayer))
			assert.True(t, errors.Is(svc.UpdateRating(ctx, "bot_1", 100), ErrUnratedPlayer))
			assert.True(t, errors.Is(svc.AddParticipant(ctx, "missing", "u:1", belote.Team1, 100, 0), ErrUnknownGame))
		})
	}
}
