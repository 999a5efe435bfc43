package archive_test

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/promptfall/promptfall/internal"
	"github.com/promptfall/promptfall/internal/archive"
	"github.com/promptfall/promptfall/internal/game"
)

var store *archive.Store

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(0)
	}

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	store, err = archive.New(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	store.Close()
	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func TestRoundArchive(t *testing.T) {
	ctx := context.Background()

	first := game.RoundRecord{
		RoomCode:    "AB23CD",
		RoomName:    "friday night",
		RoundNumber: 1,
		Challenge:   "Explain quantum physics using only food metaphors",
		Category:    "Educational",
		PlayedAt:    time.Now().UTC(),
		Results: []internal.RoundResult{
			{Rank: 1, PlayerId: "p1", PlayerName: "Ana", ResponseText: "it is all soup", VoteCount: 2, TotalScore: 2},
			{Rank: 2, PlayerId: "p2", PlayerName: "Ben", ResponseText: "schroedinger's toast", VoteCount: 0, TotalScore: 0},
		},
	}

	t.Run("RecordRound", func(t *testing.T) {
		require.NoError(t, store.RecordRound(ctx, first))

		second := first
		second.RoundNumber = 2
		second.Challenge = "Write a poem about debugging code at 3 AM"
		second.Category = "Programming"
		second.Results = []internal.RoundResult{
			{Rank: 1, PlayerId: "p2", PlayerName: "Ben", ResponseText: "an ode to printf", VoteCount: 1, TotalScore: 1},
			{Rank: 2, PlayerId: "p1", PlayerName: "Ana", ResponseText: "stack trace haiku", VoteCount: 1, TotalScore: 3},
		}
		require.NoError(t, store.RecordRound(ctx, second))
	})

	t.Run("RecordRound_NoResults", func(t *testing.T) {
		assert.NoError(t, store.RecordRound(ctx, game.RoundRecord{RoomCode: "EMPTY2"}))
	})

	t.Run("RoundsForRoom", func(t *testing.T) {
		rounds, err := store.RoundsForRoom(ctx, "AB23CD")
		require.NoError(t, err)
		require.Len(t, rounds, 2)

		assert.Equal(t, 1, rounds[0].RoundNumber)
		assert.Equal(t, first.Challenge, rounds[0].Challenge)
		assert.Equal(t, "Educational", rounds[0].Category)
		require.Len(t, rounds[0].Results, 2)
		assert.Equal(t, "Ana", rounds[0].Results[0].PlayerName)
		assert.Equal(t, 2, rounds[0].Results[0].VoteCount)
		assert.Equal(t, "it is all soup", rounds[0].Results[0].ResponseText)

		assert.Equal(t, 2, rounds[1].RoundNumber)
		require.Len(t, rounds[1].Results, 2)
		assert.Equal(t, "Ben", rounds[1].Results[0].PlayerName)
		assert.Equal(t, 3, rounds[1].Results[1].TotalScore)
	})

	t.Run("RoundsForRoom_UnknownRoom", func(t *testing.T) {
		rounds, err := store.RoundsForRoom(ctx, "ZZZZZZ")
		require.NoError(t, err)
		assert.Empty(t, rounds)
	})
}
