package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptfall/promptfall/internal"
	"github.com/promptfall/promptfall/internal/game"
)

// =============================================================================
// ROUND ARCHIVE
// =============================================================================

// One row per player per finished round. rank is reserved in some SQL
// dialects, hence player_rank.
const schema = `
CREATE TABLE IF NOT EXISTS round_archive (
	id BIGSERIAL PRIMARY KEY,
	room_code TEXT NOT NULL,
	room_name TEXT NOT NULL,
	round_number INT NOT NULL,
	challenge TEXT NOT NULL,
	category TEXT NOT NULL,
	played_at TIMESTAMPTZ NOT NULL,
	player_id TEXT NOT NULL,
	player_name TEXT NOT NULL,
	response_text TEXT NOT NULL,
	vote_count INT NOT NULL,
	player_rank INT NOT NULL,
	total_score INT NOT NULL
);
CREATE INDEX IF NOT EXISTS round_archive_room_idx ON round_archive (room_code, round_number);
`

const insertRow = `
INSERT INTO round_archive
	(room_code, room_name, round_number, challenge, category, played_at,
	 player_id, player_name, response_text, vote_count, player_rank, total_score)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Store persists finished rounds in Postgres. Implements the game's
// RoundArchiver.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("archive pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("archive ping: %w", err)
	}
	store := &Store{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("archive schema: %w", err)
	}
	return nil
}

// RecordRound writes every result row of a finished round in one batch.
func (s *Store) RecordRound(ctx context.Context, record game.RoundRecord) error {
	if len(record.Results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range record.Results {
		batch.Queue(insertRow,
			record.RoomCode,
			record.RoomName,
			record.RoundNumber,
			record.Challenge,
			record.Category,
			record.PlayedAt,
			row.PlayerId,
			row.PlayerName,
			row.ResponseText,
			row.VoteCount,
			row.Rank,
			row.TotalScore,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("archive insert: %w", err)
		}
	}
	return nil
}

// ArchivedRound is one past round read back from the archive.
type ArchivedRound struct {
	RoundNumber int                    `json:"round_number"`
	Challenge   string                 `json:"challenge"`
	Category    string                 `json:"category"`
	PlayedAt    time.Time              `json:"played_at"`
	Results     []internal.RoundResult `json:"results"`
}

// RoundsForRoom returns a room's archived rounds in play order, each with
// its result rows in rank order.
func (s *Store) RoundsForRoom(ctx context.Context, roomCode string) ([]ArchivedRound, error) {
	rows, err := s.pool.Query(ctx, `
SELECT round_number, challenge, category, played_at,
       player_id, player_name, response_text, vote_count, player_rank, total_score
FROM round_archive
WHERE room_code = $1
ORDER BY round_number, player_rank`, roomCode)
	if err != nil {
		return nil, fmt.Errorf("archive query: %w", err)
	}
	defer rows.Close()

	rounds := make([]ArchivedRound, 0)
	for rows.Next() {
		var round ArchivedRound
		var result internal.RoundResult
		if err := rows.Scan(
			&round.RoundNumber,
			&round.Challenge,
			&round.Category,
			&round.PlayedAt,
			&result.PlayerId,
			&result.PlayerName,
			&result.ResponseText,
			&result.VoteCount,
			&result.Rank,
			&result.TotalScore,
		); err != nil {
			return nil, fmt.Errorf("archive scan: %w", err)
		}

		if n := len(rounds); n == 0 || rounds[n-1].RoundNumber != round.RoundNumber {
			rounds = append(rounds, round)
		}
		last := &rounds[len(rounds)-1]
		last.Results = append(last.Results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive rows: %w", err)
	}
	return rounds, nil
}

func (s *Store) Close() {
	s.pool.Close()
}
