package stats

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pefman/hubdice/internal/models"
)

//go:embed schema.sql
var schema string

// PostgresStore persists results in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordResult(ctx context.Context, r models.GameResult) error {
	ended := time.Now()
	if r.EndedAt != 0 {
		ended = time.Unix(r.EndedAt, 0)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO game_results (table_id, variant, winner, pot, chips, rolls, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		r.TableID, r.Variant, r.Winner, r.Pot, r.Chips, r.Rolls, ended).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	for _, name := range uniqueNames(r.Players) {
		if _, err := tx.Exec(ctx, `INSERT INTO game_players (result_id, name) VALUES ($1, $2)`, id, name); err != nil {
			return fmt.Errorf("insert player %q: %w", name, err)
		}
	}
	return tx.Commit(ctx)
}

const playerTotals = `
	SELECT p.name,
	       count(*),
	       count(*) FILTER (WHERE r.winner = p.name),
	       coalesce(sum(r.chips) FILTER (WHERE r.winner = p.name), 0),
	       coalesce(max(r.pot) FILTER (WHERE r.winner = p.name), 0),
	       coalesce(extract(epoch FROM max(r.ended_at))::bigint, 0)
	FROM game_players p
	JOIN game_results r ON r.id = p.result_id`

func scanPlayer(row pgx.Row) (models.PlayerStats, error) {
	var ps models.PlayerStats
	err := row.Scan(&ps.Name, &ps.Games, &ps.Wins, &ps.ChipsWon, &ps.BestPot, &ps.LastPlayed)
	return ps, err
}

func (s *PostgresStore) PlayerStats(ctx context.Context, name string) (models.PlayerStats, error) {
	row := s.pool.QueryRow(ctx, playerTotals+` WHERE p.name = $1 GROUP BY p.name`, name)
	ps, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PlayerStats{Name: name}, nil
	}
	if err != nil {
		return models.PlayerStats{}, fmt.Errorf("player stats: %w", err)
	}
	return ps, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]models.PlayerStats, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	rows, err := s.pool.Query(ctx, playerTotals+`
		GROUP BY p.name
		ORDER BY 3 DESC, 4 DESC, p.name
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	out := []models.PlayerStats{}
	for rows.Next() {
		ps, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *PostgresStore) BiggestPotToday(ctx context.Context) (models.GameResult, bool, error) {
	var (
		r  models.GameResult
		id int64
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, table_id, variant, winner, pot, chips, rolls, extract(epoch FROM ended_at)::bigint
		FROM game_results
		WHERE ended_at >= date_trunc('day', now() AT TIME ZONE 'UTC') AT TIME ZONE 'UTC'
		ORDER BY pot DESC, chips DESC, ended_at
		LIMIT 1`).Scan(&id, &r.TableID, &r.Variant, &r.Winner, &r.Pot, &r.Chips, &r.Rolls, &r.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GameResult{}, false, nil
	}
	if err != nil {
		return models.GameResult{}, false, fmt.Errorf("biggest pot: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT name FROM game_players WHERE result_id = $1 ORDER BY name`, id)
	if err != nil {
		return models.GameResult{}, false, fmt.Errorf("biggest pot players: %w", err)
	}
	r.Players, err = pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return models.GameResult{}, false, fmt.Errorf("biggest pot players: %w", err)
	}
	return r, true, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
