package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkers_games (
	game_id       TEXT PRIMARY KEY,
	red_id        TEXT NOT NULL,
	red_name      TEXT NOT NULL,
	white_id      TEXT NOT NULL,
	white_name    TEXT NOT NULL,
	status        TEXT NOT NULL,
	result        TEXT NOT NULL,
	result_method TEXT NOT NULL,
	move_count    INTEGER NOT NULL,
	notation      TEXT NOT NULL,
	snapshot      JSONB NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL
)`

// Repository archives finished games in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// EnsureSchema creates the archive table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Save upserts a finished game.
func (r *Repository) Save(ctx context.Context, s checkers.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	duration := s.LastMoveAt.Sub(s.CreatedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `INSERT INTO checkers_games (
		game_id, red_id, red_name, white_id, white_name,
		status, result, result_method, move_count, notation, snapshot,
		started_at, ended_at, duration_ms
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11::jsonb,$12,$13,$14)
	ON CONFLICT (game_id) DO UPDATE SET
		status=EXCLUDED.status,
		result=EXCLUDED.result,
		result_method=EXCLUDED.result_method,
		move_count=EXCLUDED.move_count,
		notation=EXCLUDED.notation,
		snapshot=EXCLUDED.snapshot,
		ended_at=EXCLUDED.ended_at,
		duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		s.ID,
		s.Red.ID, s.Red.Name,
		s.White.ID, s.White.Name,
		string(s.Status), Result(s), Method(s), len(s.History), Notation(s), string(raw),
		s.CreatedAt, s.LastMoveAt, duration,
	)
	return err
}

func (r *Repository) Load(ctx context.Context, id string) (*checkers.Snapshot, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT snapshot FROM checkers_games WHERE game_id = $1`, strings.TrimSpace(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s checkers.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &s, nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT game_id, red_name, white_name, status, result, result_method, move_count, ended_at
		FROM checkers_games
		ORDER BY ended_at DESC, game_id
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			s      Summary
			status string
			result string
		)
		if err := rows.Scan(&s.ID, &s.RedName, &s.WhiteName, &status, &result, &s.Method, &s.Moves, &s.EndedAt); err != nil {
			return nil, err
		}
		s.Status = checkers.Status(status)
		s.Winner = winnerFromResult(result)
		out = append(out, s)
	}
	return out, rows.Err()
}

func winnerFromResult(result string) checkers.Color {
	switch result {
	case "2-0":
		return checkers.Red
	case "0-2":
		return checkers.White
	}
	return checkers.NoColor
}
