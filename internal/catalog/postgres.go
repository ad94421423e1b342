package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vodhub/internal/config"
)

// PostgresStore implements Store on a pgx connection pool. Renditions are
// kept as a JSONB column; the row is the unit of atomicity for publish.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and verifies the connection.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Health checks database connectivity.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, v *Video) error {
	query := `
		INSERT INTO videos (id, owner_id, title, description, visibility, status,
		                    duration_seconds, renditions, thumbnail_path, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	renditions, err := json.Marshal(v.Renditions)
	if err != nil {
		return fmt.Errorf("failed to marshal renditions: %w", err)
	}

	err = s.pool.QueryRow(ctx, query,
		v.ID, v.OwnerID, v.Title, v.Description, v.Visibility, v.Status,
		v.DurationSeconds, renditions, v.ThumbnailPath, v.FailureReason,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Video, error) {
	query := `
		SELECT id, owner_id, title, description, visibility, status,
		       duration_seconds, renditions, thumbnail_path, failure_reason,
		       created_at, updated_at
		FROM videos
		WHERE id = $1
	`

	var v Video
	var renditions []byte

	err := s.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &v.OwnerID, &v.Title, &v.Description, &v.Visibility, &v.Status,
		&v.DurationSeconds, &renditions, &v.ThumbnailPath, &v.FailureReason,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	if len(renditions) > 0 {
		if err := json.Unmarshal(renditions, &v.Renditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal renditions: %w", err)
		}
	}

	return &v, nil
}

func (s *PostgresStore) SetPublished(ctx context.Context, id string, p Publish) error {
	// The status predicate makes PROCESSING to terminal a one-way door at
	// the row level, not just by writer convention.
	query := `
		UPDATE videos
		SET status = $2, duration_seconds = $3, renditions = $4,
		    thumbnail_path = $5, updated_at = now()
		WHERE id = $1 AND status = $6
	`

	renditions, err := json.Marshal(p.Renditions)
	if err != nil {
		return fmt.Errorf("failed to marshal renditions: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, id, StatusPublished, p.DurationSeconds, renditions, p.ThumbnailPath, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to publish video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionMissErr(ctx, id)
	}

	return nil
}

func (s *PostgresStore) SetFailed(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE videos
		SET status = $2, failure_reason = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`

	tag, err := s.pool.Exec(ctx, query, id, StatusFailed, reason, StatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to mark video failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.transitionMissErr(ctx, id)
	}

	return nil
}

// transitionMissErr distinguishes "row gone" from "row already terminal"
// when a guarded status update matched nothing.
func (s *PostgresStore) transitionMissErr(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return ErrConflict
}

func (s *PostgresStore) UpdateDetails(ctx context.Context, id, title, description, visibility string) (*Video, error) {
	query := `
		UPDATE videos
		SET title = COALESCE(NULLIF($2, ''), title),
		    description = COALESCE(NULLIF($3, ''), description),
		    visibility = COALESCE(NULLIF($4, ''), visibility),
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, id, title, description, visibility)
	if err != nil {
		return nil, fmt.Errorf("failed to update video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	return s.Get(ctx, id)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
