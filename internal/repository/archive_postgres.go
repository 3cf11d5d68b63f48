package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresArchive persists terminal job outcomes in Postgres.
//
// Expected schema:
//
//	CREATE TABLE conversion_jobs (
//	    job_id             TEXT PRIMARY KEY,
//	    filename           TEXT NOT NULL,
//	    status             TEXT NOT NULL,
//	    profile            TEXT NOT NULL,
//	    model              TEXT NOT NULL,
//	    token_count        INTEGER NOT NULL,
//	    processing_seconds DOUBLE PRECISION NOT NULL,
//	    error_message      TEXT NOT NULL DEFAULT '',
//	    finished_at        TIMESTAMPTZ NOT NULL
//	);
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return &PostgresArchive{pool: pool}, nil
}

func (a *PostgresArchive) Close() {
	a.pool.Close()
}

func (a *PostgresArchive) Record(ctx context.Context, entry ArchiveEntry) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO conversion_jobs (
			job_id,
			filename,
			status,
			profile,
			model,
			token_count,
			processing_seconds,
			error_message,
			finished_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (job_id) DO NOTHING
	`,
		entry.JobID,
		entry.Filename,
		entry.Status,
		entry.Profile,
		entry.Model,
		entry.TokenCount,
		entry.ProcessingSeconds,
		entry.Error,
		entry.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert archive entry: %w", err)
	}
	return nil
}

func (a *PostgresArchive) ListRecent(ctx context.Context, limit int) ([]ArchiveEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.pool.Query(ctx, `
		SELECT job_id, filename, status, profile, model, token_count, processing_seconds, error_message, finished_at
		FROM conversion_jobs
		ORDER BY finished_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list archive entries: %w", err)
	}
	defer rows.Close()

	entries := make([]ArchiveEntry, 0, limit)
	for rows.Next() {
		var (
			entry      ArchiveEntry
			finishedAt time.Time
		)
		if err := rows.Scan(
			&entry.JobID,
			&entry.Filename,
			&entry.Status,
			&entry.Profile,
			&entry.Model,
			&entry.TokenCount,
			&entry.ProcessingSeconds,
			&entry.Error,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan archive entry: %w", err)
		}
		entry.FinishedAt = finishedAt
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate archive entries: %w", rows.Err())
	}
	return entries, nil
}
