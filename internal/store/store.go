// Package store persists fetch attempts and last-known-good slide sets in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"kiosk/internal/logger"
	"kiosk/internal/models"
	"kiosk/pkg/metadata"
)

//go:embed schema.sql
var Schema string

const (
	// DefaultKeepSnapshots is how many snapshots survive pruning.
	DefaultKeepSnapshots = 20
	// DefaultKeepAttempts is how many fetch attempts survive pruning.
	DefaultKeepAttempts = 1000
)

// ErrNoSnapshot is returned when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store is a SQLite-backed history of attempts and slide sets.
type Store struct {
	db           *sql.DB
	log          *logger.Logger
	keep         int
	keepAttempts int
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Discard()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// each connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Debug("store opened", "path", path)

	return &Store{db: db, log: log, keep: DefaultKeepSnapshots, keepAttempts: DefaultKeepAttempts}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordAttempt stores one strategy attempt, keeping only the newest attempts.
func (s *Store) RecordAttempt(ctx context.Context, a models.FetchAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		insert into fetch_attempts
			(run_id, strategy, priority, success, status_code, row_count, error, duration_ms, attempted_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.Strategy, a.Priority, a.Success, a.StatusCode, a.Rows, a.Error,
		a.Duration.Milliseconds(), a.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		delete from fetch_attempts
		where id not in (select id from fetch_attempts order by id desc limit ?)`, s.keepAttempts)
	if err != nil {
		return fmt.Errorf("prune attempts: %w", err)
	}

	if pruned, _ := res.RowsAffected(); pruned > 0 {
		s.log.Debug("attempt history pruned", "removed", pruned)
	}

	return nil
}

// History returns up to limit attempts, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]models.FetchAttempt, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		select run_id, strategy, priority, success, status_code, row_count, error, duration_ms, attempted_at
		from fetch_attempts
		order by id desc
		limit ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.FetchAttempt

	for rows.Next() {
		var (
			a          models.FetchAttempt
			durationMs int64
			atMs       int64
		)

		if err := rows.Scan(&a.RunID, &a.Strategy, &a.Priority, &a.Success, &a.StatusCode,
			&a.Rows, &a.Error, &durationMs, &atMs); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}

		a.Duration = time.Duration(durationMs) * time.Millisecond
		a.At = time.UnixMilli(atMs)
		out = append(out, a)
	}

	return out, rows.Err()
}

// SaveSnapshot stores set as the latest known-good slide set and prunes old ones.
// A set whose hash matches the latest snapshot is not stored again.
func (s *Store) SaveSnapshot(ctx context.Context, set *models.SlideSet) error {
	if set == nil || len(set.Records) == 0 {
		return nil
	}

	fields := models.RecordFields(set.Records)
	meta := metadata.Sign(fields, true)

	var latest string

	err := s.db.QueryRowContext(ctx, `select hash from snapshots order by id desc limit 1`).Scan(&latest)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read latest snapshot: %w", err)
	}

	if latest == meta.Hash {
		s.log.Debug("snapshot unchanged", "hash", meta.Hash)

		return nil
	}

	records, err := json.Marshal(set.Records)
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		insert into snapshots (run_id, strategy, hash, fetched_at, records, metadata)
		values (?, ?, ?, ?, ?, ?)`,
		set.RunID, set.Strategy, meta.Hash, set.FetchedAt.UnixMilli(), string(records), string(metaJSON),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		delete from snapshots
		where id not in (select id from snapshots order by id desc limit ?)`, s.keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}

	s.log.Info("💾 Snapshot saved", "slides", len(set.Records), "hash", meta.Hash[:12])

	return nil
}

// LatestSnapshot returns the newest stored slide set after checking its fingerprint.
// Only records are stored; callers rebuild slides from them.
func (s *Store) LatestSnapshot(ctx context.Context) (*models.SlideSet, error) {
	var (
		set        models.SlideSet
		fetchedAt  int64
		recordsRaw string
		metaRaw    string
	)

	err := s.db.QueryRowContext(ctx, `
		select run_id, strategy, hash, fetched_at, records, metadata
		from snapshots
		order by id desc
		limit 1`).Scan(&set.RunID, &set.Strategy, &set.Hash, &fetchedAt, &recordsRaw, &metaRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}

	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(recordsRaw), &set.Records); err != nil {
		return nil, fmt.Errorf("decode snapshot records: %w", err)
	}

	var meta metadata.Metadata
	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
		return nil, fmt.Errorf("decode snapshot metadata: %w", err)
	}

	if _, err := metadata.Verify(meta, models.RecordFields(set.Records)); err != nil {
		return nil, fmt.Errorf("snapshot integrity: %w", err)
	}

	set.FetchedAt = time.UnixMilli(fetchedAt)

	return &set, nil
}
