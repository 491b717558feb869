package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vote-role-bot/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// InitVoteDB opens the vote database and ensures the votes table exists.
func InitVoteDB(dbPath string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vote database: %w", err)
	}

	schema := `
    CREATE TABLE IF NOT EXISTS votes (
        user_id TEXT PRIMARY KEY,
        expires_at INTEGER NOT NULL
    );`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create votes table: %w", err)
	}

	return db, nil
}

// VoteStore persists one expiry per user.
type VoteStore struct {
	db       *sqlx.DB
	duration time.Duration
}

// NewVoteStore returns a store granting model.VoteDuration per vote.
func NewVoteStore(db *sqlx.DB) *VoteStore {
	return &VoteStore{db: db, duration: model.VoteDuration}
}

// Upsert records a vote at now and returns the new expiry.
// A repeat vote overwrites the existing expiry in place.
func (s *VoteStore) Upsert(ctx context.Context, userID string, now time.Time) (time.Time, error) {
	expiresAt := now.Add(s.duration)
	query := `INSERT INTO votes (user_id, expires_at)
              VALUES (:user_id, :expires_at)
              ON CONFLICT(user_id) DO UPDATE SET expires_at = excluded.expires_at`

	record := model.VoteRecord{UserID: userID, ExpiresAt: expiresAt.UnixMilli()}
	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return time.Time{}, fmt.Errorf("failed to upsert vote for user %s: %w", userID, err)
	}
	return time.UnixMilli(record.ExpiresAt), nil
}

// Delete removes the vote for userID. Deleting an absent vote is not an error.
func (s *VoteStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM votes WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete vote for user %s: %w", userID, err)
	}
	return nil
}

// ListExpired returns the users whose vote expired at or before now.
func (s *VoteStore) ListExpired(ctx context.Context, now time.Time) ([]string, error) {
	var userIDs []string
	err := s.db.SelectContext(ctx, &userIDs, "SELECT user_id FROM votes WHERE expires_at <= ?", now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to list expired votes: %w", err)
	}
	return userIDs, nil
}

// Get returns the vote for userID, or nil if none is tracked.
func (s *VoteStore) Get(ctx context.Context, userID string) (*model.VoteRecord, error) {
	var record model.VoteRecord
	err := s.db.GetContext(ctx, &record, "SELECT user_id, expires_at FROM votes WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote for user %s: %w", userID, err)
	}
	return &record, nil
}

// Count returns the number of tracked votes.
func (s *VoteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM votes"); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}
