// Package ledger records completed unfollow actions in SQLite so the daily
// cap survives process restarts. A crash and re-run therefore cannot exceed
// the configured daily limit.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

const dayFormat = "2006-01-02"

type SQLite struct {
	db *sql.DB
}

var _ ports.ActionLedger = (*SQLite)(nil)

// Open opens or creates the ledger database at path.
func Open(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}

	// SQLite supports a single writer; the whole system is sequential
	// anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ledger := &SQLite{db: db}
	if err := ledger.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger tables: %w", err)
	}

	return ledger, nil
}

func (l *SQLite) Close() error {
	return l.db.Close()
}

func (l *SQLite) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS unfollows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account TEXT NOT NULL,
		day TEXT NOT NULL,
		target_id INTEGER NOT NULL,
		target_username TEXT NOT NULL,
		unfollowed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_unfollows_account_day ON unfollows(account, day);
	`

	_, err := l.db.Exec(schema)
	return err
}

func (l *SQLite) Record(ctx context.Context, account string, target domain.UserRef, at time.Time) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO unfollows (account, day, target_id, target_username, unfollowed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		account, at.Format(dayFormat), int64(target.ID), target.Username, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record unfollow: %w", err)
	}

	return nil
}

func (l *SQLite) CountForDay(ctx context.Context, account string, at time.Time) (int, error) {
	var count int
	err := l.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM unfollows WHERE account = ? AND day = ?`,
		account, at.Format(dayFormat),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unfollows: %w", err)
	}

	return count, nil
}
