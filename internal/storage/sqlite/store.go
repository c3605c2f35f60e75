// Package sqlite provides a SQLite-backed credential store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mcoot/lightsduel/internal/model"
	"github.com/mcoot/lightsduel/internal/storage"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

//go:embed schema.sql
var schema string

// Store persists accounts in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite credential store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite admits one writer at a time
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// FindByUsername returns one account.
func (s *Store) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT username, password_hash, salt, wins, losses, games_played
		   FROM users
		  WHERE username = ?`,
		username,
	)

	var account model.Account
	err := row.Scan(
		&account.Username,
		&account.PasswordHash,
		&account.Salt,
		&account.Wins,
		&account.Losses,
		&account.GamesPlayed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", username, err)
	}
	return &account, nil
}

// Insert creates one account with zeroed counters.
func (s *Store) Insert(ctx context.Context, username, passwordHash, salt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, salt) VALUES (?, ?, ?)`,
		username, passwordHash, salt,
	)
	if err == nil {
		return nil
	}
	if isUniqueViolation(err, "users.username") {
		return model.ErrUsernameTaken
	}
	if isUniqueViolation(err, "") {
		return model.ErrDuplicateCredential
	}
	return fmt.Errorf("insert user %s: %w", username, err)
}

// RecordWin increments wins and games played.
func (s *Store) RecordWin(ctx context.Context, username string) error {
	return s.bump(ctx, username,
		`UPDATE users SET wins = wins + 1, games_played = games_played + 1 WHERE username = ?`)
}

// RecordLoss increments losses and games played.
func (s *Store) RecordLoss(ctx context.Context, username string) error {
	return s.bump(ctx, username,
		`UPDATE users SET losses = losses + 1, games_played = games_played + 1 WHERE username = ?`)
}

// ListAll returns every account in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]model.UserRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT username, wins, losses, games_played FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	records := []model.UserRecord{}
	for rows.Next() {
		var r model.UserRecord
		if err := rows.Scan(&r.Username, &r.Wins, &r.Losses, &r.GamesPlayed); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return records, nil
}

func (s *Store) bump(ctx context.Context, username, query string) error {
	result, err := s.sqlDB.ExecContext(ctx, query, username)
	if err != nil {
		return fmt.Errorf("update user %s: %w", username, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user %s: %w", username, err)
	}
	if affected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// isUniqueViolation reports a UNIQUE failure, optionally on one column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	unique := false
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			unique = true
		}
	}
	message := strings.ToLower(err.Error())
	if !unique && !strings.Contains(message, "unique constraint failed") {
		return false
	}
	return column == "" || strings.Contains(message, column)
}

var _ storage.CredentialStore = (*Store)(nil)
