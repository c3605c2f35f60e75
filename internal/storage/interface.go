package storage

import (
	"context"

	"github.com/mcoot/lightsduel/internal/model"
)

// CredentialStore persists accounts and their win/loss statistics.
//
// Usernames, password hashes and salts are each unique across accounts.
// Counters start at zero.
type CredentialStore interface {
	// FindByUsername returns the account or model.ErrUserNotFound
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	// Insert creates an account with zeroed statistics.
	// Returns model.ErrUsernameTaken or model.ErrDuplicateCredential on conflict.
	Insert(ctx context.Context, username, passwordHash, salt string) error

	// RecordWin increments wins and games played
	RecordWin(ctx context.Context, username string) error

	// RecordLoss increments losses and games played
	RecordLoss(ctx context.Context, username string) error

	// ListAll returns every account's statistics in insertion order
	ListAll(ctx context.Context) ([]model.UserRecord, error)

	// Close releases the underlying connection
	Close() error
}
