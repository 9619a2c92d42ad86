package ports

import (
	"context"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

// SessionRepository owns the encrypted on-disk session store. It is the sole
// reader and writer of that file.
type SessionRepository interface {
	// Load decrypts and decodes the store. A missing, corrupt or
	// undecryptable file yields an empty map, not an error; those sessions
	// are simply gone and logins must be repeated.
	Load(ctx context.Context) (map[string]domain.Session, error)

	// Save encodes and encrypts the full mapping and replaces the store
	// file atomically. No partial file is ever observable.
	Save(ctx context.Context, sessions map[string]domain.Session) error

	// Update inserts or replaces a single session and persists the store.
	// The executor calls it after every successful action because the
	// remote service rotates tokens.
	Update(ctx context.Context, session domain.Session) error
}

// WhitelistRepository owns the flat-file whitelist. Usernames keep their
// insertion order and are never auto-pruned.
type WhitelistRepository interface {
	List(ctx context.Context) ([]string, error)
	Add(ctx context.Context, username string) error
	Remove(ctx context.Context, username string) error
}
