// Package sessionstore persists account sessions as a single AES-256-GCM
// encrypted TOML blob. The store is a whole-file resource: every save
// rewrites it atomically via a temp file and rename, so readers never
// observe a partial store.
package sessionstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/logger"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

const (
	storeFileMode   = 0o600
	storeDirMode    = 0o700
	tempFilePattern = ".sessions-*.bin.tmp"
)

type Store struct {
	path string
	key  []byte
	log  *logger.Logger
	mu   sync.RWMutex
}

var _ ports.SessionRepository = (*Store)(nil)

func New(path string, key []byte, log *logger.Logger) (*Store, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("session store key has %d bytes, want %d", len(key), keySize)
	}
	if log == nil {
		log = logger.Nop()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session store path: %w", err)
	}

	return &Store{path: filepath.Clean(absPath), key: key, log: log}, nil
}

// Load reads and decrypts the store. Decryption and decode failures are
// logged and swallowed: the caller gets an empty set and users log in
// again, per the store's fail-silent contract.
func (s *Store) Load(ctx context.Context) (map[string]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loadLocked(), nil
}

func (s *Store) loadLocked() map[string]domain.Session {
	blob, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("session store unreadable, starting empty")
		}
		return map[string]domain.Session{}
	}

	plaintext, err := s.open(blob)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session store undecryptable, starting empty")
		return map[string]domain.Session{}
	}

	var file fileSchema
	if err := toml.Unmarshal(plaintext, &file); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session store undecodable, starting empty")
		return map[string]domain.Session{}
	}
	if err := file.validateVersion(); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("session store version mismatch, starting empty")
		return map[string]domain.Session{}
	}

	sessions := make(map[string]domain.Session, len(file.Sessions))
	for _, entry := range file.Sessions {
		sessions[entry.Username] = fromSchema(entry)
	}

	return sessions
}

// Save encrypts the full mapping and atomically replaces the store file.
func (s *Store) Save(ctx context.Context, sessions map[string]domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveLocked(sessions)
}

// Update inserts or replaces one session and persists the whole store.
func (s *Store) Update(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.loadLocked()
	sessions[session.Username] = session

	return s.saveLocked(sessions)
}

func (s *Store) saveLocked(sessions map[string]domain.Session) error {
	file := fileSchema{Version: currentSchemaVersion}
	usernames := make([]string, 0, len(sessions))
	for username := range sessions {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	for _, username := range usernames {
		file.Sessions = append(file.Sessions, toSchema(sessions[username]))
	}

	plaintext, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session store: %w", err)
	}

	blob, err := s.seal(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt session store: %w", err)
	}

	return s.writeAtomic(blob)
}

func (s *Store) writeAtomic(blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), storeDirMode); err != nil {
		return fmt.Errorf("create session store directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session store: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(blob); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session store: %w", err)
	}

	if err := tempFile.Chmod(storeFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session store: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session store: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace session store: %w", err)
	}

	cleanup = false
	return nil
}

// seal encrypts plaintext with AES-256-GCM. A random 12-byte nonce is
// prepended so open can locate it: blob = nonce ‖ ciphertext.
func (s *Store) seal(plaintext []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) open(blob []byte) ([]byte, error) {
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	return gcm.Open(nil, blob[:nonceSize], blob[nonceSize:], nil)
}

func (s *Store) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
