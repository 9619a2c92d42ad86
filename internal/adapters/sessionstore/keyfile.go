package sessionstore

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const keySize = 32 // AES-256

// LoadOrCreateKey returns the process-wide store key, generating and
// persisting it on first run. The key file lives in cleartext next to the
// store; losing it makes every saved session unrecoverable, which is the
// accepted tradeoff for prompt-free startup.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != keySize {
			return nil, fmt.Errorf("key file %s has %d bytes, want %d", path, len(key), keySize)
		}
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	key = make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate store key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, key, storeFileMode); err != nil {
		return nil, fmt.Errorf("write key file: %w", err)
	}

	return key, nil
}
