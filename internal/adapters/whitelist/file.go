// Package whitelist stores protected usernames as a human-readable flat
// file, one username per line. The file is rewritten in full on every
// mutation and entries keep their insertion order.
package whitelist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
	"github.com/dmarceau/instagram-follower-cli/internal/ports"
)

const (
	fileMode        = 0o600
	dirMode         = 0o700
	tempFilePattern = ".whitelist-*.txt.tmp"
)

type File struct {
	path string
	mu   sync.RWMutex
}

var _ ports.WhitelistRepository = (*File)(nil)

func New(path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve whitelist path: %w", err)
	}

	return &File{path: filepath.Clean(absPath)}, nil
}

func (f *File) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.read()
}

func (f *File) Add(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return errors.New("username is empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	usernames, err := f.read()
	if err != nil {
		return err
	}

	for _, existing := range usernames {
		if existing == trimmed {
			return nil
		}
	}

	return f.write(append(usernames, trimmed))
}

func (f *File) Remove(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	trimmed := strings.TrimSpace(username)

	f.mu.Lock()
	defer f.mu.Unlock()

	usernames, err := f.read()
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(usernames))
	found := false
	for _, existing := range usernames {
		if existing == trimmed {
			found = true
			continue
		}
		kept = append(kept, existing)
	}

	if !found {
		return fmt.Errorf("whitelist entry %q: %w", trimmed, domain.ErrAccountNotFound)
	}

	return f.write(kept)
}

func (f *File) read() ([]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read whitelist: %w", err)
	}

	usernames := make([]string, 0, 16)
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		usernames = append(usernames, trimmed)
	}

	return usernames, nil
}

func (f *File) write(usernames []string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), dirMode); err != nil {
		return fmt.Errorf("create whitelist directory: %w", err)
	}

	var builder strings.Builder
	for _, username := range usernames {
		builder.WriteString(username)
		builder.WriteByte('\n')
	}

	tempFile, err := os.CreateTemp(filepath.Dir(f.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp whitelist: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.WriteString(builder.String()); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp whitelist: %w", err)
	}

	if err := tempFile.Chmod(fileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp whitelist: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp whitelist: %w", err)
	}

	if err := os.Rename(tempName, f.path); err != nil {
		return fmt.Errorf("replace whitelist: %w", err)
	}

	cleanup = false
	return nil
}
