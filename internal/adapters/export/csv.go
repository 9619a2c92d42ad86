// Package export writes the audit backup taken before a destructive batch:
// a CSV copy of the full following list, kept for manual recovery.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

type CSVWriter struct {
	dir string
}

func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: filepath.Clean(dir)}
}

// WriteFollowing writes the backup file and returns its path. File names
// carry the account and a timestamp so successive runs never overwrite each
// other.
func (w *CSVWriter) WriteFollowing(account string, following []domain.UserRef, at time.Time) (string, error) {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	records := make([][]string, 0, len(following)+1)
	records = append(records, []string{"user_id", "username", "full_name", "verified", "business"})
	for _, user := range following {
		records = append(records, []string{
			strconv.FormatInt(int64(user.ID), 10),
			user.Username,
			user.FullName,
			strconv.FormatBool(user.IsVerified),
			strconv.FormatBool(user.IsBusiness),
		})
	}

	if err := writer.WriteAll(records); err != nil {
		return "", fmt.Errorf("encode export: %w", err)
	}

	name := fmt.Sprintf("following-%s-%s.csv", account, at.Format("20060102-150405"))
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}

	return path, nil
}
