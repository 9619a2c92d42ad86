package sessionstore

import (
	"fmt"
	"time"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

const currentSchemaVersion = 1

// fileSchema is the plaintext layout inside the encrypted blob.
type fileSchema struct {
	Version  int             `toml:"version"`
	Sessions []sessionSchema `toml:"sessions"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session store schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sessionSchema struct {
	Username     string `toml:"username"`
	UserID       int64  `toml:"user_id"`
	DeviceID     string `toml:"device_id"`
	ClientUUID   string `toml:"client_uuid"`
	SessionToken string `toml:"session_token"`
	CSRFToken    string `toml:"csrf_token"`
	UserAgent    string `toml:"user_agent"`
	SavedAt      string `toml:"saved_at"`
}

func toSchema(session domain.Session) sessionSchema {
	return sessionSchema{
		Username:     session.Username,
		UserID:       int64(session.UserID),
		DeviceID:     session.DeviceID,
		ClientUUID:   session.ClientUUID,
		SessionToken: session.SessionToken,
		CSRFToken:    session.CSRFToken,
		UserAgent:    session.UserAgent,
		SavedAt:      formatTime(session.SavedAt),
	}
}

func fromSchema(session sessionSchema) domain.Session {
	return domain.Session{
		Username:     session.Username,
		UserID:       domain.UserID(session.UserID),
		DeviceID:     session.DeviceID,
		ClientUUID:   session.ClientUUID,
		SessionToken: session.SessionToken,
		CSRFToken:    session.CSRFToken,
		UserAgent:    session.UserAgent,
		SavedAt:      parseTime(session.SavedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
