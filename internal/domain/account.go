package domain

import (
	"strings"
	"time"
)

// Session is the credential blob for one managed account. It is what the
// session store encrypts at rest and what the Instagram adapter replays to
// resume an authenticated handle without a fresh login.
type Session struct {
	Username     string
	UserID       UserID
	DeviceID     string
	ClientUUID   string
	SessionToken string
	CSRFToken    string
	UserAgent    string
	SavedAt      time.Time
}

func (s Session) Validate() error {
	if strings.TrimSpace(s.Username) == "" {
		return ErrInvalidSession
	}
	if s.UserID == 0 {
		return ErrInvalidSession
	}
	if strings.TrimSpace(s.SessionToken) == "" {
		return ErrInvalidSession
	}

	return nil
}
