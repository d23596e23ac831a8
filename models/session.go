package models

import "time"

// Session, bir refresh token oturumu.
// Access token'lar stateless JWT — sadece refresh token'lar DB'de tutulur,
// böylece logout gerçekten iptal eder.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired, oturumun süresi dolmuş mu kontrol eder.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
