// Package repository — SessionRepository interface.
//
// Refresh token oturumları. Access token'lar stateless JWT olduğu için
// DB'de sadece refresh token'lar yaşar.
package repository

import (
	"context"
	"time"

	"github.com/akinalp/puerta/models"
)

// SessionRepository, oturum veritabanı işlemleri için interface.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByRefreshToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteByID(ctx context.Context, id string) error

	// DeleteExpired, süresi dolmuş oturumları temizler.
	// main.go'daki periyodik temizlik goroutine'i çağırır.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
