// Package repository — UserRepository interface.
//
// Kullanıcı dizini SQLite'ta tutulur: kayıtlar ilişkiseldir (oturumlar
// FK ile bağlı) ve defter gibi toplu read-modify-write gerektirmez.
package repository

import (
	"context"

	"github.com/akinalp/puerta/models"
)

// UserRepository, kullanıcı dizini işlemleri için interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetAll(ctx context.Context) ([]models.User, error)

	// UpdatePassword, kullanıcının şifre hash'ini günceller.
	UpdatePassword(ctx context.Context, userID string, newPasswordHash string) error

	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}
