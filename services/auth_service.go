// Package services, business logic katmanını barındırır.
//
// Service katmanı handler (HTTP) ile repository (DB / defter dosyası)
// arasında oturur. Tüm iş kuralları burada yaşar: şifre hash'leme,
// JWT üretimi, durum geçişleri, yetki kontrolleri.
//
// Service ASLA http.Request/Response bilmez — sadece domain modelleri
// alır/verir. Service ASLA doğrudan SQL çalıştırmaz — repository
// interface'i kullanır.
package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/puerta/database"
	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
	"github.com/akinalp/puerta/repository"
)

// bcryptCost, şifre hash'leme maliyeti.
const bcryptCost = 12

// AuthService interface'i — dışarıya açık API.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)

	// Refresh, refresh token'ı döndürüp yeni bir token çifti üretir.
	// Eski oturum silinir, yenisi açılır (rotation) — tek transaction'da.
	Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error)

	// Logout, refresh token'ı iptal eder.
	Logout(ctx context.Context, refreshToken string) error

	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)

	// ChangePassword, kullanıcının şifresini değiştirir.
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

type authService struct {
	db          *database.DB
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
}

// NewAuthService, constructor.
//
// db, refresh rotation'ın transaction'ı için gereklidir: eski oturumun
// silinmesi ile yenisinin açılması atomik olmalı.
func NewAuthService(
	db *database.DB,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	jwtSecret string,
	accessExpMinutes int,
	refreshExpDays int,
) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtSecret:   []byte(jwtSecret),
		accessExp:   time.Duration(accessExpMinutes) * time.Minute,
		refreshExp:  time.Duration(refreshExpDays) * 24 * time.Hour,
	}
}

// Login, kullanıcı girişi yapar.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			// Username'in var olup olmadığını sızdırma — aynı mesaj.
			return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
	}

	return s.issueTokens(ctx, s.sessionRepo, user)
}

// Refresh, refresh token rotation yapar.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	var resp *models.LoginResponse

	err := database.WithTx(ctx, s.db.Conn, func(tx *sql.Tx) error {
		sessions := repository.NewSQLiteSessionRepo(tx)

		session, err := sessions.GetByRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, pkg.ErrNotFound) {
				return fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
			}
			return err
		}

		if err := sessions.DeleteByID(ctx, session.ID); err != nil {
			return err
		}

		if session.Expired(time.Now()) {
			// Silme commit edilir, yeni token verilmez.
			return fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
		}

		user, err := repository.NewSQLiteUserRepo(tx).GetByID(ctx, session.UserID)
		if err != nil {
			return err
		}

		resp, err = s.issueTokens(ctx, sessions, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Logout, refresh token'ı iptal eder. Bilinmeyen token hata değildir —
// logout idempotenttir.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.sessionRepo.DeleteByID(ctx, session.ID)
}

// ValidateAccessToken, JWT access token'ı doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// ChangePassword, kullanıcının şifresini değiştirir.
func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", pkg.ErrBadRequest)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", pkg.ErrUnauthorized)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(newHash))
}

// issueTokens, access + refresh token çifti üretir ve oturumu kaydeder.
func (s *authService) issueTokens(ctx context.Context, sessions repository.SessionRepository, user *models.User) (*models.LoginResponse, error) {
	now := time.Now()
	accessClaims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "puerta",
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshString := hex.EncodeToString(refreshBytes)

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshString,
		ExpiresAt:    now.Add(s.refreshExp),
	}

	if err := sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &models.LoginResponse{
		User: sanitized,
		Tokens: models.TokenPair{
			AccessToken:  accessString,
			RefreshToken: refreshString,
			ExpiresIn:    int64(s.accessExp.Seconds()),
		},
	}, nil
}
