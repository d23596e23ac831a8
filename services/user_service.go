// Package services — UserService: kullanıcı dizini iş mantığı.
//
// Self-service kayıt yoktur: yeni kullanıcılar (alta) sadece yönetim
// rolleri tarafından açılır. İlk açılışta dizin boşsa bootstrap
// kullanıcıları oluşturulur.
package services

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
	"github.com/akinalp/puerta/repository"
)

// UserService, kullanıcı dizini interface'i.
type UserService interface {
	// Create, yeni kullanıcı kaydı (alta) oluşturur.
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)

	// List, tüm kullanıcıları şifre hash'leri temizlenmiş olarak döner.
	List(ctx context.Context) ([]models.User, error)

	// Get, tek kullanıcıyı döner.
	Get(ctx context.Context, id string) (*models.User, error)

	// Delete, kullanıcıyı siler. Defterdeki davetleri denormalize host
	// kopyası sayesinde okunabilir kalır.
	Delete(ctx context.Context, id string) error

	// EnsureBootstrap, dizin boşsa ilk admin kullanıcısını oluşturur.
	// adminPassword boşsa hiçbir şey yapmaz.
	EnsureBootstrap(ctx context.Context, adminPassword string) error
}

type userService struct {
	userRepo repository.UserRepository
	logger   *log.Logger
}

// NewUserService, constructor.
func NewUserService(userRepo repository.UserRepository, logger *log.Logger) UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

func (s *userService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Name:         req.Name,
		Lot:          req.Lot,
		Phone:        req.Phone,
		Email:        req.Email,
		Role:         req.Role,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	s.logger.Printf("[user] created: username=%s role=%s lot=%s", user.Username, user.Role, user.Lot)

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	// nil slice yerine boş slice döndür (JSON'da [] olması için, null değil)
	if users == nil {
		users = []models.User{}
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sanitized := *user
	sanitized.PasswordHash = ""
	return &sanitized, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("[user] deleted: id=%s", id)
	return nil
}

func (s *userService) EnsureBootstrap(ctx context.Context, adminPassword string) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if adminPassword == "" {
		return fmt.Errorf("%w: empty user directory and no BOOTSTRAP_ADMIN_PASSWORD set", pkg.ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	admin := &models.User{
		Username:     "admin",
		Name:         "Administrador",
		Role:         models.RoleAdministrador,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.logger.Printf("[user] bootstrap admin created — change the password after first login")
	return nil
}
