package models

import (
	"strings"
	"time"

	"github.com/akinalp/puerta/pkg"
)

// Role, bir kullanıcının sistemdeki yetki sınıfı.
type Role string

const (
	RoleAnfitrion     Role = "anfitrion"     // konut sakini, sadece kendi davetleri
	RoleSeguridad     Role = "seguridad"     // kapı güvenliği, onay yetkisi
	RoleAdministrador Role = "administrador" // site yönetimi
	RoleDeveloper     Role = "developer"     // tam yetki
)

// ValidRole, bilinen bir rol mü kontrol eder.
func ValidRole(r Role) bool {
	switch r {
	case RoleAnfitrion, RoleSeguridad, RoleAdministrador, RoleDeveloper:
		return true
	}
	return false
}

// IsStaff, kullanıcının konut sakini olmayan (global yetkili) bir rolde
// olup olmadığını söyler. Staff roller başkalarının davetleri üzerinde
// işlem yapabilir.
func (r Role) IsStaff() bool {
	return r == RoleSeguridad || r == RoleAdministrador || r == RoleDeveloper
}

// User, kullanıcı dizinindeki bir kayıt.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	Lot          string    `json:"lote"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"` // asla serialize edilmez
	CreatedAt    time.Time `json:"created_at"`
}

// HostRef, defter kaydına gömülecek denormalize kopyayı üretir.
func (u *User) HostRef() HostRef {
	return HostRef{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Lot:      u.Lot,
	}
}

// CreateUserRequest, yeni kullanıcı kaydı (alta) isteği.
// Sadece administrador ve developer rollerine açıktır.
type CreateUserRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Lot      string  `json:"lote"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty"`
	Role     Role    `json:"role"`
}

// Validate, istek alanlarını kontrol eder.
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(strings.ToLower(r.Username))
	r.Name = strings.TrimSpace(r.Name)
	r.Lot = strings.TrimSpace(r.Lot)

	if len(r.Username) < 3 || len(r.Username) > 32 {
		return pkg.ErrBadRequest
	}
	for _, c := range r.Username {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '.') {
			return pkg.ErrBadRequest
		}
	}
	if len(r.Password) < 8 {
		return pkg.ErrBadRequest
	}
	if r.Name == "" {
		return pkg.ErrBadRequest
	}
	if r.Role == "" {
		r.Role = RoleAnfitrion
	}
	if !ValidRole(r.Role) {
		return pkg.ErrBadRequest
	}
	return nil
}

// LoginRequest, oturum açma isteği.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate, istek alanlarını kontrol eder.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(strings.ToLower(r.Username))
	if r.Username == "" || r.Password == "" {
		return pkg.ErrBadRequest
	}
	return nil
}
