package middleware

import (
	"net/http"

	"github.com/akinalp/puerta/handlers"
	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
)

// RoleMiddleware, rol tabanlı erişim kontrolü.
//
// AuthMiddleware'den SONRA çalışır — context'te doğrulanmış user vardır.
// Roller düzdür (hiyerarşi yok): bir endpoint'e hangi rollerin
// erişebileceği config'den gelir, kod sabit rol listesi içermez.
type RoleMiddleware struct{}

// NewRoleMiddleware, constructor.
func NewRoleMiddleware() *RoleMiddleware {
	return &RoleMiddleware{}
}

// Require, listedeki rollerden birini gerektiren middleware döner.
//
// Kullanım:
//
//	roleMiddleware.Require(cfg.Roles.Approve, http.HandlerFunc(invitationHandler.Approve))
func (m *RoleMiddleware) Require(roles []models.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(handlers.UserContextKey).(*models.User)
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
			return
		}

		for _, role := range roles {
			if user.Role == role {
				next.ServeHTTP(w, r)
				return
			}
		}

		pkg.ErrorWithMessage(w, http.StatusForbidden, "insufficient role")
	})
}
