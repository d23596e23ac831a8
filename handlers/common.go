// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler'ın görevi ince olmalı:
// 1. Request body'yi parse et (JSON → struct)
// 2. Service katmanını çağır
// 3. Sonucu HTTP response olarak döndür
//
// Handler ASLA iş mantığı içermez, ASLA doğrudan DB'ye veya defter
// dosyasına erişmez. Tüm akıl service'de, handler sadece köprü.
package handlers

import (
	"net/http"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
)

// contextKey, context.Value çakışmalarını önlemek için özel key tipi.
type contextKey string

// UserContextKey, context'te doğrulanmış kullanıcıyı taşıyan key.
// AuthMiddleware tarafından eklenir.
const UserContextKey contextKey = "user"

// currentUser, context'ten doğrulanmış kullanıcıyı çıkarır.
// Auth middleware'den geçmemiş bir route'ta çağrılırsa 401 yazar
// ve false döner.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}
