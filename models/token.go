package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, access token'ın içindeki JWT claim'leri.
// Role claim'de taşınır ama yetki kontrolü her istekte DB'deki
// güncel role göre yapılır — token'daki sadece bilgi amaçlı.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair, login ve refresh yanıtlarında dönen token çifti.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // access token ömrü, saniye
}

// LoginResponse, başarılı oturum açma yanıtı.
type LoginResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// RefreshRequest, access token yenileme isteği.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
