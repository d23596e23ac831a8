// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/akinalp/puerta/models"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
// Her alt bölüm ayrı bir struct — her struct tek bir concern'ü temsil eder.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Ledger    LedgerConfig
	QR        QRConfig
	Notify    NotifyConfig
	Roles     RolesConfig
	Bootstrap BootstrapConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig, SQLite database ayarları.
// SQLite sadece kullanıcı dizini ve oturumlar için —
// davet defteri ayrı bir JSON dosyasında yaşar (LedgerConfig).
type DatabaseConfig struct {
	Path string // SQLite dosya yolu (ör: ./data/puerta.db)
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret             string // Token imzalama anahtarı — GİZLİ TUTULMALI
	AccessTokenExpiry  int    // Dakika cinsinden (varsayılan: 15)
	RefreshTokenExpiry int    // Gün cinsinden (varsayılan: 7)
}

// LedgerConfig, davet defteri ayarları.
type LedgerConfig struct {
	Path            string        // Defter JSON dosya yolu
	LockTimeout     time.Duration // flock alma denemeleri için üst sınır
	DefaultValidity time.Duration // istekte tarih verilmezse uygulanan geçerlilik
}

// QRConfig, QR kod üretim ayarları.
type QRConfig struct {
	Dir  string // PNG'lerin yazılacağı dizin
	Size int    // Piksel cinsinden kenar uzunluğu
}

// NotifyConfig, onay bildirimleri için dış servis ayarları.
// Boş bırakılan kanal devre dışı kalır — bildirimler best-effort.
type NotifyConfig struct {
	TelegramToken  string
	TelegramChatID string
	WhatsAppURL    string // WhatsApp köprüsünün endpoint'i
	ResendAPIKey   string
	FromEmail      string
}

// RolesConfig, operasyon başına izinli rol listeleri.
// Varsayılanlar korunaklı site senaryosuna göre ayarlı ama
// env üzerinden ince ayar yapılabilir.
type RolesConfig struct {
	Approve    []models.Role // davet onaylama
	ListAll    []models.Role // tüm defteri görüntüleme
	CreateUser []models.Role // yeni kullanıcı kaydı (alta)
}

// BootstrapConfig, boş kullanıcı dizinini ilk açılışta doldurmak için.
type BootstrapConfig struct {
	AdminPassword string // boşsa bootstrap atlanır
}

// Load, environment variable'lardan Config oluşturur.
// .env dosyası varsa önce onu yükler (development kolaylığı için).
func Load() (*Config, error) {
	// .env dosyasını yükle — dosya yoksa hata vermez, sessizce devam eder.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "9090"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	refreshExpiry, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRY_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRY_DAYS: %w", err)
	}

	lockTimeout, err := time.ParseDuration(getEnv("LEDGER_LOCK_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_LOCK_TIMEOUT: %w", err)
	}

	validityHours, err := strconv.Atoi(getEnv("INVITATION_VALIDITY_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid INVITATION_VALIDITY_HOURS: %w", err)
	}

	qrSize, err := strconv.Atoi(getEnv("QR_SIZE", "256"))
	if err != nil {
		return nil, fmt.Errorf("invalid QR_SIZE: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	approveRoles, err := parseRoles(getEnv("ROLES_APPROVE", "seguridad,administrador,developer"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLES_APPROVE: %w", err)
	}
	listAllRoles, err := parseRoles(getEnv("ROLES_LIST_ALL", "seguridad,administrador,developer"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLES_LIST_ALL: %w", err)
	}
	createUserRoles, err := parseRoles(getEnv("ROLES_CREATE_USER", "administrador,developer"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLES_CREATE_USER: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/puerta.db"),
		},
		JWT: JWTConfig{
			Secret:             jwtSecret,
			AccessTokenExpiry:  accessExpiry,
			RefreshTokenExpiry: refreshExpiry,
		},
		Ledger: LedgerConfig{
			Path:            getEnv("LEDGER_PATH", "./data/invitations.json"),
			LockTimeout:     lockTimeout,
			DefaultValidity: time.Duration(validityHours) * time.Hour,
		},
		QR: QRConfig{
			Dir:  getEnv("QR_DIR", "./data/qr"),
			Size: qrSize,
		},
		Notify: NotifyConfig{
			TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID: getEnv("TELEGRAM_CHAT_ID", ""),
			WhatsAppURL:    getEnv("WHATSAPP_BRIDGE_URL", ""),
			ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
			FromEmail:      getEnv("FROM_EMAIL", "puerta@localhost"),
		},
		Roles: RolesConfig{
			Approve:    approveRoles,
			ListAll:    listAllRoles,
			CreateUser: createUserRoles,
		},
		Bootstrap: BootstrapConfig{
			AdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		},
	}

	return cfg, nil
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// parseRoles, virgülle ayrılmış rol listesini çözümler.
func parseRoles(s string) ([]models.Role, error) {
	parts := strings.Split(s, ",")
	roles := make([]models.Role, 0, len(parts))
	for _, p := range parts {
		r := models.Role(strings.TrimSpace(p))
		if r == "" {
			continue
		}
		if !models.ValidRole(r) {
			return nil, fmt.Errorf("unknown role %q", r)
		}
		roles = append(roles, r)
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("empty role list")
	}
	return roles, nil
}

// getEnv, environment variable'ı okur, yoksa fallback değeri döner.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
