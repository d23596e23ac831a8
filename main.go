// Package main, puerta backend uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//   1.  Config'i yükle
//   2.  Database'i başlat (kullanıcı dizini + oturumlar)
//   3.  Davet defterini aç (JSON dosyası + flock)
//   4.  QR encoder ve bildirim kanallarını kur
//   5.  WebSocket Hub'ı başlat
//   6.  Service'leri oluştur
//   7.  Handler'ları oluştur
//   8.  Middleware'ları oluştur
//   9.  HTTP router'ı kur, route'ları bağla
//  10.  CORS yapılandır
//  11.  HTTP Server'ı başlat
//  12.  Graceful shutdown
//
// Global değişken YOK — her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/puerta/config"
	"github.com/akinalp/puerta/database"
	"github.com/akinalp/puerta/handlers"
	"github.com/akinalp/puerta/middleware"
	"github.com/akinalp/puerta/pkg/codegen"
	"github.com/akinalp/puerta/pkg/notify"
	"github.com/akinalp/puerta/pkg/qr"
	"github.com/akinalp/puerta/pkg/ratelimit"
	"github.com/akinalp/puerta/repository"
	"github.com/akinalp/puerta/services"
	"github.com/akinalp/puerta/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] puerta server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database (kullanıcı dizini + oturumlar) ───
	migrationsFS, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}

	db, err := database.New(cfg.Database.Path, migrationsFS)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Davet Defteri ───
	//
	// Defter SQLite'ta değil, JSON dosyasında yaşar. Eşzamanlı yazmalar
	// flock ile seri hale getirilir; okumalar kilitsizdir.
	invitationRepo, err := repository.NewFileInvitationRepository(cfg.Ledger.Path, cfg.Ledger.LockTimeout)
	if err != nil {
		log.Fatalf("[main] failed to open invitation ledger: %v", err)
	}

	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	sessionRepo := repository.NewSQLiteSessionRepo(db.Conn)

	// ─── 4. QR Encoder + Bildirim Kanalları ───
	qrEncoder, err := qr.NewFileEncoder(cfg.QR.Dir, cfg.QR.Size)
	if err != nil {
		log.Fatalf("[main] failed to create qr directory: %v", err)
	}

	// Bildirim kanalları opsiyonel — config'de boş bırakılan kanal
	// devre dışı kalır. Hiç kanal yoksa notifier nil olur ve service
	// bildirimi atlar.
	notifyLogger := log.New(os.Stderr, "[notify] ", log.Ldate|log.Ltime)
	var channels []notify.Notifier
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
		log.Println("[main] telegram notifications enabled")
	}
	if cfg.Notify.WhatsAppURL != "" {
		channels = append(channels, notify.NewWhatsAppNotifier(cfg.Notify.WhatsAppURL))
		log.Println("[main] whatsapp notifications enabled")
	}
	if cfg.Notify.ResendAPIKey != "" {
		channels = append(channels, notify.NewEmailNotifier(cfg.Notify.ResendAPIKey, cfg.Notify.FromEmail))
		log.Println("[main] email notifications enabled")
	}
	var notifier notify.Notifier
	if len(channels) > 0 {
		notifier = notify.NewMulti(notifyLogger, channels...)
	}

	// ─── 5. WebSocket Hub ───
	//
	// Hub tüm bağlantıları yönetir ve EventPublisher interface'ini
	// implement eder — service'ler hub'a interface üzerinden erişir.
	// Davet event'leri personel terminallerine + ilgili anfitrion'a gider.
	hub := ws.NewHub()
	go hub.Run()

	// ─── 6. Service Layer ───
	authService := services.NewAuthService(
		db,
		userRepo,
		sessionRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	serviceLogger := log.New(os.Stderr, "[invitation] ", log.Ldate|log.Ltime)
	invitationService := services.NewInvitationService(
		invitationRepo,
		userRepo,
		codegen.New(),
		qrEncoder,
		notifier,
		hub,
		serviceLogger,
		cfg.Ledger.DefaultValidity,
		cfg.Roles.Approve,
	)
	invitationQuery := services.NewInvitationQuery(invitationRepo)

	userLogger := log.New(os.Stderr, "[users] ", log.Ldate|log.Ltime)
	userService := services.NewUserService(userRepo, userLogger)

	// İlk açılışta dizin boşsa admin kullanıcısını oluştur.
	if err := userService.EnsureBootstrap(context.Background(), cfg.Bootstrap.AdminPassword); err != nil {
		log.Fatalf("[main] bootstrap failed: %v", err)
	}

	// ─── 7. Handler Layer ───
	loginLimiter := ratelimit.NewLoginRateLimiter(5, 2*time.Minute)
	authHandler := handlers.NewAuthHandler(authService, loginLimiter)
	invitationHandler := handlers.NewInvitationHandler(invitationService, invitationQuery, cfg.Roles.ListAll)
	userHandler := handlers.NewUserHandler(userService)
	qrHandler := handlers.NewQRHandler(qrEncoder)
	wsHandler := ws.NewHandler(hub, authService)

	// ─── 8. Middleware ───
	authMiddleware := middleware.NewAuthMiddleware(authService, userRepo)
	roleMiddleware := middleware.NewRoleMiddleware()

	// ─── 9. HTTP Router ───
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","service":"puerta"}`)
	})

	// Auth — public endpoint'ler (token gerekmez)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)

	// Protected endpoint'ler — authMiddleware.Require() sarar
	mux.Handle("GET /api/users/me", authMiddleware.Require(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/change-password", authMiddleware.Require(
		http.HandlerFunc(authHandler.ChangePassword)))

	// Kullanıcı dizini (alta) — sadece yönetici rolleri
	mux.Handle("POST /api/users", authMiddleware.Require(
		roleMiddleware.Require(cfg.Roles.CreateUser, http.HandlerFunc(userHandler.Create))))
	mux.Handle("GET /api/users", authMiddleware.Require(
		roleMiddleware.Require(cfg.Roles.CreateUser, http.HandlerFunc(userHandler.List))))
	mux.Handle("DELETE /api/users/{id}", authMiddleware.Require(
		roleMiddleware.Require(cfg.Roles.CreateUser, http.HandlerFunc(userHandler.Delete))))

	// Davetler — rol kapsamı handler/service içinde çözülür:
	// liste personel için tümü, anfitrion için kendi kayıtları;
	// approve rol kontrolü service'de (cfg.Roles.Approve).
	mux.Handle("POST /api/invitations", authMiddleware.Require(
		http.HandlerFunc(invitationHandler.Create)))
	mux.Handle("GET /api/invitations", authMiddleware.Require(
		http.HandlerFunc(invitationHandler.List)))
	mux.Handle("GET /api/invitations/{code}", authMiddleware.Require(
		http.HandlerFunc(invitationHandler.Get)))
	mux.Handle("POST /api/invitations/{code}/approve", authMiddleware.Require(
		http.HandlerFunc(invitationHandler.Approve)))
	mux.Handle("POST /api/invitations/{code}/cancel", authMiddleware.Require(
		http.HandlerFunc(invitationHandler.Cancel)))
	mux.Handle("POST /api/invitations/{code}/reactivate", authMiddleware.Require(
		http.HandlerFunc(invitationHandler.Reactivate)))
	mux.Handle("DELETE /api/invitations/{code}", authMiddleware.Require(
		http.HandlerFunc(invitationHandler.Delete)))

	// QR PNG servisi
	mux.Handle("GET /api/qr/{file}", authMiddleware.Require(
		http.HandlerFunc(qrHandler.Serve)))

	// WebSocket — token query parameter ile authenticate edilir.
	// Upgrade sırasında tarayıcılar custom header gönderemediği için
	// JWT, ws://server/ws?token=... şeklinde taşınır.
	mux.HandleFunc("GET /ws", wsHandler.HandleConnection)

	// ─── 10. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := corsHandler.Handler(mux)

	// ─── 11. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Süresi geçmiş oturumları periyodik temizle.
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				n, err := sessionRepo.DeleteExpired(cleanupCtx, time.Now())
				if err != nil {
					log.Printf("[main] session cleanup error: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("[main] cleaned up %d expired sessions", n)
				}
			}
		}
	}()

	// ─── 12. Graceful Shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	// Önce WebSocket bağlantılarını kapat, sonra HTTP server'ı —
	// mevcut request'lerin bitmesi için 5sn tanınır.
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
