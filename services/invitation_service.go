// Package services — InvitationService: davet yaşam döngüsü iş mantığı.
//
// Oluşturma, onaylama, iptal, yeniden aktifleştirme ve silme.
// Tüm mutasyonlar defter kilidi altında (repository.WithLock) çalışır:
// durum kontrolü ve yazma aynı kritik bölgededir, iki kapı terminali
// aynı kodu aynı anda onaylamaya çalışsa bile sadece biri kazanır.
//
// QR üretimi ve bildirimler best-effort: hataları davet işlemini
// geri almaz, loglanır.
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
	"github.com/akinalp/puerta/pkg/codegen"
	"github.com/akinalp/puerta/pkg/notify"
	"github.com/akinalp/puerta/pkg/qr"
	"github.com/akinalp/puerta/repository"
	"github.com/akinalp/puerta/ws"
)

// maxCodeRetries, kod çakışmasında yeniden üretme denemesi üst sınırı.
// 20 hex karakterlik uzayda çakışma pratikte imkânsız — bu sınıra
// çarpmak üreticinin bozulduğu anlamına gelir.
const maxCodeRetries = 5

// InvitationService, davet yaşam döngüsü interface'i.
//
// Mutasyon metodları iş reddi durumunda hem hatayı hem kaydın güncel
// halini döner: handler ikisini birden yanıta koyar, UI neyin neden
// reddedildiğini tek round-trip'te gösterir.
type InvitationService interface {
	// Create, actor adına yeni bir davet oluşturur.
	Create(ctx context.Context, actor *models.User, req *models.CreateInvitationRequest) (*models.Invitation, error)

	// Approve, kapıda QR okutulduğunda daveti onaylar.
	// Sadece yetkili rollere açıktır (config ROLES_APPROVE).
	Approve(ctx context.Context, actor *models.User, code string) (*models.Invitation, error)

	// Cancel, pendiente veya aprobado bir daveti iptal eder.
	Cancel(ctx context.Context, actor *models.User, code string) (*models.Invitation, error)

	// Reactivate, cancelado bir daveti pendiente'ye döndürür.
	// req.ExpiresAt verilirse son kullanma tarihi de yenilenir.
	Reactivate(ctx context.Context, actor *models.User, code string, req *models.ReactivateRequest) (*models.Invitation, error)

	// Delete, daveti defterden ve QR görselini diskten kaldırır.
	Delete(ctx context.Context, actor *models.User, code string) error
}

type invitationService struct {
	repo         repository.InvitationRepository
	userRepo     repository.UserRepository
	codegen      *codegen.Generator
	qrEncoder    qr.Encoder
	notifier     notify.Notifier
	publisher    ws.EventPublisher
	logger       *log.Logger
	now          func() time.Time
	validity     time.Duration
	approveRoles []models.Role
}

// NewInvitationService, constructor.
//
// notifier ve publisher nil olabilir — bildirim kanalları ve WebSocket
// dağıtımı opsiyoneldir, testlerde genelde verilmez.
func NewInvitationService(
	repo repository.InvitationRepository,
	userRepo repository.UserRepository,
	gen *codegen.Generator,
	qrEncoder qr.Encoder,
	notifier notify.Notifier,
	publisher ws.EventPublisher,
	logger *log.Logger,
	validity time.Duration,
	approveRoles []models.Role,
) InvitationService {
	return &invitationService{
		repo:         repo,
		userRepo:     userRepo,
		codegen:      gen,
		qrEncoder:    qrEncoder,
		notifier:     notifier,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
		validity:     validity,
		approveRoles: approveRoles,
	}
}

// Create, yeni bir davet oluşturur.
//
// İş kuralları:
// 1. Request validasyonu; son kullanma tarihi verilmemişse varsayılan süre
// 2. Kilit altında benzersiz kod üret — çakışmada maxCodeRetries deneme
// 3. Kaydı deftere ekle
// 4. QR PNG üret (best-effort) ve event broadcast et
func (s *invitationService) Create(ctx context.Context, actor *models.User, req *models.CreateInvitationRequest) (*models.Invitation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := req.ExpiresAt
	if expiresAt == 0 {
		expiresAt = now.Add(s.validity).Unix()
	}
	if expiresAt <= now.Unix() {
		return nil, fmt.Errorf("%w: fecha_expiracion in the past", pkg.ErrBadRequest)
	}

	var created models.Invitation
	err := s.repo.WithLock(ctx, func(invitations []models.Invitation) ([]models.Invitation, error) {
		code, err := s.uniqueCode(invitations, req.GuestName, actor.ID)
		if err != nil {
			return nil, err
		}

		created = models.Invitation{
			Code:      code,
			GuestName: req.GuestName,
			Host:      actor.HostRef(),
			CreatedAt: now.Unix(),
			ExpiresAt: expiresAt,
			Status:    models.StatusPending,
		}
		return append(invitations, created), nil
	})
	if err != nil {
		return nil, err
	}

	// QR hatası daveti geri almaz — kod yanıtta zaten var,
	// görsel sonradan tekrar üretilebilir.
	if s.qrEncoder != nil {
		if err := s.qrEncoder.Write(created.Code); err != nil {
			s.logger.Printf("[invitation] qr write failed (code=%s): %v", created.Code, err)
		}
	}

	s.broadcast(ws.OpInvitationCreated, created, now)
	s.logger.Printf("[invitation] created: code=%s host=%s guest=%q", created.Code, actor.Username, created.GuestName)
	return &created, nil
}

// uniqueCode, mevcut defterle çakışmayan bir kod üretir.
// Defter kilidi altında çağrılır — üretim ile ekleme arasında başka
// yazıcı giremez.
func (s *invitationService) uniqueCode(invitations []models.Invitation, guestName, hostID string) (string, error) {
	existing := make(map[string]bool, len(invitations))
	for _, inv := range invitations {
		existing[inv.Code] = true
	}

	for i := 0; i < maxCodeRetries; i++ {
		code, degraded, err := s.codegen.Generate(guestName, hostID)
		if err != nil {
			return "", fmt.Errorf("%w: generate code: %v", pkg.ErrInternal, err)
		}
		if degraded {
			s.logger.Printf("[invitation] csprng unavailable, degraded code generation")
		}
		if !existing[code] {
			return code, nil
		}
		s.logger.Printf("[invitation] code collision, retrying (%d/%d)", i+1, maxCodeRetries)
	}
	return "", pkg.ErrCodeSpaceExhausted
}

// Approve, daveti onaylar.
//
// Durum geçişi kilit altında kontrol edilir: süre dolumu onaya karşı
// her zaman kazanır — son kullanma anı geçmiş pendiente bir kayıt
// ErrExpired ile reddedilir, aprobado'ya asla geçmez.
func (s *invitationService) Approve(ctx context.Context, actor *models.User, code string) (*models.Invitation, error) {
	if !s.canApprove(actor) {
		return nil, pkg.ErrForbidden
	}

	now := s.now()
	var approved models.Invitation
	current, err := s.mutate(ctx, code, func(inv *models.Invitation) error {
		switch inv.EffectiveStatus(now) {
		case models.StatusApproved:
			return pkg.ErrAlreadyProcessed
		case models.StatusCancelled:
			return pkg.ErrInvalidState
		case models.StatusExpired:
			return pkg.ErrExpired
		}
		inv.Status = models.StatusApproved
		inv.ApprovedAt = now.Unix()
		approved = *inv
		return nil
	})
	if err != nil {
		return current, err
	}

	// Bildirimler fire-and-forget: kapıdaki terminali bekletmeyiz.
	if s.notifier != nil {
		go s.notifyApproved(approved)
	}

	s.broadcast(ws.OpInvitationApproved, approved, now)
	s.logger.Printf("[invitation] approved: code=%s by=%s guest=%q", code, actor.Username, approved.GuestName)
	return &approved, nil
}

// Cancel, daveti iptal eder. Anfitrion sadece kendi davetini iptal
// edebilir; staff roller herkesinkini. Süresi geçmiş pendiente bir kayıt
// da iptal edilebilir — süre dolumu sadece onayı engeller.
func (s *invitationService) Cancel(ctx context.Context, actor *models.User, code string) (*models.Invitation, error) {
	now := s.now()
	var cancelled models.Invitation
	current, err := s.mutate(ctx, code, func(inv *models.Invitation) error {
		if !s.canManage(actor, inv) {
			return pkg.ErrForbidden
		}
		if !inv.CanCancel() {
			return pkg.ErrInvalidState
		}
		inv.Status = models.StatusCancelled
		cancelled = *inv
		return nil
	})
	if err != nil {
		return current, err
	}

	s.broadcast(ws.OpInvitationCancelled, cancelled, now)
	s.logger.Printf("[invitation] cancelled: code=%s by=%s", code, actor.Username)
	return &cancelled, nil
}

// Reactivate, cancelado bir daveti pendiente'ye döndürür.
//
// Yeni tarih verilmezse eski ExpiresAt korunur — tarih geçmişteyse
// kayıt pendiente olur ama okumada hemen expirado görünür; anfitrion
// bunun üzerine taze bir tarihle tekrar çağırabilir.
func (s *invitationService) Reactivate(ctx context.Context, actor *models.User, code string, req *models.ReactivateRequest) (*models.Invitation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	var reactivated models.Invitation
	current, err := s.mutate(ctx, code, func(inv *models.Invitation) error {
		if !s.canManage(actor, inv) {
			return pkg.ErrForbidden
		}
		if !inv.CanReactivate(now) {
			return pkg.ErrInvalidState
		}
		inv.Status = models.StatusPending
		inv.ApprovedAt = 0
		if req.ExpiresAt != 0 {
			inv.ExpiresAt = req.ExpiresAt
		}
		reactivated = *inv
		return nil
	})
	if err != nil {
		return current, err
	}

	s.broadcast(ws.OpInvitationReactivated, reactivated, now)
	s.logger.Printf("[invitation] reactivated: code=%s by=%s", code, actor.Username)
	return &reactivated, nil
}

// Delete, daveti defterden kaldırır ve QR görselini siler.
func (s *invitationService) Delete(ctx context.Context, actor *models.User, code string) error {
	err := s.repo.WithLock(ctx, func(invitations []models.Invitation) ([]models.Invitation, error) {
		idx := findByCode(invitations, code)
		if idx < 0 {
			return nil, pkg.ErrNotFound
		}
		if !s.canManage(actor, &invitations[idx]) {
			return nil, pkg.ErrForbidden
		}
		return append(invitations[:idx], invitations[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	if s.qrEncoder != nil {
		if err := s.qrEncoder.Remove(code); err != nil {
			s.logger.Printf("[invitation] qr remove failed (code=%s): %v", code, err)
		}
	}

	if s.publisher != nil {
		s.publisher.BroadcastToStaff(ws.Event{
			Op:   ws.OpInvitationDeleted,
			Data: map[string]string{"code": code},
		})
	}
	s.logger.Printf("[invitation] deleted: code=%s by=%s", code, actor.Username)
	return nil
}

// mutate, tek bir kaydı kilit altında bulur ve fn'e verir.
// fn iş reddi dönerse kaydın o anki hali de geri verilir —
// handler reddi güncel kayıtla birlikte yanıtlar.
func (s *invitationService) mutate(ctx context.Context, code string, fn func(inv *models.Invitation) error) (*models.Invitation, error) {
	var snapshot *models.Invitation
	err := s.repo.WithLock(ctx, func(invitations []models.Invitation) ([]models.Invitation, error) {
		idx := findByCode(invitations, code)
		if idx < 0 {
			return nil, pkg.ErrNotFound
		}
		if err := fn(&invitations[idx]); err != nil {
			current := invitations[idx].WithEffectiveStatus(s.now())
			snapshot = &current
			return nil, err
		}
		return invitations, nil
	})
	if err != nil {
		return snapshot, err
	}
	return snapshot, nil
}

func findByCode(invitations []models.Invitation, code string) int {
	for i := range invitations {
		if invitations[i].Code == code {
			return i
		}
	}
	return -1
}

func (s *invitationService) canApprove(actor *models.User) bool {
	for _, r := range s.approveRoles {
		if actor.Role == r {
			return true
		}
	}
	return false
}

// canManage, actor'ün kayıt üzerinde yönetim yetkisi var mı kontrol eder:
// kaydın sahibi veya staff rol.
func (s *invitationService) canManage(actor *models.User, inv *models.Invitation) bool {
	return actor.ID == inv.Host.ID || actor.Role.IsStaff()
}

// notifyApproved, host'un güncel iletişim bilgilerini çekip tüm
// kanallara bildirim gönderir. Ayrı goroutine'de çalışır.
func (s *invitationService) notifyApproved(inv models.Invitation) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	host, err := s.userRepo.GetByID(ctx, inv.Host.ID)
	if err != nil {
		// Host silinmiş olabilir — defterdeki denormalize kopya ile devam.
		s.logger.Printf("[invitation] notify: host lookup failed (code=%s): %v", inv.Code, err)
		host = &models.User{
			ID:       inv.Host.ID,
			Username: inv.Host.Username,
			Name:     inv.Host.Name,
			Lot:      inv.Host.Lot,
		}
	}

	if err := s.notifier.NotifyApproved(ctx, inv, *host); err != nil {
		s.logger.Printf("[invitation] notify failed (code=%s): %v", inv.Code, err)
	}
}

// broadcast, defter olayını staff terminallerine ve kaydın sahibine iletir.
func (s *invitationService) broadcast(op string, inv models.Invitation, now time.Time) {
	if s.publisher == nil {
		return
	}
	payload := inv.WithEffectiveStatus(now)
	s.publisher.BroadcastToStaff(ws.Event{Op: op, Data: payload})
	s.publisher.BroadcastToUser(inv.Host.ID, ws.Event{Op: op, Data: payload})
}
