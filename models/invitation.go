package models

import (
	"strings"
	"time"

	"github.com/akinalp/puerta/pkg"
)

// InvitationStatus, bir davetin yaşam döngüsündeki durumu.
// Kalıcı durumlar sadece üç tane: pendiente, aprobado, cancelado.
// Expirado hiçbir zaman diske yazılmaz — okuma anında türetilir,
// böylece süre dolumu için arka plan işine gerek kalmaz.
type InvitationStatus string

const (
	StatusPending   InvitationStatus = "pendiente"
	StatusApproved  InvitationStatus = "aprobado"
	StatusCancelled InvitationStatus = "cancelado"
	StatusExpired   InvitationStatus = "expirado" // sadece türetilmiş, asla persist edilmez
)

// HostRef, davetin sahibi olan konut sakininin defter kaydına gömülen kopyası.
// Kullanıcı dizininden denormalize edilir: kullanıcı sonradan silinse bile
// defter kaydı kimin davet ettiğini göstermeye devam eder.
type HostRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Lot      string `json:"lote"`
}

// Invitation, defterdeki tek bir davet kaydı.
// Zaman alanları epoch saniye olarak tutulur — wire format ile
// disk formatı birebir aynıdır.
type Invitation struct {
	Code       string           `json:"code"`
	GuestName  string           `json:"invitado_nombre"`
	Host       HostRef          `json:"anfitrion"`
	CreatedAt  int64            `json:"fecha_creacion"`
	ExpiresAt  int64            `json:"fecha_expiracion"`
	Status     InvitationStatus `json:"status"`
	ApprovedAt int64            `json:"fecha_aprobacion"` // 0 = henüz onaylanmadı
}

// EffectiveStatus, verilen ana göre davetin etkin durumunu hesaplar.
// Pendiente bir davetin süresi geçmişse expirado döner;
// aprobado ve cancelado son durumlardır, süre onları etkilemez.
func (i *Invitation) EffectiveStatus(now time.Time) InvitationStatus {
	if i.Status == StatusPending && now.Unix() > i.ExpiresAt {
		return StatusExpired
	}
	return i.Status
}

// WithEffectiveStatus, Status alanı etkin duruma çözümlenmiş bir kopya döner.
// API yanıtları ham kalıcı durumu değil hep bunu kullanır.
func (i Invitation) WithEffectiveStatus(now time.Time) Invitation {
	i.Status = i.EffectiveStatus(now)
	return i
}

// CanCancel, davetin iptal edilebilir olup olmadığını kontrol eder.
// Kalıcı durum üzerinden bakılır: pendiente ve aprobado iptal edilebilir —
// süresi geçmiş pendiente bir kayıt da iptal edilebilir, süre dolumu
// sadece onayı engeller.
func (i *Invitation) CanCancel() bool {
	return i.Status == StatusPending || i.Status == StatusApproved
}

// CanReactivate, sadece cancelado durumundan dönüş olup olmadığını kontrol eder.
func (i *Invitation) CanReactivate(now time.Time) bool {
	return i.EffectiveStatus(now) == StatusCancelled
}

// CreateInvitationRequest, davet oluşturma isteği.
// ExpiresAt verilmezse config'deki varsayılan geçerlilik süresi uygulanır.
type CreateInvitationRequest struct {
	GuestName string `json:"invitado_nombre"`
	ExpiresAt int64  `json:"fecha_expiracion,omitempty"`
}

// Validate, istek alanlarını kontrol eder.
func (r *CreateInvitationRequest) Validate() error {
	r.GuestName = strings.TrimSpace(r.GuestName)
	if r.GuestName == "" {
		return pkg.ErrBadRequest
	}
	if len(r.GuestName) > 120 {
		return pkg.ErrBadRequest
	}
	if r.ExpiresAt < 0 {
		return pkg.ErrBadRequest
	}
	return nil
}

// ReactivateRequest, iptal edilmiş bir daveti geri açma isteği.
// ExpiresAt 0 ise eski son kullanma tarihi korunur — tarih geçmişteyse
// kayıt pendiente'ye döner ama okumada hemen expirado görünür.
type ReactivateRequest struct {
	ExpiresAt int64 `json:"fecha_expiracion,omitempty"`
}

// Validate, istek alanlarını kontrol eder.
func (r *ReactivateRequest) Validate() error {
	if r.ExpiresAt < 0 {
		return pkg.ErrBadRequest
	}
	return nil
}
