// Package notify, davet onaylarını dış kanallara duyurur.
//
// Tüm kanallar best-effort çalışır: bildirim hatası onay işlemini
// asla geri almaz, sadece loglanır. Service katmanı Notifier
// interface'ine bağımlıdır, somut kanallara değil.
package notify

import (
	"context"
	"log"

	"github.com/akinalp/puerta/models"
)

// Notifier, onay bildirimi gönderen kanal.
type Notifier interface {
	// NotifyApproved, onaylanmış davet için bildirim gönderir.
	NotifyApproved(ctx context.Context, inv models.Invitation, host models.User) error
}

// Multi, birden fazla kanala sırayla gönderen fan-out Notifier.
// Bir kanalın hatası diğerlerini durdurmaz.
type Multi struct {
	notifiers []Notifier
	logger    *log.Logger
}

// NewMulti, verilen kanalları saran bir Multi döner.
func NewMulti(logger *log.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) NotifyApproved(ctx context.Context, inv models.Invitation, host models.User) error {
	for _, n := range m.notifiers {
		if err := n.NotifyApproved(ctx, inv, host); err != nil {
			m.logger.Printf("[notify] kanal hatası (code=%s): %v", inv.Code, err)
		}
	}
	return nil
}
