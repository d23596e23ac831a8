// Package repository — InvitationRepository interface.
//
// Davet defteri için erişim soyutlaması. Defter küçük bir JSON
// dosyasıdır: tüm kayıtlar tek seferde okunur, mutasyonlar dosya
// kilidi altında read-modify-write olarak yapılır.
package repository

import (
	"context"

	"github.com/akinalp/puerta/models"
)

// InvitationRepository, davet defteri işlemleri için interface.
type InvitationRepository interface {
	// LoadAll, defterin tamamını okur. Kilit almaz — atomik rename
	// sayesinde okuyucular her zaman tutarlı bir snapshot görür.
	LoadAll(ctx context.Context) ([]models.Invitation, error)

	// WithLock, defteri exclusive kilit altında okur, fn'e verir ve
	// fn'in döndürdüğü listeyi atomik olarak geri yazar. fn hata
	// dönerse defter dokunulmadan bırakılır.
	WithLock(ctx context.Context, fn func(invitations []models.Invitation) ([]models.Invitation, error)) error
}
