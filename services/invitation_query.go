// Package services — InvitationQuery: defter okuma işlemleri.
//
// Okumalar kilit almaz: dosya atomik rename ile yazıldığı için her
// okuma tutarlı bir snapshot görür. Tüm sonuçlar etkin durumla
// (expirado dahil) döner — ham kalıcı durum API'ye hiç sızmaz.
package services

import (
	"context"
	"sort"
	"time"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
	"github.com/akinalp/puerta/repository"
)

// InvitationQuery, defter okuma interface'i.
type InvitationQuery interface {
	// FindByCode, kodu verilen daveti etkin durumuyla döner.
	FindByCode(ctx context.Context, code string) (*models.Invitation, error)

	// ListByHost, bir anfitrionun davetlerini yeniden eskiye sıralı döner.
	ListByHost(ctx context.Context, hostID string) ([]models.Invitation, error)

	// ListAll, tüm defteri yeniden eskiye sıralı döner.
	// Handler katmanı bunu staff rollere kısıtlar.
	ListAll(ctx context.Context) ([]models.Invitation, error)
}

type invitationQuery struct {
	repo repository.InvitationRepository
	now  func() time.Time
}

// NewInvitationQuery, constructor.
func NewInvitationQuery(repo repository.InvitationRepository) InvitationQuery {
	return &invitationQuery{repo: repo, now: time.Now}
}

// NewInvitationQueryWithClock, testler için saat enjeksiyonlu constructor.
func NewInvitationQueryWithClock(repo repository.InvitationRepository, now func() time.Time) InvitationQuery {
	return &invitationQuery{repo: repo, now: now}
}

func (s *invitationQuery) FindByCode(ctx context.Context, code string) (*models.Invitation, error) {
	invitations, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	idx := findByCode(invitations, code)
	if idx < 0 {
		return nil, pkg.ErrNotFound
	}

	inv := invitations[idx].WithEffectiveStatus(s.now())
	return &inv, nil
}

func (s *invitationQuery) ListByHost(ctx context.Context, hostID string) ([]models.Invitation, error) {
	invitations, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]models.Invitation, 0)
	for _, inv := range invitations {
		if inv.Host.ID == hostID {
			result = append(result, inv.WithEffectiveStatus(now))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

func (s *invitationQuery) ListAll(ctx context.Context) ([]models.Invitation, error) {
	invitations, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]models.Invitation, 0, len(invitations))
	for _, inv := range invitations {
		result = append(result, inv.WithEffectiveStatus(now))
	}
	sortNewestFirst(result)
	return result, nil
}

func sortNewestFirst(invitations []models.Invitation) {
	sort.SliceStable(invitations, func(i, j int) bool {
		return invitations[i].CreatedAt > invitations[j].CreatedAt
	})
}
