package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
)

func seedLedger() *fakeLedger {
	host := models.HostRef{ID: "h1", Username: "juan", Name: "Juan García", Lot: "42"}
	otherHost := models.HostRef{ID: "h2", Username: "otro", Name: "Otro Vecino", Lot: "7"}

	base := testClock.Unix()
	return &fakeLedger{invitations: []models.Invitation{
		{Code: "aaa", GuestName: "María", Host: host, CreatedAt: base - 300, ExpiresAt: base + 3600, Status: models.StatusPending},
		{Code: "bbb", GuestName: "Pedro", Host: host, CreatedAt: base - 200, ExpiresAt: base - 60, Status: models.StatusPending}, // süresi geçmiş
		{Code: "ccc", GuestName: "Lucía", Host: otherHost, CreatedAt: base - 100, ExpiresAt: base + 3600, Status: models.StatusApproved, ApprovedAt: base - 50},
	}}
}

func newQuery(ledger *fakeLedger) InvitationQuery {
	return NewInvitationQueryWithClock(ledger, func() time.Time { return testClock })
}

func TestFindByCodeDerivesExpired(t *testing.T) {
	q := newQuery(seedLedger())
	ctx := context.Background()

	inv, err := q.FindByCode(ctx, "bbb")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if inv.Status != models.StatusExpired {
		t.Errorf("status = %s, want expirado (derived)", inv.Status)
	}

	inv, err = q.FindByCode(ctx, "aaa")
	if err != nil {
		t.Fatalf("FindByCode: %v", err)
	}
	if inv.Status != models.StatusPending {
		t.Errorf("status = %s, want pendiente", inv.Status)
	}
}

func TestFindByCodeNotFound(t *testing.T) {
	q := newQuery(seedLedger())

	_, err := q.FindByCode(context.Background(), "zzz")
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByHost(t *testing.T) {
	q := newQuery(seedLedger())

	list, err := q.ListByHost(context.Background(), "h1")
	if err != nil {
		t.Fatalf("ListByHost: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	// Yeniden eskiye sıralı
	if list[0].Code != "bbb" || list[1].Code != "aaa" {
		t.Errorf("order = [%s %s], want [bbb aaa]", list[0].Code, list[1].Code)
	}
}

func TestListByHostEmpty(t *testing.T) {
	q := newQuery(seedLedger())

	list, err := q.ListByHost(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("ListByHost: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("want empty non-nil slice, got %v", list)
	}
}

func TestListAll(t *testing.T) {
	q := newQuery(seedLedger())

	list, err := q.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].Code != "ccc" {
		t.Errorf("newest first: got %s, want ccc", list[0].Code)
	}

	statuses := map[string]models.InvitationStatus{}
	for _, inv := range list {
		statuses[inv.Code] = inv.Status
	}
	if statuses["bbb"] != models.StatusExpired {
		t.Errorf("bbb status = %s, want expirado", statuses["bbb"])
	}
	if statuses["ccc"] != models.StatusApproved {
		t.Errorf("ccc status = %s, want aprobado", statuses["ccc"])
	}
}
