package services

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
	"github.com/akinalp/puerta/pkg/codegen"
	"github.com/akinalp/puerta/ws"
)

// ─── Fakes ───

type fakeLedger struct {
	mu          sync.Mutex
	invitations []models.Invitation
}

func (f *fakeLedger) LoadAll(ctx context.Context) ([]models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Invitation, len(f.invitations))
	copy(out, f.invitations)
	return out, nil
}

func (f *fakeLedger) WithLock(ctx context.Context, fn func([]models.Invitation) ([]models.Invitation, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]models.Invitation, len(f.invitations))
	copy(cp, f.invitations)
	updated, err := fn(cp)
	if err != nil {
		return err
	}
	f.invitations = updated
	return nil
}

type fakeUserRepo struct {
	users map[string]models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error { return nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, pkg.ErrNotFound
}
func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, pkg.ErrNotFound
}
func (f *fakeUserRepo) GetAll(ctx context.Context) ([]models.User, error)         { return nil, nil }
func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id, hash string) error { return nil }
func (f *fakeUserRepo) Count(ctx context.Context) (int, error)                    { return len(f.users), nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id string) error               { return nil }

type fakeQREncoder struct {
	mu        sync.Mutex
	written   []string
	removed   []string
	failWrite bool
}

func (f *fakeQREncoder) Write(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errors.New("disk full")
	}
	f.written = append(f.written, code)
	return nil
}

func (f *fakeQREncoder) Remove(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, code)
	return nil
}

func (f *fakeQREncoder) Path(code string) string { return "/tmp/" + code + ".png" }

type fakePublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (f *fakePublisher) BroadcastToAll(event ws.Event) { f.record(event) }
func (f *fakePublisher) BroadcastToUser(userID string, event ws.Event) { f.record(event) }
func (f *fakePublisher) BroadcastToStaff(event ws.Event) { f.record(event) }
func (f *fakePublisher) GetOnlineUserIDs() []string { return nil }

func (f *fakePublisher) record(event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakePublisher) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, len(f.events))
	for i, e := range f.events {
		ops[i] = e.Op
	}
	return ops
}

type fakeNotifier struct {
	notified chan models.Invitation
}

func (f *fakeNotifier) NotifyApproved(ctx context.Context, inv models.Invitation, host models.User) error {
	f.notified <- inv
	return nil
}

// ─── Test Setup ───

var testClock = time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

func testHost() *models.User {
	return &models.User{
		ID:       "h1",
		Username: "juan",
		Name:     "Juan García",
		Lot:      "42",
		Role:     models.RoleAnfitrion,
	}
}

func testGuard() *models.User {
	return &models.User{
		ID:       "g1",
		Username: "porteria",
		Name:     "Puesto 1",
		Role:     models.RoleSeguridad,
	}
}

type fixture struct {
	svc       *invitationService
	ledger    *fakeLedger
	qr        *fakeQREncoder
	publisher *fakePublisher
	notifier  *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := &fakeLedger{}
	qrEnc := &fakeQREncoder{}
	publisher := &fakePublisher{}
	notifier := &fakeNotifier{notified: make(chan models.Invitation, 1)}
	users := &fakeUserRepo{users: map[string]models.User{"h1": *testHost(), "g1": *testGuard()}}
	logger := log.New(io.Discard, "", 0)

	svc := NewInvitationService(
		ledger, users, codegen.New(), qrEnc, notifier, publisher, logger,
		24*time.Hour,
		[]models.Role{models.RoleSeguridad, models.RoleAdministrador, models.RoleDeveloper},
	).(*invitationService)
	svc.now = func() time.Time { return testClock }

	return &fixture{svc: svc, ledger: ledger, qr: qrEnc, publisher: publisher, notifier: notifier}
}

func (fx *fixture) create(t *testing.T) *models.Invitation {
	t.Helper()
	inv, err := fx.svc.Create(context.Background(), testHost(), &models.CreateInvitationRequest{
		GuestName: "María López",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return inv
}

// ─── Create ───

func TestCreateInvitation(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	if len(inv.Code) != codegen.CodeLength {
		t.Errorf("code length = %d, want %d", len(inv.Code), codegen.CodeLength)
	}
	if inv.Status != models.StatusPending {
		t.Errorf("status = %s, want pendiente", inv.Status)
	}
	if inv.CreatedAt != testClock.Unix() {
		t.Errorf("created_at = %d, want %d", inv.CreatedAt, testClock.Unix())
	}
	if want := testClock.Add(24 * time.Hour).Unix(); inv.ExpiresAt != want {
		t.Errorf("default expires_at = %d, want %d", inv.ExpiresAt, want)
	}
	if inv.Host.ID != "h1" || inv.Host.Lot != "42" {
		t.Errorf("host ref not denormalized: %+v", inv.Host)
	}
	if inv.ApprovedAt != 0 {
		t.Errorf("approved_at = %d, want 0", inv.ApprovedAt)
	}

	if len(fx.qr.written) != 1 || fx.qr.written[0] != inv.Code {
		t.Errorf("qr written = %v, want [%s]", fx.qr.written, inv.Code)
	}
}

func TestCreateInvitationQRFailureDoesNotRollBack(t *testing.T) {
	fx := newFixture(t)
	fx.qr.failWrite = true

	inv := fx.create(t)

	stored, _ := fx.ledger.LoadAll(context.Background())
	if len(stored) != 1 || stored[0].Code != inv.Code {
		t.Fatalf("invitation not persisted after qr failure")
	}
}

func TestCreateInvitationValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, testHost(), &models.CreateInvitationRequest{GuestName: "   "})
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("empty guest name: err = %v, want ErrBadRequest", err)
	}

	_, err = fx.svc.Create(ctx, testHost(), &models.CreateInvitationRequest{
		GuestName: "Pedro",
		ExpiresAt: testClock.Add(-time.Hour).Unix(),
	})
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Errorf("past expiry: err = %v, want ErrBadRequest", err)
	}
}

// ─── Approve ───

func TestApprove(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	approved, err := fx.svc.Approve(context.Background(), testGuard(), inv.Code)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != models.StatusApproved {
		t.Errorf("status = %s, want aprobado", approved.Status)
	}
	if approved.ApprovedAt != testClock.Unix() {
		t.Errorf("approved_at = %d, want %d", approved.ApprovedAt, testClock.Unix())
	}

	select {
	case notified := <-fx.notifier.notified:
		if notified.Code != inv.Code {
			t.Errorf("notified code = %s, want %s", notified.Code, inv.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("approval notification never sent")
	}
}

func TestApproveTwiceReturnsCurrentRecord(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	if _, err := fx.svc.Approve(context.Background(), testGuard(), inv.Code); err != nil {
		t.Fatalf("first Approve: %v", err)
	}

	current, err := fx.svc.Approve(context.Background(), testGuard(), inv.Code)
	if !errors.Is(err, pkg.ErrAlreadyProcessed) {
		t.Fatalf("second Approve: err = %v, want ErrAlreadyProcessed", err)
	}
	if current == nil || current.Status != models.StatusApproved {
		t.Fatalf("rejection must carry current record, got %+v", current)
	}
}

func TestApproveExpiredWins(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	// Saat son kullanma anının bir saniye ötesine alınır.
	fx.svc.now = func() time.Time { return time.Unix(inv.ExpiresAt+1, 0) }

	current, err := fx.svc.Approve(context.Background(), testGuard(), inv.Code)
	if !errors.Is(err, pkg.ErrExpired) {
		t.Fatalf("Approve after expiry: err = %v, want ErrExpired", err)
	}
	if current == nil || current.Status != models.StatusExpired {
		t.Fatalf("current record should read expirado, got %+v", current)
	}

	// Kalıcı durum pendiente kalır — expirado asla yazılmaz.
	stored, _ := fx.ledger.LoadAll(context.Background())
	if stored[0].Status != models.StatusPending {
		t.Fatalf("persisted status = %s, want pendiente", stored[0].Status)
	}
}

func TestApproveCancelled(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	if _, err := fx.svc.Cancel(context.Background(), testHost(), inv.Code); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	_, err := fx.svc.Approve(context.Background(), testGuard(), inv.Code)
	if !errors.Is(err, pkg.ErrInvalidState) {
		t.Fatalf("Approve cancelled: err = %v, want ErrInvalidState", err)
	}
}

func TestApproveRequiresRole(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	_, err := fx.svc.Approve(context.Background(), testHost(), inv.Code)
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Fatalf("host Approve: err = %v, want ErrForbidden", err)
	}
}

func TestApproveUnknownCode(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Approve(context.Background(), testGuard(), "no-such-code")
	if !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("Approve unknown: err = %v, want ErrNotFound", err)
	}
}

func TestConcurrentApproveSingleWinner(t *testing.T) {
	fx := newFixture(t)
	fx.notifier.notified = make(chan models.Invitation, 10)
	inv := fx.create(t)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.svc.Approve(context.Background(), testGuard(), inv.Code)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, pkg.ErrAlreadyProcessed):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1 (conflicts = %d)", wins, conflicts)
	}
}

// ─── Cancel / Reactivate / Delete ───

func TestCancelByOtherHostForbidden(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	other := &models.User{ID: "h2", Username: "otro", Role: models.RoleAnfitrion}
	_, err := fx.svc.Cancel(context.Background(), other, inv.Code)
	if !errors.Is(err, pkg.ErrForbidden) {
		t.Fatalf("Cancel by other host: err = %v, want ErrForbidden", err)
	}
}

func TestCancelApprovedAllowed(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	if _, err := fx.svc.Approve(context.Background(), testGuard(), inv.Code); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	cancelled, err := fx.svc.Cancel(context.Background(), testGuard(), inv.Code)
	if err != nil {
		t.Fatalf("Cancel approved: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelado", cancelled.Status)
	}
}

func TestCancelTwiceInvalidState(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)
	ctx := context.Background()

	if _, err := fx.svc.Cancel(ctx, testHost(), inv.Code); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	current, err := fx.svc.Cancel(ctx, testHost(), inv.Code)
	if !errors.Is(err, pkg.ErrInvalidState) {
		t.Fatalf("second Cancel: err = %v, want ErrInvalidState", err)
	}
	if current == nil || current.Status != models.StatusCancelled {
		t.Fatalf("rejection must carry current record, got %+v", current)
	}
}

func TestCancelExpiredPendingAllowed(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	// Süre dolumu sadece onayı engeller — iptal hâlâ mümkündür.
	fx.svc.now = func() time.Time { return time.Unix(inv.ExpiresAt+1, 0) }

	cancelled, err := fx.svc.Cancel(context.Background(), testHost(), inv.Code)
	if err != nil {
		t.Fatalf("Cancel expired pending: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelado", cancelled.Status)
	}
}

func TestCancelReactivateCancelRoundTrip(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)
	ctx := context.Background()

	if _, err := fx.svc.Cancel(ctx, testHost(), inv.Code); err != nil {
		t.Fatalf("first Cancel: %v", err)
	}
	if _, err := fx.svc.Reactivate(ctx, testHost(), inv.Code, &models.ReactivateRequest{}); err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	final, err := fx.svc.Cancel(ctx, testHost(), inv.Code)
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if final.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelado", final.Status)
	}
}

func TestApproveReactivatedInvalidAfterApprove(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)
	ctx := context.Background()

	if _, err := fx.svc.Approve(ctx, testGuard(), inv.Code); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	_, err := fx.svc.Reactivate(ctx, testHost(), inv.Code, &models.ReactivateRequest{})
	if !errors.Is(err, pkg.ErrInvalidState) {
		t.Fatalf("Reactivate approved: err = %v, want ErrInvalidState", err)
	}
}

func TestReactivate(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)
	ctx := context.Background()

	if _, err := fx.svc.Cancel(ctx, testHost(), inv.Code); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	fresh := testClock.Add(48 * time.Hour).Unix()
	reactivated, err := fx.svc.Reactivate(ctx, testHost(), inv.Code, &models.ReactivateRequest{ExpiresAt: fresh})
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if reactivated.Status != models.StatusPending {
		t.Errorf("status = %s, want pendiente", reactivated.Status)
	}
	if reactivated.ExpiresAt != fresh {
		t.Errorf("expires_at = %d, want %d", reactivated.ExpiresAt, fresh)
	}
	if reactivated.ApprovedAt != 0 {
		t.Errorf("approved_at not reset: %d", reactivated.ApprovedAt)
	}
}

func TestReactivatePendingInvalid(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)

	_, err := fx.svc.Reactivate(context.Background(), testHost(), inv.Code, &models.ReactivateRequest{})
	if !errors.Is(err, pkg.ErrInvalidState) {
		t.Fatalf("Reactivate pending: err = %v, want ErrInvalidState", err)
	}
}

func TestDelete(t *testing.T) {
	fx := newFixture(t)
	inv := fx.create(t)
	ctx := context.Background()

	if err := fx.svc.Delete(ctx, testHost(), inv.Code); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	stored, _ := fx.ledger.LoadAll(ctx)
	if len(stored) != 0 {
		t.Fatalf("ledger not empty after delete: %+v", stored)
	}
	if len(fx.qr.removed) != 1 || fx.qr.removed[0] != inv.Code {
		t.Errorf("qr removed = %v, want [%s]", fx.qr.removed, inv.Code)
	}
	if err := fx.svc.Delete(ctx, testHost(), inv.Code); !errors.Is(err, pkg.ErrNotFound) {
		t.Errorf("second Delete: err = %v, want ErrNotFound", err)
	}
}
