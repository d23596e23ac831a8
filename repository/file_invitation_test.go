package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
)

func newTestRepo(t *testing.T) InvitationRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invitations.json")
	repo, err := NewFileInvitationRepository(path, 2*time.Second)
	if err != nil {
		t.Fatalf("NewFileInvitationRepository: %v", err)
	}
	return repo
}

func TestLoadAllEmptyLedger(t *testing.T) {
	repo := newTestRepo(t)

	invitations, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(invitations) != 0 {
		t.Fatalf("expected empty ledger, got %d records", len(invitations))
	}
}

func TestWithLockRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inv := models.Invitation{
		Code:      "abc123def456abc123de",
		GuestName: "María López",
		Host: models.HostRef{
			ID:       "u1",
			Username: "juan",
			Name:     "Juan García",
			Lot:      "42",
		},
		CreatedAt: 1700000000,
		ExpiresAt: 1700086400,
		Status:    models.StatusPending,
	}

	err := repo.WithLock(ctx, func(invitations []models.Invitation) ([]models.Invitation, error) {
		return append(invitations, inv), nil
	})
	if err != nil {
		t.Fatalf("WithLock: %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 record, got %d", len(loaded))
	}
	if loaded[0] != inv {
		t.Fatalf("round-trip mismatch:\ngot  %+v\nwant %+v", loaded[0], inv)
	}
}

func TestWithLockErrorLeavesLedgerUntouched(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := models.Invitation{Code: "seed", Status: models.StatusPending}
	if err := repo.WithLock(ctx, func(inv []models.Invitation) ([]models.Invitation, error) {
		return append(inv, seed), nil
	}); err != nil {
		t.Fatalf("seed WithLock: %v", err)
	}

	wantErr := errors.New("rollback")
	err := repo.WithLock(ctx, func(inv []models.Invitation) ([]models.Invitation, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("WithLock error = %v, want %v", err, wantErr)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Code != "seed" {
		t.Fatalf("ledger modified after failed mutation: %+v", loaded)
	}
}

func TestWithLockSerializesConcurrentWriters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs <- repo.WithLock(ctx, func(inv []models.Invitation) ([]models.Invitation, error) {
				return append(inv, models.Invitation{
					Code:   string(rune('a'+n%26)) + "-concurrent",
					Status: models.StatusPending,
				}), nil
			})
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent WithLock: %v", err)
		}
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != writers {
		t.Fatalf("lost updates: got %d records, want %d", len(loaded), writers)
	}
}

func TestWithLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invitations.json")
	repo, err := NewFileInvitationRepository(path, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("NewFileInvitationRepository: %v", err)
	}
	ctx := context.Background()

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = repo.WithLock(ctx, func(inv []models.Invitation) ([]models.Invitation, error) {
			close(holding)
			<-release
			return inv, nil
		})
	}()

	<-holding
	defer close(release)

	// Aynı süreç içinde flock reentrant olduğundan ikinci bir repo
	// instance'ı üzerinden deneriz — ayrı fd, ayrı kilit sahibi.
	repo2, err := NewFileInvitationRepository(path, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("second repo: %v", err)
	}
	err = repo2.WithLock(ctx, func(inv []models.Invitation) ([]models.Invitation, error) {
		return inv, nil
	})
	if !errors.Is(err, pkg.ErrLockTimeout) {
		t.Fatalf("WithLock under held lock = %v, want ErrLockTimeout", err)
	}
}
