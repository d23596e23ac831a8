// Package repository — dosya tabanlı InvitationRepository implementasyonu.
//
// Defter tek bir JSON dosyasıdır. Süreçler arası eşzamanlılık için
// flock(2) advisory lock kullanılır: yazıcılar yan dosya (.lock)
// üzerinde exclusive kilit alır, okuyucular kilitsiz okur çünkü
// yazımlar temp-dosya + rename ile atomiktir — yarım yazılmış dosya
// hiçbir zaman görünmez.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akinalp/puerta/models"
	"github.com/akinalp/puerta/pkg"
)

// lockRetryInterval, kilit alınamadığında denemeler arası bekleme.
const lockRetryInterval = 50 * time.Millisecond

type fileInvitationRepo struct {
	path        string
	lockPath    string
	lockTimeout time.Duration
}

// NewFileInvitationRepository, verilen JSON dosyasını defter olarak
// kullanan bir repository döner. Dizin yoksa oluşturulur.
func NewFileInvitationRepository(path string, lockTimeout time.Duration) (InvitationRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	return &fileInvitationRepo{
		path:        path,
		lockPath:    path + ".lock",
		lockTimeout: lockTimeout,
	}, nil
}

func (r *fileInvitationRepo) LoadAll(ctx context.Context) ([]models.Invitation, error) {
	return r.load()
}

func (r *fileInvitationRepo) WithLock(ctx context.Context, fn func([]models.Invitation) ([]models.Invitation, error)) error {
	lockFile, err := r.acquireLock(ctx)
	if err != nil {
		return err
	}
	defer r.releaseLock(lockFile)

	invitations, err := r.load()
	if err != nil {
		return err
	}

	updated, err := fn(invitations)
	if err != nil {
		return err
	}

	return r.save(updated)
}

// acquireLock, yan dosya üzerinde LOCK_EX | LOCK_NB dener, alamazsa
// kısa aralıklarla tekrar dener. lockTimeout aşılırsa ErrLockTimeout.
//
// Blocking flock yerine non-blocking + retry: context iptali ve
// timeout'u flock(2) kendisi desteklemez.
func (r *fileInvitationRepo) acquireLock(ctx context.Context) (*os.File, error) {
	f, err := os.OpenFile(r.lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open lock file: %v", pkg.ErrPersistence, err)
	}

	deadline := time.Now().Add(r.lockTimeout)
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			f.Close()
			return nil, fmt.Errorf("%w: flock: %v", pkg.ErrPersistence, err)
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, pkg.ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			f.Close()
			return nil, fmt.Errorf("%w: %v", pkg.ErrLockTimeout, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

func (r *fileInvitationRepo) releaseLock(f *os.File) {
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	_ = f.Close()
}

// load, defteri okur. Dosya henüz yoksa boş defter döner —
// ilk davet oluşturulana kadar dosya yaratılmaz.
func (r *fileInvitationRepo) load() ([]models.Invitation, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Invitation{}, nil
		}
		return nil, fmt.Errorf("%w: read ledger: %v", pkg.ErrPersistence, err)
	}
	if len(data) == 0 {
		return []models.Invitation{}, nil
	}

	var invitations []models.Invitation
	if err := json.Unmarshal(data, &invitations); err != nil {
		return nil, fmt.Errorf("%w: corrupt ledger: %v", pkg.ErrPersistence, err)
	}
	return invitations, nil
}

// save, defteri temp dosyaya yazıp rename eder. Aynı dizinde temp
// kullanılır — rename'in atomik olması için aynı filesystem şart.
func (r *fileInvitationRepo) save(invitations []models.Invitation) error {
	data, err := json.MarshalIndent(invitations, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal ledger: %v", pkg.ErrPersistence, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".invitations-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", pkg.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp: %v", pkg.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync temp: %v", pkg.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp: %v", pkg.ErrPersistence, err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename ledger: %v", pkg.ErrPersistence, err)
	}
	return nil
}
