// Package service implements the application's business logic on top of the
// repository layer: diary CRUD, account lifecycle, and the draft/confirm
// image workflow.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shapediary/internal/middleware"
)

// DraftStore stages generated images on disk. Each user has exactly one draft
// slot, the file {user_id}_tmp.png under the static directory; confirming
// promotes it to {user_id}_{post_id}.png. Writes to a user's slot are
// serialized by a per-user lock so concurrent generate requests cannot
// interleave.
type DraftStore struct {
	dir string

	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewDraftStore returns a store rooted at dir, creating it if needed.
func NewDraftStore(dir string) (*DraftStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create static dir: %w", err)
	}
	return &DraftStore{dir: dir, locks: make(map[uint]*sync.Mutex)}, nil
}

// userLock returns the lock guarding a user's draft slot.
func (d *DraftStore) userLock(userID uint) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[userID] = l
	}
	return l
}

// TmpPath returns the draft slot path for a user.
func (d *DraftStore) TmpPath(userID uint) string {
	return filepath.Join(d.dir, fmt.Sprintf("%d_tmp.png", userID))
}

// FinalPath returns the permanent path for a user's post image.
func (d *DraftStore) FinalPath(userID, postID uint) string {
	return filepath.Join(d.dir, fmt.Sprintf("%d_%d.png", userID, postID))
}

// Stage writes image bytes into the user's draft slot, overwriting any prior
// draft for that user.
func (d *DraftStore) Stage(userID uint, data []byte) (string, error) {
	l := d.userLock(userID)
	l.Lock()
	defer l.Unlock()

	path := d.TmpPath(userID)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("failed to write draft image: %w", err)
	}
	return path, nil
}

// Promote atomically renames the user's draft into the permanent per-post
// path and returns it. A missing draft (never generated, or already swept)
// is an error.
func (d *DraftStore) Promote(userID, postID uint) (string, error) {
	l := d.userLock(userID)
	l.Lock()
	defer l.Unlock()

	tmp := d.TmpPath(userID)
	final := d.FinalPath(userID, postID)
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("failed to promote draft image: %w", err)
	}
	return final, nil
}

// Remove deletes the permanent image for a post, if present.
func (d *DraftStore) Remove(userID, postID uint) {
	_ = os.Remove(d.FinalPath(userID, postID))
}

// Sweep deletes draft files older than ttl. Abandoned workflows leave their
// drafts behind; this is the only cleanup they get.
func (d *DraftStore) Sweep(ttl time.Duration) int {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0
	}

	removed := 0
	cutoff := time.Now().Add(-ttl)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), "_tmp.png") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is cancelled.
func (d *DraftStore) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := d.Sweep(ttl); n > 0 {
					middleware.Logger.Info("swept stale draft images", slog.Int("removed", n))
				}
			}
		}
	}()
}
