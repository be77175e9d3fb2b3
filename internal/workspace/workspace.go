// Package workspace holds the SourceBundle of an editing session together
// with a version that moves on every change. A rewrite result computed
// against an old version is refused instead of overwriting newer edits.
package workspace

import (
	"errors"
	"sync"
	"time"

	"github.com/devplayground/playground/pkg/core"
)

// ErrStale is returned by Apply when the bundle changed after the
// snapshot the rewrite was based on.
var ErrStale = errors.New("source changed while the rewrite was running")

// ErrNotApplied is returned by Apply for a failed rewrite result.
var ErrNotApplied = errors.New("rewrite result carries no bundle")

// Workspace is a version-stamped SourceBundle. It is safe for
// concurrent use.
type Workspace struct {
	mu       sync.Mutex
	bundle   core.SourceBundle
	version  uint64
	lastUsed time.Time
	now      func() time.Time
}

// New creates a workspace holding bundle at version 1.
func New(bundle core.SourceBundle) *Workspace {
	return newWorkspace(bundle, time.Now)
}

func newWorkspace(bundle core.SourceBundle, now func() time.Time) *Workspace {
	return &Workspace{bundle: bundle, version: 1, lastUsed: now(), now: now}
}

// Snapshot returns the current bundle and its version.
func (w *Workspace) Snapshot() (core.SourceBundle, uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = w.now()
	return w.bundle, w.version
}

// Edit replaces the bundle and returns the new version.
func (w *Workspace) Edit(bundle core.SourceBundle) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bundle = bundle
	w.version++
	w.lastUsed = w.now()
	return w.version
}

// Apply installs a successful rewrite computed from the snapshot at
// base. The current bundle is kept and ErrStale returned if the version
// has moved since.
func (w *Workspace) Apply(res core.RewriteResult, base uint64) (uint64, error) {
	if !res.OK() {
		return 0, ErrNotApplied
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = w.now()
	if w.version != base {
		return w.version, ErrStale
	}
	w.bundle = res.Bundle
	w.version++
	return w.version, nil
}

// Version returns the current version.
func (w *Workspace) Version() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastUsed)
}
