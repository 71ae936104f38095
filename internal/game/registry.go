package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/identity-crisis/pkg/storage"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionPrefix is the key prefix for one session's records.
func SessionPrefix(id uuid.UUID) string {
	return fmt.Sprintf("session:%s:", id.String())
}

// DefaultIdleTimeout is how long an unused shell stays in memory.
const DefaultIdleTimeout = 30 * time.Minute

// Registry hosts many independent games in one KV, one Shell per session.
// Shells are created lazily from stored records, so sessions survive restarts
// of a process backed by a durable store. Shells left idle are dropped from
// memory and re-hydrated on their next use.
type Registry struct {
	kv        storage.KV
	responder *Responder
	logger    *slog.Logger
	opts      []ShellOption

	idleTimeout time.Duration
	now         func() time.Time

	mu        sync.Mutex
	sessions  map[uuid.UUID]*session
	lastSweep time.Time
}

type session struct {
	shell    *Shell
	lastUsed time.Time
}

// NewRegistry creates an empty registry. opts apply to every shell.
func NewRegistry(kv storage.KV, responder *Responder, logger *slog.Logger, opts ...ShellOption) *Registry {
	return &Registry{
		kv:          kv,
		responder:   responder,
		logger:      logger,
		opts:        opts,
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
		sessions:    make(map[uuid.UUID]*session),
	}
}

// SetIdleTimeout changes how long an unused shell is kept in memory.
// Non-positive values restore DefaultIdleTimeout.
func (r *Registry) SetIdleTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultIdleTimeout
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idleTimeout = d
}

func (r *Registry) newShell(id uuid.UUID) *Shell {
	store := storage.NewSnapshotStore(r.kv, SessionPrefix(id), r.logger)
	return NewShell(r.responder, store, r.logger.With("session_id", id.String()), r.opts...)
}

// Create starts a new session with credential.
func (r *Registry) Create(ctx context.Context, credential string) (uuid.UUID, *Shell, Notice, error) {
	id := uuid.New()
	shell := r.newShell(id)

	notice, err := shell.Start(ctx, credential)
	if err != nil {
		return uuid.Nil, nil, notice, err
	}

	r.mu.Lock()
	r.sweep()
	r.sessions[id] = &session{shell: shell, lastUsed: r.now()}
	r.mu.Unlock()

	r.logger.Info("Session created", "session_id", id.String())
	return id, shell, notice, nil
}

// Get returns the session's shell, loading it from the store if it is not
// in memory.
func (r *Registry) Get(ctx context.Context, id uuid.UUID) (*Shell, error) {
	r.mu.Lock()
	r.sweep()
	if s, ok := r.sessions[id]; ok && !r.idle(s) {
		s.lastUsed = r.now()
		r.mu.Unlock()
		return s.shell, nil
	}
	r.mu.Unlock()

	shell := r.newShell(id)
	if err := shell.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if shell.State() == StateAwaitingCredential {
		return nil, ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have loaded the same session meanwhile.
	if s, ok := r.sessions[id]; ok && !r.idle(s) {
		s.lastUsed = r.now()
		return s.shell, nil
	}
	r.sessions[id] = &session{shell: shell, lastUsed: r.now()}
	return shell, nil
}

// Delete resets the session and forgets it.
func (r *Registry) Delete(ctx context.Context, id uuid.UUID) error {
	shell, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := shell.Reset(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	r.logger.Info("Session deleted", "session_id", id.String())
	return nil
}

// sweep drops shells idle for longer than the idle timeout, at most once a
// minute. Shells with an exchange in flight are kept. Callers hold r.mu.
func (r *Registry) sweep() {
	now := r.now()
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	for id, s := range r.sessions {
		if r.idle(s) {
			delete(r.sessions, id)
			r.logger.Debug("Idle session evicted", "session_id", id.String())
		}
	}
}

// idle reports whether s has gone unused past the idle timeout with no
// exchange in flight. Callers hold r.mu.
func (r *Registry) idle(s *session) bool {
	return r.now().Sub(s.lastUsed) >= r.idleTimeout && s.shell.State() != StateLoading
}

const sweepInterval = time.Minute

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Ping checks the shared store.
func (r *Registry) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}
