package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
	"github.com/jwebster45206/identity-crisis/pkg/state"
	"github.com/jwebster45206/identity-crisis/pkg/storage"
)

// DefaultCooldown is the minimum gap between two submissions.
const DefaultCooldown = 3 * time.Second

var (
	ErrCredentialMissing = errors.New("api key is missing")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrBusy              = errors.New("a response is already being generated")
	ErrCooldown          = errors.New("please wait before sending another message")
	ErrGameOver          = errors.New("the game is over")
	ErrExchangeFailed    = errors.New("exchange failed")
)

// CooldownError is returned by Submit when the cooldown has not elapsed.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (%s remaining)", ErrCooldown.Error(), e.Remaining.Round(100*time.Millisecond))
}

func (e *CooldownError) Unwrap() error {
	return ErrCooldown
}

type State int

const (
	StateAwaitingCredential State = iota
	StateActive
	StateLoading
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateAwaitingCredential:
		return "awaiting_credential"
	case StateActive:
		return "active"
	case StateLoading:
		return "loading"
	case StateCooldown:
		return "cooldown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes one completed exchange.
type Result struct {
	Reply    chat.Turn
	Previous phase.Phase
	Phase    phase.Phase
	Notice   *Notice // set only when the phase changed
}

// PhaseChanged reports whether the exchange advanced the phase.
func (r *Result) PhaseChanged() bool {
	return r.Phase != r.Previous
}

// ShellOption configures a Shell.
type ShellOption func(*Shell)

// WithCooldown sets the gap enforced between submissions. Zero disables it.
func WithCooldown(d time.Duration) ShellOption {
	return func(s *Shell) {
		s.cooldown = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ShellOption {
	return func(s *Shell) {
		s.now = now
	}
}

// Shell owns one game: its credential, its snapshot and the rules for
// submitting messages. It persists through a SnapshotStore after every
// completed exchange.
type Shell struct {
	responder *Responder
	store     *storage.SnapshotStore
	logger    *slog.Logger
	cooldown  time.Duration
	now       func() time.Time

	mu         sync.Mutex
	credential string
	snap       *state.Snapshot
	loading    bool
	lastSubmit time.Time
}

// NewShell creates a shell awaiting a credential. Call Load to restore a
// previous game.
func NewShell(responder *Responder, store *storage.SnapshotStore, logger *slog.Logger, opts ...ShellOption) *Shell {
	s := &Shell{
		responder: responder,
		store:     store,
		logger:    logger,
		cooldown:  DefaultCooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores a stored credential and snapshot. Without a stored
// credential the shell stays in StateAwaitingCredential.
func (s *Shell) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential, err := s.store.LoadCredential(ctx)
	if err != nil {
		return err
	}
	if credential == "" {
		return nil
	}

	snap, err := s.openSnapshot(ctx, credential)
	if err != nil {
		return err
	}
	s.credential = credential
	s.snap = snap
	return nil
}

// Start stores the credential and begins, or resumes, the game.
func (s *Shell) Start(ctx context.Context, credential string) (Notice, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return NoticeInvalidKey, ErrCredentialMissing
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return Notice{}, ErrBusy
	}
	snap, _, err := s.store.Load(ctx)
	if err != nil {
		return Notice{}, err
	}
	if err := s.store.Save(ctx, credential, snap); err != nil {
		return Notice{}, err
	}
	s.credential = credential
	s.snap = snap

	s.logger.Info("Game started", "phase", snap.Phase.String(), "turns", len(snap.Turns))
	return NoticeGameStarted, nil
}

// openSnapshot loads the stored snapshot, or creates and stores a fresh one.
// Callers hold s.mu.
func (s *Shell) openSnapshot(ctx context.Context, credential string) (*state.Snapshot, error) {
	snap, restored, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if restored {
		return snap, nil
	}
	if err := s.store.Save(ctx, credential, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Submit runs one exchange for text. Preconditions are checked in order:
// credential, non-empty text, no exchange in flight, game not over, cooldown
// elapsed. On failure the snapshot is unchanged.
func (s *Shell) Submit(ctx context.Context, text string) (*Result, error) {
	s.mu.Lock()
	if s.credential == "" {
		s.mu.Unlock()
		return nil, ErrCredentialMissing
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.snap.Finished() {
		s.mu.Unlock()
		return nil, ErrGameOver
	}
	if remaining := s.cooldownRemaining(); remaining > 0 {
		s.mu.Unlock()
		return nil, &CooldownError{Remaining: remaining}
	}

	s.loading = true
	s.lastSubmit = s.now()
	base := s.snap.Clone()
	credential := s.credential
	s.mu.Unlock()

	history := append(base.Turns, chat.Turn{
		Role:      chat.ChatRoleUser,
		Content:   text,
		Timestamp: s.now().UTC(),
	})

	reply, err := s.responder.Respond(ctx, history, credential, base.Phase)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.logger.Warn("Exchange failed", "phase", base.Phase.String(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	next := &state.Snapshot{
		Turns: append(history, reply.Turn),
		Phase: reply.Phase,
	}
	prev := s.snap
	s.snap = next
	if err := s.store.Save(ctx, credential, next); err != nil {
		s.snap = prev
		return nil, fmt.Errorf("failed to save game: %w", err)
	}

	result := &Result{
		Reply:    reply.Turn,
		Previous: base.Phase,
		Phase:    reply.Phase,
	}
	if result.PhaseChanged() {
		if n, ok := PhaseNotice(reply.Phase); ok {
			result.Notice = &n
		}
	}
	return result, nil
}

// Reset removes every stored record and returns to StateAwaitingCredential.
func (s *Shell) Reset(ctx context.Context) (Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return Notice{}, ErrBusy
	}
	if err := s.store.Clear(ctx); err != nil {
		return Notice{}, err
	}
	s.credential = ""
	s.snap = nil
	s.lastSubmit = time.Time{}

	s.logger.Info("Game reset")
	return NoticeGameReset, nil
}

// State reports the current shell state. Cooldown is derived from the clock.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.credential == "":
		return StateAwaitingCredential
	case s.loading:
		return StateLoading
	case s.cooldownRemaining() > 0:
		return StateCooldown
	default:
		return StateActive
	}
}

// CooldownRemaining returns how long until the next submission is accepted.
func (s *Shell) CooldownRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldownRemaining()
}

func (s *Shell) cooldownRemaining() time.Duration {
	if s.cooldown <= 0 || s.lastSubmit.IsZero() {
		return 0
	}
	remaining := s.lastSubmit.Add(s.cooldown).Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot returns a copy of the current snapshot, or nil before Start.
func (s *Shell) Snapshot() *state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil
	}
	return s.snap.Clone()
}

// Ping checks the shell's store.
func (s *Shell) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
