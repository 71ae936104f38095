package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
	"github.com/jwebster45206/identity-crisis/pkg/state"
)

// Record names, one flat entry each.
const (
	KeyCredential = "geminiApiKey"
	KeyHistory    = "chatHistory"
	KeyPhase      = "currentPhase"
)

// SnapshotStore maps one game's three records onto a KV under a key prefix.
type SnapshotStore struct {
	kv     KV
	prefix string
	logger *slog.Logger
}

// NewSnapshotStore scopes a store to prefix ("" for a single local game).
func NewSnapshotStore(kv KV, prefix string, logger *slog.Logger) *SnapshotStore {
	return &SnapshotStore{
		kv:     kv,
		prefix: prefix,
		logger: logger,
	}
}

func (s *SnapshotStore) key(name string) string {
	return s.prefix + name
}

// LoadCredential returns the stored credential, or "" if none is stored.
func (s *SnapshotStore) LoadCredential(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, s.key(KeyCredential))
	if err != nil {
		return "", fmt.Errorf("failed to load credential: %w", err)
	}
	return v, nil
}

// Load restores the snapshot. It reports restored=false, with a fresh initial
// snapshot, when either record is missing or cannot be parsed. Only storage
// failures are returned as errors.
func (s *SnapshotStore) Load(ctx context.Context) (snap *state.Snapshot, restored bool, err error) {
	rawHistory, hasHistory, err := s.kv.Get(ctx, s.key(KeyHistory))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load chat history: %w", err)
	}
	rawPhase, hasPhase, err := s.kv.Get(ctx, s.key(KeyPhase))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load phase: %w", err)
	}
	if !hasHistory || !hasPhase {
		return state.NewSnapshot(), false, nil
	}

	var turns []chat.Turn
	if err := json.Unmarshal([]byte(rawHistory), &turns); err != nil {
		s.logger.Warn("Stored chat history is malformed, starting over", "prefix", s.prefix, "error", err)
		return state.NewSnapshot(), false, nil
	}
	p, err := phase.Parse(rawPhase)
	if err != nil {
		s.logger.Warn("Stored phase is malformed, starting over", "prefix", s.prefix, "error", err)
		return state.NewSnapshot(), false, nil
	}

	return &state.Snapshot{Turns: chat.WithoutSystem(turns), Phase: p}, true, nil
}

// Save writes the credential, transcript and phase together, so a store with
// expiring keys keeps all three alive for as long as the game is played.
// System turns are never persisted.
func (s *SnapshotStore) Save(ctx context.Context, credential string, snap *state.Snapshot) error {
	data, err := json.Marshal(chat.WithoutSystem(snap.Turns))
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	err = s.kv.SetAll(ctx, map[string]string{
		s.key(KeyCredential): credential,
		s.key(KeyHistory):    string(data),
		s.key(KeyPhase):      snap.Phase.Format(),
	})
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// Clear removes all three records.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, s.key(KeyCredential), s.key(KeyHistory), s.key(KeyPhase)); err != nil {
		return fmt.Errorf("failed to clear game: %w", err)
	}
	return nil
}

// Ping checks the underlying store.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}
