package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/identity-crisis/internal/config"
	"github.com/jwebster45206/identity-crisis/internal/services"
	"github.com/jwebster45206/identity-crisis/pkg/phase"
	"github.com/jwebster45206/identity-crisis/pkg/storage"
)

// NewLLMService builds the model client named by cfg.LLMProvider.
func NewLLMService(cfg *config.Config, logger *slog.Logger) (services.LLMService, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		return services.NewGeminiService(cfg.GeminiBaseURL, cfg.ModelName, logger), nil
	case config.ProviderGenAI:
		return services.NewGenAIService(cfg.GeminiBaseURL, cfg.ModelName, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}

// NewEngine builds the phase engine named by cfg.PhaseStrategy. The delegated
// engine classifies through llm.
func NewEngine(cfg *config.Config, llm services.LLMService, logger *slog.Logger) (phase.Engine, error) {
	switch cfg.PhaseStrategy {
	case config.StrategyHeuristic:
		return phase.NewHeuristicEngine(), nil
	case config.StrategyDelegated:
		return phase.NewDelegatedEngine(llm, logger), nil
	default:
		return nil, fmt.Errorf("unsupported phase strategy %q", cfg.PhaseStrategy)
	}
}

// NewResponderFromConfig wires provider, engine and prompt set together.
func NewResponderFromConfig(cfg *config.Config, logger *slog.Logger) (*Responder, error) {
	llm, err := NewLLMService(cfg, logger)
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(cfg, llm, logger)
	if err != nil {
		return nil, err
	}

	var prompts *phase.PromptSet
	if cfg.PromptsFile != "" {
		prompts, err = phase.LoadPromptFile(cfg.PromptsFile)
		if err != nil {
			return nil, err
		}
		logger.Info("Loaded phase prompts", "path", cfg.PromptsFile)
	}
	return NewResponder(engine, prompts, llm, logger), nil
}

// OpenKV opens the store for backend. For redis it waits up to wait for the
// server to answer.
func OpenKV(ctx context.Context, cfg *config.Config, backend string, wait time.Duration, logger *slog.Logger) (storage.KV, error) {
	switch backend {
	case config.BackendMemory:
		return storage.NewMemoryKV(), nil
	case config.BackendFile:
		return storage.NewFileKV(cfg.StorePath, logger)
	case config.BackendRedis:
		kv, err := storage.NewRedisKV(cfg.RedisURL, cfg.SessionTTL, logger)
		if err != nil {
			return nil, err
		}
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if err := kv.WaitForConnection(waitCtx); err != nil {
			_ = kv.Close()
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", backend)
	}
}
