package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/identity-crisis/internal/config"
	"github.com/jwebster45206/identity-crisis/internal/game"
	"github.com/jwebster45206/identity-crisis/internal/logger"
	"github.com/jwebster45206/identity-crisis/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Logs go next to the save file; stdout belongs to the UI.
	logPath := filepath.Join(filepath.Dir(cfg.StorePath), "console.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := logger.SetupWriter(cfg, logFile)

	backend := cfg.Backend(config.BackendFile)
	log.Info("Starting Identity Crisis console",
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"phase_strategy", cfg.PhaseStrategy,
		"storage_backend", backend)

	responder, err := game.NewResponderFromConfig(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure model: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	kv, err := game.OpenKV(ctx, cfg, backend, 10*time.Second, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = kv.Close() // Ignore error in defer
	}()

	// The console holds a single game, stored without a key prefix.
	store := storage.NewSnapshotStore(kv, "", log)
	shell := game.NewShell(responder, store, log, game.WithCooldown(cfg.Cooldown))
	if err := shell.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load saved game: %v\n", err)
		os.Exit(1)
	}

	var startup *game.Notice
	if shell.State() == game.StateAwaitingCredential && cfg.GeminiAPIKey != "" {
		notice, err := shell.Start(ctx, cfg.GeminiAPIKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start game: %v\n", err)
			os.Exit(1)
		}
		startup = &notice
	}

	p := tea.NewProgram(NewConsoleUI(shell, startup),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
