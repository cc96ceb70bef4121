package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/reels/internal/config"
	"github.com/abelbrown/reels/internal/logging"
	"github.com/abelbrown/reels/internal/store"
)

func init() {
	// Library warnings go to stderr; the TUI logs to a file instead.
	logging.SetOutput(os.Stderr, log.WarnLevel)
}

// loadConfig reads the config file and environment or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	return cfg
}

// openDB opens the store or fatals.
func openDB(cfg *config.Config) *store.Store {
	if err := os.MkdirAll(config.Dir(), 0755); err != nil {
		log.Fatal("create data directory", "err", err)
	}
	st, err := store.Open(cfg.ResolvedDBPath())
	if err != nil {
		log.Fatal("open database", "path", cfg.ResolvedDBPath(), "err", err)
	}
	return st
}

// truncate shortens s to max terminal cells, appending "..." if truncated.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}
