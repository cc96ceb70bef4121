// Command reels is a full-screen vertical video feed in the terminal.
//
// Usage:
//
//	reels                     Browse the stored feed
//	reels -manifest feed.json Import a manifest first, then browse
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/reels/internal/config"
	"github.com/abelbrown/reels/internal/coord"
	"github.com/abelbrown/reels/internal/fetch"
	"github.com/abelbrown/reels/internal/logging"
	"github.com/abelbrown/reels/internal/media"
	"github.com/abelbrown/reels/internal/otel"
	"github.com/abelbrown/reels/internal/reel"
	"github.com/abelbrown/reels/internal/store"
	"github.com/abelbrown/reels/internal/ui"
)

func main() {
	manifest := flag.String("manifest", "", "JSON manifest to import before starting (path or URL)")
	flag.Parse()

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", "path", config.ConfigPath(), "err", err)
	}
	if *manifest != "" {
		cfg.Manifest = *manifest
	}

	dataDir := config.Dir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatal("create data directory", "err", err)
	}
	if err := logging.Init(dataDir); err != nil {
		log.Fatal("init logging", "err", err)
	}
	defer logging.Close()

	// Events: JSONL on disk plus a ring for the debug overlay
	events, err := otel.Open(dataDir)
	if err != nil {
		log.Fatal("open event log", "err", err)
	}
	defer events.Close()
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "reels "+logging.Version)

	st, err := store.Open(cfg.ResolvedDBPath())
	if err != nil {
		log.Fatal("open database", "err", err)
	}
	defer st.Close()

	engine := media.NewEngine(media.Options{
		Timeout:         cfg.ProbeTimeout(),
		ProbesPerSecond: cfg.Media.ProbesPerSecond,
		Burst:           cfg.Media.Burst,
	}, events)

	fetcher := fetch.NewFetcher(30 * time.Second)
	coordinator := coord.NewCoordinator(st, fetcher, fetch.SourcesFromURLs(cfg.Sources), cfg.RefreshInterval(), events)

	if cfg.Manifest != "" {
		if _, err := coordinator.Import(ctx, cfg.Manifest); err != nil {
			log.Fatal("import manifest", "ref", cfg.Manifest, "err", err)
		}
	}

	// Create UI app with dependency injection
	app := ui.NewApp(ui.AppConfig{
		Engine:   engine,
		Options:  cfg.ReelOptions(0),
		PageSize: cfg.Feed.PageSize,
		LoadPage: func(after, limit int) tea.Cmd {
			return func() tea.Msg {
				items, err := st.LoadPage(after, limit)
				return ui.PageLoaded{After: after, Items: items, Err: err}
			}
		},
		LoadMedia: func(req reel.LoadMedia) tea.Cmd {
			return func() tea.Msg {
				h, err := engine.Load(ctx, req.MediaRef)
				return ui.MediaReady{ItemID: req.ItemID, Gen: req.Gen, Handle: h, Err: err}
			}
		},
		SetLiked: func(id string, liked bool) tea.Cmd {
			return func() tea.Msg {
				return ui.LikeToggled{ID: id, Liked: liked, Err: st.SetLiked(id, liked)}
			}
		},
		Events: events,
		Ring:   ring,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	coordinator.Start(ctx, program)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		logging.Error("program exited", "err", err)
	}

	// Graceful shutdown
	cancel()
	coordinator.Wait()

	loaded, released, live := engine.Stats()
	logging.Info("media engine", "loaded", loaded, "released", released, "live", live)
	events.Info(otel.KindShutdown, "main", "reels exiting")
}
