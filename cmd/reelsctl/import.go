package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/abelbrown/reels/internal/config"
	"github.com/abelbrown/reels/internal/coord"
	"github.com/abelbrown/reels/internal/fetch"
	"github.com/abelbrown/reels/internal/otel"
	"github.com/abelbrown/reels/internal/store"
	"github.com/abelbrown/reels/internal/ui"
)

// printer reports coordinator progress.
type printer struct{ w io.Writer }

func (p printer) Send(msg tea.Msg) {
	fc, ok := msg.(ui.FetchComplete)
	if !ok {
		return
	}
	if fc.Err != nil {
		fmt.Fprintf(p.w, "  %-40s error: %v\n", truncate(fc.Source, 40), fc.Err)
		return
	}
	fmt.Fprintf(p.w, "  %-40s %d new\n", truncate(fc.Source, 40), fc.NewItems)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fetchSources := fs.Bool("fetch", false, "Also fetch every configured source once")
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 && !*fetchSources {
		fmt.Fprintln(os.Stderr, "usage: reelsctl import [-fetch] <manifest>...")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg := loadConfig()
	st := openDB(cfg)

	// Imports show up in the same event log as the viewer's.
	events, err := otel.Open(config.Dir())
	if err != nil {
		st.Close()
		log.Fatal("open event log", "err", err)
	}

	var sources []string
	if *fetchSources {
		sources = cfg.Sources
		if len(sources) == 0 {
			fmt.Println("no sources configured (set REELS_SOURCES or edit", config.ConfigPath()+")")
		}
	}
	c := coord.NewCoordinator(st, fetch.NewFetcher(30*time.Second), fetch.SourcesFromURLs(sources), 0, events)
	err = importAll(ctx, c, st, fs.Args(), len(sources) > 0, os.Stdout)

	// Close before exiting: os.Exit skips deferred calls.
	events.Close()
	st.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// importAll imports each manifest, optionally runs one fetch of every
// source, and prints the store total. Failed manifests are reported and
// counted; the rest still import.
func importAll(ctx context.Context, c *coord.Coordinator, st *store.Store, refs []string, fetchSources bool, w io.Writer) error {
	failed := 0
	for _, ref := range refs {
		n, err := c.Import(ctx, ref)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", ref, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "%s: %d new\n", ref, n)
	}

	if fetchSources {
		fmt.Fprintln(w, "Fetching sources:")
		c.Start(ctx, printer{w: w})
		c.Wait()
	}

	total, err := st.Count()
	if err != nil {
		return fmt.Errorf("count reels: %w", err)
	}
	fmt.Fprintf(w, "\nTotal reels in store: %d\n", total)
	if failed > 0 {
		return fmt.Errorf("%d of %d manifests failed", failed, len(refs))
	}
	return nil
}
