package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abelbrown/reels/internal/config"
	"github.com/abelbrown/reels/internal/otel"
)

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level otel.Level) int {
	switch level {
	case otel.LevelDebug:
		return 0
	case otel.LevelInfo:
		return 1
	case otel.LevelWarn:
		return 2
	case otel.LevelError:
		return 3
	default:
		return 0
	}
}

// eventFilter selects events. Empty fields match everything.
type eventFilter struct {
	kind  string // kind prefix, e.g. "reel" or "media.load"
	level otel.Level
	comp  string
	item  string
}

func (f eventFilter) match(ev otel.Event) bool {
	if f.kind != "" && !strings.HasPrefix(string(ev.Kind), f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.item != "" && ev.Item != f.item && ev.Prev != f.item {
		return false
	}
	return true
}

// formatEvent renders one event as a log line.
func formatEvent(ev otel.Event) string {
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-5s] %-20s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Item != "" {
		if ev.Prev != "" {
			parts = append(parts, ev.Prev+" -> "+ev.Item)
		} else {
			parts = append(parts, "item="+ev.Item)
		}
	}
	if ev.Kind == otel.KindActive {
		parts = append(parts, fmt.Sprintf("page=%d", ev.Page))
	}
	if ev.Offset != 0 {
		parts = append(parts, fmt.Sprintf("offset=%.1f", ev.Offset))
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.Dur > 0 {
		ms := float64(ev.Dur) / float64(time.Millisecond)
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ms), ms))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Source != "" {
		parts = append(parts, "src="+ev.Source)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}

	return strings.Join(parts, " ")
}

// durPrecision returns decimal places for a millisecond duration.
func durPrecision(ms float64) int {
	if ms < 10 {
		return 1
	}
	return 0
}

func runEvents() {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	tail := fs.Int("tail", 50, "Number of recent events to show")
	follow := fs.Bool("f", false, "Follow mode (like tail -f)")
	kind := fs.String("kind", "", "Filter by event kind prefix (e.g. 'reel' or 'media.load')")
	level := fs.String("level", "", "Minimum level: debug, info, warn, error")
	comp := fs.String("comp", "", "Filter by component name")
	item := fs.String("item", "", "Filter by reel id")
	stats := fs.Bool("stats", false, "Print counts per kind instead of events")
	rawJSON := fs.Bool("json", false, "Output raw JSON lines")
	fs.Parse(os.Args[1:])

	logPath := filepath.Join(config.Dir(), otel.EventsFile)
	f, err := os.Open(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "  Event log not found at %s\n", logPath)
		fmt.Fprintf(os.Stderr, "  Run reels first to generate events.\n")
		os.Exit(1)
	}
	defer f.Close()

	filter := eventFilter{kind: *kind, level: otel.Level(*level), comp: *comp, item: *item}

	show := func(ev otel.Event) {
		if *rawJSON {
			line, err := json.Marshal(ev)
			if err == nil {
				fmt.Println(string(line))
			}
			return
		}
		fmt.Println(formatEvent(ev))
	}

	// The ring keeps the last N matches while the whole file streams by.
	ring := otel.NewRingBuffer(max(*tail, 1))
	counts := make(map[otel.EventKind]int)
	skipped, err := otel.ReadEvents(f, func(ev otel.Event) bool {
		if filter.match(ev) {
			ring.Push(ev)
			counts[ev.Kind]++
		}
		return true
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *stats {
		printStats(counts, skipped)
		return
	}

	if *tail > 0 {
		for _, ev := range ring.Snapshot() {
			show(ev)
		}
	}
	if !*follow {
		return
	}

	// Follow mode: the scan left f at EOF, poll for new lines
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return
		}
		otel.ReadEvents(strings.NewReader(string(line)), func(ev otel.Event) bool {
			if filter.match(ev) {
				show(ev)
			}
			return true
		})
	}
}

func printStats(counts map[otel.EventKind]int, skipped int) {
	kinds := make([]otel.EventKind, 0, len(counts))
	total := 0
	for k, n := range counts {
		kinds = append(kinds, k)
		total += n
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	fmt.Printf("%-24s %s\n", "KIND", "COUNT")
	for _, k := range kinds {
		fmt.Printf("%-24s %d\n", k, counts[k])
	}
	fmt.Printf("\n%d events", total)
	if skipped > 0 {
		fmt.Printf(", %d unreadable lines skipped", skipped)
	}
	fmt.Println()
}
