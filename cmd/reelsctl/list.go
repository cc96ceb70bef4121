package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/log"
)

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	after := fs.Int("after", -1, "Start after this feed position")
	limit := fs.Int("n", 50, "Maximum number of reels to print")
	sources := fs.Bool("sources", false, "Print per-source counts instead")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	st := openDB(cfg)
	defer st.Close()

	if *sources {
		counts, err := st.SourceCounts()
		if err != nil {
			log.Fatal("count sources", "err", err)
		}
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("Sources (%d):\n", len(names))
		for _, name := range names {
			label := name
			if label == "" {
				label = "(none)"
			}
			fmt.Printf("  %-35s %d\n", truncate(label, 35), counts[name])
		}
		return
	}

	items, err := st.LoadPage(*after, *limit)
	if err != nil {
		log.Fatal("load page", "err", err)
	}
	for _, it := range items {
		liked := " "
		if it.Liked {
			liked = "♥"
		}
		fmt.Printf("%5d %s %-12s @%-16s %s\n",
			it.Position, liked, truncate(it.ID, 12), truncate(it.Author, 16), truncate(it.Caption, 50))
	}

	total, _ := st.Count()
	fmt.Printf("\n%d of %d reels shown\n", len(items), total)
}
