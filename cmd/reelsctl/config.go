package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/reels/internal/config"
)

func runConfig() {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	initFile := fs.Bool("init", false, "Write the default config file if none exists")
	fs.Parse(os.Args[1:])

	path := config.ConfigPath()
	if *initFile {
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("%s already exists\n", path)
		} else if err := config.DefaultConfig().SaveFile(path); err != nil {
			log.Fatal("write config", "err", err)
		} else {
			fmt.Printf("wrote %s\n", path)
		}
	}

	cfg := loadConfig()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatal("encode config", "err", err)
	}
	fmt.Printf("# %s (with REELS_* overrides)\n%s\n", path, data)
	fmt.Printf("# database: %s\n", cfg.ResolvedDBPath())

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "\ninvalid:\n%v\n", err)
		os.Exit(1)
	}
}
