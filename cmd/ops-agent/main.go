package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ops-agent/cli/config"
	"github.com/ops-agent/cli/internal/tui"
)

func main() {
	var (
		serverFlag = flag.String("server", "", "Answering service base URL (overrides config)")
		tokenFlag  = flag.String("token", "", "Bearer token (overrides config)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if *serverFlag != "" {
		cfg.Server.BaseURL = *serverFlag
	}
	if *tokenFlag != "" {
		cfg.Server.Token = *tokenFlag
	}

	// Create and run TUI
	app, err := tui.NewApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing app: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}
