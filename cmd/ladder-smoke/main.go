package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/ladder/internal/smoke"
	"github.com/okian/ladder/pkg/logger"
)

const defaultRunTimeout = 2 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", smoke.DefaultBaseURL, "Base URL of the service")
		racers  = flag.Int("racers", smoke.DefaultRacers, "Concurrent assign-match requests in the race step")
		timeout = flag.Duration("timeout", smoke.DefaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	if _, err := smoke.Run(ctx, &smoke.Config{
		BaseURL: *baseURL,
		Racers:  *racers,
		Timeout: *timeout,
		Verbose: *verbose,
	}); err != nil {
		os.Stderr.WriteString("Smoke test failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
