package main

import (
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	apppkg "github.com/kk-code-lab/millr/internal/app"
	"github.com/kk-code-lab/millr/internal/config"
	"github.com/kk-code-lab/millr/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Set UTF-8 as fallback encoding so non-ASCII names render everywhere.
	tcell.SetEncodingFallback(tcell.EncodingFallbackUTF8)

	cfg, err := config.Parse(config.Default(), args, os.Stderr)
	if err != nil {
		if config.IsHelp(err) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "millr: %v\n", err)
		return 2
	}
	warnings := cfg.Validate()

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: "console", OutputPath: cfg.LogFile}); err != nil {
		fmt.Fprintf(os.Stderr, "millr: logging: %v\n", err)
		return 1
	}
	defer func() {
		_ = logging.Sync()
	}()
	for _, w := range warnings {
		logging.Warn("config adjusted", logging.String("detail", w))
	}

	app, err := apppkg.NewApplication(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing application: %v\n", err)
		return 1
	}
	app.Run()

	if err := app.Close(); err != nil {
		logging.Error("shutdown", logging.Err(err))
	}
	logging.Info("exited", logging.String("path", app.FocusedPath()))
	return 0
}
