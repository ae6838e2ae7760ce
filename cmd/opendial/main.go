package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lyssym/opendial/internal/cli"
	"github.com/lyssym/opendial/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "opendial:", err)
		os.Exit(cli.ExitCommandError)
	}

	slog.SetDefault(cfg.NewLogger())

	root := cli.NewRootCommandWithConfig(cfg)
	if err := root.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			// The failing command already rendered its diagnostics.
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
}
