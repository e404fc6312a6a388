// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

// Command loader fills the stores the server reads. It runs offline, never
// while the server is serving from the same files.
//
//	loader load <articles.jsonl|->         upsert articles and their embeddings
//	loader pageviews <YYYY-MM>             download daily dumps and set pageview counts
//	loader backlinks <page.sql.gz> <pagelinks.sql.gz>
//	                                       count incoming links per article
//	loader normalize                       recompute every lookup key
//
// Configuration is shared with the server (see internal/config); API keys for
// the embedder may also come from a .env file in the working directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tomtom215/wikirelated/internal/config"
	"github.com/tomtom215/wikirelated/internal/logging"
)

// command is one loader subcommand.
type command struct {
	usage string
	args  int
	run   func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = map[string]command{
	"load":      {usage: "load <articles.jsonl|->", args: 1, run: runLoad},
	"pageviews": {usage: "pageviews <YYYY-MM>", args: 1, run: runPageviews},
	"backlinks": {usage: "backlinks <page.sql[.gz]> <pagelinks.sql[.gz]>", args: 2, run: runBacklinks},
	"normalize": {usage: "normalize", args: 0, run: runNormalize},
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: loader [options] <command> [args]\n\nCommands:\n")
	for _, name := range []string{"load", "pageviews", "backlinks", "normalize"} {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	fmt.Fprintf(os.Stderr, "\nOptions:\n")
	flag.PrintDefaults()
}

func main() {
	// .env is optional.
	_ = godotenv.Load()

	logLevel := flag.String("log-level", "", "override LOG_LEVEL")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 != cmd.args {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *logLevel != "" {
		if !logging.ValidLevel(*logLevel) {
			logging.Fatal().Str("level", *logLevel).Msg("Invalid log level")
		}
		cfg.Logging.Level = *logLevel
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	if err := cfg.ValidateLoader(); err != nil {
		logging.Fatal().Err(err).Msg("Invalid loader configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithNewCorrelationID(ctx)

	if err := cmd.run(ctx, cfg, args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			logging.Warn().Str("command", args[0]).Msg("Interrupted")
			os.Exit(130)
		}
		logging.Fatal().Err(err).Str("command", args[0]).Msg("Loader command failed")
	}
}
