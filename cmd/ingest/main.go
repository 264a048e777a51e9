// Command ingest runs reference data ingestion passes on demand.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"myfi.backend/internal/config"
	"myfi.backend/pkg/logger"
)

var newPipeline = openPipeline

func main() {
	os.Exit(run(context.Background(), flag.CommandLine, os.Args[1:]))
}

func run(ctx context.Context, fs *flag.FlagSet, args []string) int {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	cfg := config.Load()
	logger.Init(cfg.Server.Env)
	defer func() { _ = logger.Sync() }()

	commander := subcommands.NewCommander(fs, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	env := &environment{cfg: cfg, open: newPipeline}
	for _, c := range commands(env) {
		commander.Register(c, "ingestion")
	}

	if err := fs.Parse(args); err != nil {
		return int(subcommands.ExitUsageError)
	}
	return int(commander.Execute(ctx))
}
