package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"trophyroom/config"
	"trophyroom/logging"
	"trophyroom/tracing"
)

var cfg *config.Config

func main() {
	ctx := context.Background()

	// A local .env can carry TROPHYROOM_* overrides during development.
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	logging.Setup(logging.Config{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})

	shutdown, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		logging.Error("failed to setup tracing", "error", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				logging.Error("failed to shutdown tracing", "error", err)
			}
		}()
	}

	args := parseGlobalFlags(os.Args[1:])

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "refresh":
		handleRefreshCommand(ctx, args[1:])
	case "cache":
		if len(args) < 2 {
			fmt.Println("Usage: trophyroom cache <command>")
			fmt.Println("Commands: list, show, remove, clear, import")
			os.Exit(1)
		}
		handleCacheCommand(ctx, args[1:])
	case "watch":
		handleWatchCommand(ctx, args[1:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("trophyroom - game achievement cache")
	fmt.Println()
	fmt.Println("Usage: trophyroom [global options] <command> [options]")
	fmt.Println()
	fmt.Println("Global Options:")
	fmt.Println("  --json                              Output in JSON format")
	fmt.Println("  --quiet, -q                         Suppress non-error output")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  refresh [full]                      Refresh every eligible game")
	fmt.Println("  refresh quick                       Refresh the most recently played games")
	fmt.Println("  refresh missing                     Refresh games with no cached record")
	fmt.Println("  refresh installed                   Refresh installed games only")
	fmt.Println("  refresh favorites                   Refresh favorite games only")
	fmt.Println("  refresh game <id> [<id>...]         Refresh specific games by id")
	fmt.Println("  cache list                          List cached games with unlock summaries")
	fmt.Println("  cache show <id>                     Show one game's cached achievements")
	fmt.Println("  cache remove <id>                   Remove one game's cached record")
	fmt.Println("  cache clear                         Wipe the whole cache")
	fmt.Println("  cache import <dir>                  Import legacy per-game JSON files")
	fmt.Println("  watch                               Run the periodic updater daemon")
	fmt.Println("  help                                Show this help")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  TROPHYROOM_CONFIG                   Config file path")
	fmt.Println("  TROPHYROOM_DB                       Database path (default: trophyroom.db)")
	fmt.Println("  TROPHYROOM_LIBRARY                  Library manifest path")
}
