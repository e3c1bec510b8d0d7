package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"trophyroom/progress"
	"trophyroom/scan"
)

func handleRefreshCommand(ctx context.Context, args []string) {
	opts := scan.Options{Mode: scan.ModeFull}

	if len(args) > 0 {
		switch args[0] {
		case "full":
		case "quick":
			opts.Mode = scan.ModeQuick
		case "missing":
			opts.Mode = scan.ModeMissing
		case "installed":
			opts.Mode = scan.ModeInstalled
		case "favorites":
			opts.Mode = scan.ModeFavorites
		case "game":
			if len(args) < 2 {
				fmt.Println("Usage: trophyroom refresh game <id> [<id>...]")
				os.Exit(1)
			}
			for _, raw := range args[1:] {
				id, err := uuid.Parse(raw)
				if err != nil {
					_, _ = fmt.Fprintf(os.Stderr, "Error: bad game id %q: %v\n", raw, err)
					os.Exit(1)
				}
				opts.GameIDs = append(opts.GameIDs, id)
			}
		default:
			fmt.Printf("Unknown refresh mode: %s\n", args[0])
			os.Exit(1)
		}
	}

	a := openApp(ctx)
	defer a.Close()

	var bar *progressbar.ProgressBar
	if !outputCfg.Quiet && !outputCfg.JSON {
		bar = progressbar.Default(-1, "Refreshing")
	}

	unsubscribe := a.orchestrator.SubscribeProgress(func(r progress.Report) {
		if bar == nil {
			return
		}
		if r.TotalSteps > 0 && bar.GetMax() == -1 {
			bar.ChangeMax64(int64(r.TotalSteps))
		}
		_ = bar.Set64(int64(r.CurrentStep))
		bar.Describe(r.Message)
	})
	defer unsubscribe()

	err := a.orchestrator.Refresh(ctx, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	status := a.orchestrator.LatestStatus()
	switch {
	case errors.Is(err, context.Canceled):
		PrintInfo("Refresh canceled after %d games\n", status.GamesSaved)
	case err != nil:
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	default:
		if outputCfg.JSON {
			PrintResult(status)
			return
		}
		PrintInfo("%s\n", status.Message)
	}
}
