package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"trophyroom/achievements"
	"trophyroom/projection"
)

func handleCacheCommand(ctx context.Context, args []string) {
	switch args[0] {
	case "list":
		cacheList(ctx)
	case "show":
		if len(args) < 2 {
			fmt.Println("Usage: trophyroom cache show <id>")
			os.Exit(1)
		}
		cacheShow(ctx, args[1])
	case "remove":
		if len(args) < 2 {
			fmt.Println("Usage: trophyroom cache remove <id>")
			os.Exit(1)
		}
		cacheRemove(ctx, args[1])
	case "clear":
		cacheClear(ctx)
	case "import":
		if len(args) < 2 {
			fmt.Println("Usage: trophyroom cache import <dir>")
			os.Exit(1)
		}
		cacheImport(ctx, args[1])
	default:
		fmt.Printf("Unknown cache command: %s\n", args[0])
		os.Exit(1)
	}
}

func projectionOptions() projection.Options {
	return projection.Options{
		Thresholds: achievements.Thresholds{
			UltraRare: cfg.Rarity.UltraRare,
			Rare:      cfg.Rarity.Rare,
			Uncommon:  cfg.Rarity.Uncommon,
		},
		UseScaledPoints: cfg.UseScaledPoints,
	}
}

func cacheList(ctx context.Context) {
	m := openCache(ctx)
	defer func() { _ = m.Close() }()

	ids, err := m.CachedGameIDs(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error listing cache: %v\n", err)
		os.Exit(1)
	}

	opts := projectionOptions()
	var summaries []projection.GameSummary
	for _, id := range ids {
		data, err := m.Load(ctx, id.String())
		if err != nil || data == nil {
			continue
		}
		summaries = append(summaries, projection.Summarize(data, opts))
	}
	projection.SortByPercent(summaries)

	if outputCfg.JSON {
		PrintResult(summaries)
		return
	}

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.GameID.String(),
			s.ProviderName,
			fmt.Sprintf("%d/%d", s.Unlocked, s.Total),
			fmt.Sprintf("%.1f%%", s.Percent),
			fmt.Sprintf("%d", s.EarnedPoints),
		})
	}
	PrintTable([]string{"Game", "Provider", "Unlocked", "Percent", "Points"}, rows)

	totals := projection.Aggregate(summaries)
	PrintInfo("\n%d games, %d/%d achievements unlocked (%.1f%%), %d completed\n",
		totals.Games, totals.Unlocked, totals.Total, totals.Percent, totals.CompletedGames)
}

func cacheShow(ctx context.Context, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: bad game id %q: %v\n", rawID, err)
		os.Exit(1)
	}

	m := openCache(ctx)
	defer func() { _ = m.Close() }()

	data, err := m.Load(ctx, id.String())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading record: %v\n", err)
		os.Exit(1)
	}
	if data == nil {
		fmt.Println("No cached record for that game")
		os.Exit(1)
	}

	if outputCfg.JSON {
		PrintResult(data)
		return
	}

	s := projection.Summarize(data, projectionOptions())
	fmt.Printf("Provider: %s  Source: %s  Updated: %s\n",
		data.ProviderName, data.LibrarySource, data.LastUpdatedUtc.Format("2006-01-02 15:04"))
	fmt.Printf("Unlocked: %d/%d (%.1f%%)\n\n", s.Unlocked, s.Total, s.Percent)

	rows := make([][]string, 0, len(data.Achievements))
	for i := range data.Achievements {
		a := &data.Achievements[i]
		state := "locked"
		if a.Unlocked {
			state = "unlocked"
			if a.UnlockTimeUtc != nil {
				state = a.UnlockTimeUtc.Format("2006-01-02 15:04")
			}
		}
		pct := "-"
		if a.GlobalPercentUnlocked != nil {
			pct = fmt.Sprintf("%.1f%%", *a.GlobalPercentUnlocked)
		}
		rows = append(rows, []string{a.DisplayName, state, pct, string(a.TrophyType)})
	}
	PrintTable([]string{"Achievement", "Unlocked", "Global %", "Grade"}, rows)
}

func cacheRemove(ctx context.Context, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: bad game id %q: %v\n", rawID, err)
		os.Exit(1)
	}

	m := openCache(ctx)
	defer func() { _ = m.Close() }()

	if err := m.Remove(ctx, id); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error removing record: %v\n", err)
		os.Exit(1)
	}
	PrintInfo("Removed %s\n", id)
}

func cacheClear(ctx context.Context) {
	m := openCache(ctx)
	defer func() { _ = m.Close() }()

	if err := m.Clear(ctx); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error clearing cache: %v\n", err)
		os.Exit(1)
	}
	PrintInfo("Cache cleared\n")
}

func cacheImport(ctx context.Context, dir string) {
	m := openCache(ctx)
	defer func() { _ = m.Close() }()

	n, err := m.Store().ImportLegacyDir(ctx, dir)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error importing from %s: %v\n", dir, err)
		os.Exit(1)
	}
	PrintInfo("Imported %d records from %s\n", n, dir)
}
