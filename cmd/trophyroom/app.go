package main

import (
	"context"
	"fmt"
	"os"

	"trophyroom/cache"
	"trophyroom/icons"
	"trophyroom/library"
	"trophyroom/provider"
	"trophyroom/scan"
)

// app bundles the wired-up subsystems a command operates on.
type app struct {
	cache        *cache.Manager
	orchestrator *scan.Orchestrator
}

func (a *app) Close() {
	_ = a.cache.Close()
}

// openCache opens just the cache manager, for cache administration commands.
func openCache(ctx context.Context) *cache.Manager {
	m := cache.Open(ctx, cfg.GetDBPath(), cfg.GetMemoryCacheSize())
	if m.Degraded() {
		_, _ = fmt.Fprintf(os.Stderr, "Error: cannot open cache database at %s\n", cfg.GetDBPath())
		os.Exit(1)
	}
	return m
}

// openApp wires the full refresh stack: library manifest, providers, cache
// manager, icon cache, orchestrator.
func openApp(ctx context.Context) *app {
	if cfg.LibraryManifest == "" {
		_, _ = fmt.Fprintln(os.Stderr, "Error: no library manifest configured (set library_manifest or TROPHYROOM_LIBRARY)")
		os.Exit(1)
	}
	lib, err := library.LoadManifest(cfg.LibraryManifest)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var providers []provider.Provider
	if cfg.LocalDataDir != "" {
		providers = append(providers, provider.NewLocalDir("local", cfg.LocalDataDir))
	}

	mgr := openCache(ctx)

	var iconCache icons.Cache
	if cfg.IconCacheDir != "" {
		iconCache = icons.NewDiskCache(cfg.IconCacheDir)
	}

	orch := scan.New(lib, providers, mgr, iconCache, scan.Settings{
		QuickRefreshGameCount: cfg.GetQuickRefreshGameCount(),
		IncludeUnplayed:       cfg.IncludeUnplayed,
		Providers:             cfg.Providers,
	})

	return &app{cache: mgr, orchestrator: orch}
}
