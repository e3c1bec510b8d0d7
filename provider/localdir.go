package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"trophyroom/achievements"
	"trophyroom/library"
	"trophyroom/logging"
)

// LocalDir serves achievement data from a directory of per-game JSON dumps,
// one file per game named <game-id>.json. It exists for offline refreshes
// from exported provider data and as the reference Provider implementation.
type LocalDir struct {
	name string
	root string
}

// NewLocalDir creates a provider reading from root. A custom name lets
// several directories act as distinct providers.
func NewLocalDir(name, root string) *LocalDir {
	if name == "" {
		name = "local"
	}
	return &LocalDir{name: name, root: root}
}

func (p *LocalDir) Name() string { return p.name }

// IsAuthenticated reports whether the data directory is readable. There is no
// remote account behind this provider.
func (p *LocalDir) IsAuthenticated() bool {
	info, err := os.Stat(p.root)
	return err == nil && info.IsDir()
}

// IsCapable reports whether a dump file exists for the game.
func (p *LocalDir) IsCapable(game library.Entry) (bool, error) {
	_, err := os.Stat(p.path(game))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", p.path(game), err)
}

// Scan reads each game's dump and hands it to completed. An unreadable or
// malformed file counts as failed and the scan moves on; only cancellation
// aborts the run.
func (p *LocalDir) Scan(ctx context.Context, games []library.Entry, progress ProgressFunc, completed CompletedFunc) (*ScanSummary, error) {
	summary := &ScanSummary{}
	for i, game := range games {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		data, err := p.read(game)
		switch {
		case err != nil:
			logging.Warn("failed to read local achievement dump",
				"provider", p.name, "game", game.Name, "error", err)
			summary.Failed++
		case !data.HasAchievements:
			summary.NoData++
			completed(game, data)
		default:
			summary.Scanned++
			completed(game, data)
		}

		if progress != nil {
			progress(Progress{Current: i + 1, Total: len(games), GameName: game.Name})
		}
	}
	return summary, nil
}

func (p *LocalDir) path(game library.Entry) string {
	return filepath.Join(p.root, game.ID.String()+".json")
}

func (p *LocalDir) read(game library.Entry) (*achievements.GameData, error) {
	raw, err := os.ReadFile(p.path(game))
	if err != nil {
		return nil, err
	}
	var data achievements.GameData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p.path(game), err)
	}
	return &data, nil
}
