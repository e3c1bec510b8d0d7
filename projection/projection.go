// Package projection builds display-ready snapshots from cached achievement
// data. Everything here is a pure function over records the caller already
// holds; nothing in this package touches the cache or the store.
package projection

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"trophyroom/achievements"
)

// RarityCounts holds per-tier achievement counts. Achievements without
// rarity data fall into none of the buckets.
type RarityCounts struct {
	UltraRare int `json:"ultraRare"`
	Rare      int `json:"rare"`
	Uncommon  int `json:"uncommon"`
	Common    int `json:"common"`
}

func (r *RarityCounts) add(tier achievements.Tier) {
	switch tier {
	case achievements.TierUltraRare:
		r.UltraRare++
	case achievements.TierRare:
		r.Rare++
	case achievements.TierUncommon:
		r.Uncommon++
	case achievements.TierCommon:
		r.Common++
	}
}

// TrophyCounts holds per-grade achievement counts for graded platforms.
type TrophyCounts struct {
	Platinum int `json:"platinum"`
	Gold     int `json:"gold"`
	Silver   int `json:"silver"`
	Bronze   int `json:"bronze"`
}

func (c *TrophyCounts) add(t achievements.TrophyType) {
	switch t {
	case achievements.TrophyPlatinum:
		c.Platinum++
	case achievements.TrophyGold:
		c.Gold++
	case achievements.TrophySilver:
		c.Silver++
	case achievements.TrophyBronze:
		c.Bronze++
	}
}

// GameSummary is the aggregated view of one game's achievement state.
type GameSummary struct {
	GameID         uuid.UUID    `json:"gameId"`
	ProviderName   string       `json:"providerName"`
	LibrarySource  string       `json:"librarySource"`
	Total          int          `json:"total"`
	Unlocked       int          `json:"unlocked"`
	Percent        float64      `json:"percent"`
	Completed      bool         `json:"completed"`
	Points         int          `json:"points"`
	EarnedPoints   int          `json:"earnedPoints"`
	Rarity         RarityCounts `json:"rarity"`
	UnlockedRarity RarityCounts `json:"unlockedRarity"`
	Trophies       TrophyCounts `json:"trophies"`
	LastUnlock     *time.Time   `json:"lastUnlock,omitempty"`
}

// Options controls how summaries are derived from raw records.
type Options struct {
	Thresholds      achievements.Thresholds
	UseScaledPoints bool
}

// DefaultOptions uses the stock rarity thresholds and raw point values.
func DefaultOptions() Options {
	return Options{Thresholds: achievements.DefaultThresholds()}
}

// Summarize folds one game's record into a GameSummary. A nil record or one
// without achievements yields a zero-count summary with identity fields set.
func Summarize(data *achievements.GameData, opts Options) GameSummary {
	if data == nil {
		return GameSummary{}
	}
	s := GameSummary{
		GameID:        data.GameID,
		ProviderName:  data.ProviderName,
		LibrarySource: data.LibrarySource,
	}
	if !data.HasAchievements {
		return s
	}
	for i := range data.Achievements {
		a := &data.Achievements[i]
		s.Total++
		s.Points += a.ResolvePoints(opts.UseScaledPoints)
		tier := achievements.ClassifyRarity(a.GlobalPercentUnlocked, opts.Thresholds)
		s.Rarity.add(tier)
		s.Trophies.add(a.TrophyType)
		if !a.Unlocked {
			continue
		}
		s.Unlocked++
		s.EarnedPoints += a.ResolvePoints(opts.UseScaledPoints)
		s.UnlockedRarity.add(tier)
		if a.UnlockTimeUtc != nil && (s.LastUnlock == nil || a.UnlockTimeUtc.After(*s.LastUnlock)) {
			t := *a.UnlockTimeUtc
			s.LastUnlock = &t
		}
	}
	if s.Total > 0 {
		s.Percent = float64(s.Unlocked) / float64(s.Total) * 100
		s.Completed = s.Unlocked == s.Total
	}
	return s
}

// Totals aggregates summaries across a library.
type Totals struct {
	Games          int     `json:"games"`
	CompletedGames int     `json:"completedGames"`
	Total          int     `json:"total"`
	Unlocked       int     `json:"unlocked"`
	Percent        float64 `json:"percent"`
	EarnedPoints   int     `json:"earnedPoints"`
}

// Aggregate folds per-game summaries into library-wide totals. Games with no
// achievements are counted in Games but contribute nothing else.
func Aggregate(summaries []GameSummary) Totals {
	var t Totals
	t.Games = len(summaries)
	for _, s := range summaries {
		t.Total += s.Total
		t.Unlocked += s.Unlocked
		t.EarnedPoints += s.EarnedPoints
		if s.Completed && s.Total > 0 {
			t.CompletedGames++
		}
	}
	if t.Total > 0 {
		t.Percent = float64(t.Unlocked) / float64(t.Total) * 100
	}
	return t
}

// Unlock pairs an unlocked achievement with the game it belongs to.
type Unlock struct {
	GameID      uuid.UUID
	Achievement achievements.Detail
	UnlockedAt  time.Time
}

// RecentUnlocks collects unlocked achievements with known unlock times across
// the given records, sorted newest first, capped at limit (<=0 means no cap).
func RecentUnlocks(records []*achievements.GameData, limit int) []Unlock {
	var out []Unlock
	for _, data := range records {
		if data == nil || !data.HasAchievements {
			continue
		}
		for i := range data.Achievements {
			a := data.Achievements[i]
			if !a.Unlocked || a.UnlockTimeUtc == nil {
				continue
			}
			out = append(out, Unlock{
				GameID:      data.GameID,
				Achievement: a,
				UnlockedAt:  *a.UnlockTimeUtc,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnlockedAt.After(out[j].UnlockedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SortByPercent orders summaries by completion percentage descending, with
// unlocked count as the tiebreak. The sort is stable so equal games keep
// their incoming order.
func SortByPercent(summaries []GameSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Percent != summaries[j].Percent {
			return summaries[i].Percent > summaries[j].Percent
		}
		return summaries[i].Unlocked > summaries[j].Unlocked
	})
}
