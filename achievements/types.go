// Package achievements defines the achievement data model shared by the
// cache, the refresh orchestrator, and the display projections.
package achievements

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrophyType classifies an achievement on platforms that grade them.
type TrophyType string

const (
	TrophyNone     TrophyType = ""
	TrophyBronze   TrophyType = "bronze"
	TrophySilver   TrophyType = "silver"
	TrophyGold     TrophyType = "gold"
	TrophyPlatinum TrophyType = "platinum"
)

// ParseTrophyType matches a provider-reported trophy grade case-insensitively.
// Unrecognised values map to TrophyNone.
func ParseTrophyType(s string) TrophyType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bronze":
		return TrophyBronze
	case "silver":
		return TrophySilver
	case "gold":
		return TrophyGold
	case "platinum":
		return TrophyPlatinum
	default:
		return TrophyNone
	}
}

// Detail is one unlockable achievement or trophy.
type Detail struct {
	ApiName     string `json:"apiName"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`

	Unlocked      bool       `json:"unlocked"`
	UnlockTimeUtc *time.Time `json:"unlockTimeUtc,omitempty"`

	Hidden     bool       `json:"hidden,omitempty"`
	TrophyType TrophyType `json:"trophyType,omitempty"`

	// GlobalPercentUnlocked is the rarity signal in [0,100]. nil means the
	// provider reported no rarity data, which is distinct from 0%.
	GlobalPercentUnlocked *float64 `json:"globalPercentUnlocked,omitempty"`

	ProgressNum   *int `json:"progressNum,omitempty"`
	ProgressDenom *int `json:"progressDenom,omitempty"`

	Points       int  `json:"points,omitempty"`
	ScaledPoints *int `json:"scaledPoints,omitempty"`

	IconUnlocked string `json:"iconUnlocked,omitempty"`
	IconLocked   string `json:"iconLocked,omitempty"`
}

// ResolvePoints returns the point value for display. Scaled points apply only
// when the user asked for them and the provider reported a scaled score.
func (d *Detail) ResolvePoints(useScaled bool) int {
	if useScaled && d.ScaledPoints != nil {
		return *d.ScaledPoints
	}
	return d.Points
}

// GameData is the cached achievement record for one library entry.
type GameData struct {
	GameID          uuid.UUID `json:"gameId"`
	ProviderName    string    `json:"providerName,omitempty"`
	LibrarySource   string    `json:"librarySource,omitempty"`
	HasAchievements bool      `json:"hasAchievements"`
	Achievements    []Detail  `json:"achievements,omitempty"`
	LastUpdatedUtc  time.Time `json:"lastUpdatedUtc"`
}

// Normalize enforces the record invariants in place: timestamps are UTC, a
// record without achievements carries an empty list, and locked achievements
// carry no unlock time.
func (g *GameData) Normalize() {
	g.LastUpdatedUtc = g.LastUpdatedUtc.UTC()
	if !g.HasAchievements {
		g.Achievements = nil
	}
	for i := range g.Achievements {
		a := &g.Achievements[i]
		if !a.Unlocked {
			a.UnlockTimeUtc = nil
		} else if a.UnlockTimeUtc != nil {
			t := a.UnlockTimeUtc.UTC()
			a.UnlockTimeUtc = &t
		}
	}
}

// UnlockedCount returns how many achievements are unlocked.
func (g *GameData) UnlockedCount() int {
	n := 0
	for i := range g.Achievements {
		if g.Achievements[i].Unlocked {
			n++
		}
	}
	return n
}

// Clone returns a deep copy. Records crossing the cache boundary are cloned
// so callers cannot mutate cached state.
func (g *GameData) Clone() *GameData {
	if g == nil {
		return nil
	}
	out := *g
	out.Achievements = make([]Detail, len(g.Achievements))
	for i, a := range g.Achievements {
		c := a
		c.UnlockTimeUtc = copyTime(a.UnlockTimeUtc)
		c.GlobalPercentUnlocked = copyFloat(a.GlobalPercentUnlocked)
		c.ProgressNum = copyInt(a.ProgressNum)
		c.ProgressDenom = copyInt(a.ProgressDenom)
		c.ScaledPoints = copyInt(a.ScaledPoints)
		out.Achievements[i] = c
	}
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}
