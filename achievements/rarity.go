package achievements

// Tier is a rarity bucket derived from global unlock percentage.
type Tier string

const (
	// TierNone marks achievements with no rarity data. They belong to no
	// bucket and must not be coerced into one.
	TierNone      Tier = ""
	TierUltraRare Tier = "ultra-rare"
	TierRare      Tier = "rare"
	TierUncommon  Tier = "uncommon"
	TierCommon    Tier = "common"
)

// Thresholds holds the tier boundaries as global unlock percentages.
// A percentage equal to a boundary lands on the common side of it.
type Thresholds struct {
	UltraRare float64
	Rare      float64
	Uncommon  float64
}

// DefaultThresholds mirrors the config defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{UltraRare: 2.5, Rare: 10, Uncommon: 30}
}

// ClassifyRarity buckets an achievement by its global unlock percentage.
// A nil percentage yields TierNone.
func ClassifyRarity(percent *float64, t Thresholds) Tier {
	if percent == nil {
		return TierNone
	}
	p := *percent
	switch {
	case t.UltraRare > p:
		return TierUltraRare
	case t.Rare > p:
		return TierRare
	case t.Uncommon > p:
		return TierUncommon
	default:
		return TierCommon
	}
}
