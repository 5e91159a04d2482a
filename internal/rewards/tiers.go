package rewards

// TierInfo describes a NeoPoints tier. MaxPoints is nil for the top tier.
type TierInfo struct {
	Name      string   `json:"name"`
	MinPoints int64    `json:"min_points"`
	MaxPoints *int64   `json:"max_points"`
	Benefits  []string `json:"benefits"`
}

func bound(v int64) *int64 { return &v }

// Tiers is ordered by ascending threshold.
var Tiers = []TierInfo{
	{
		Name:      "Bronze",
		MinPoints: 0,
		MaxPoints: bound(1999),
		Benefits:  []string{"Basic Rewards", "Community Access"},
	},
	{
		Name:      "Silver",
		MinPoints: 2000,
		MaxPoints: bound(4999),
		Benefits:  []string{"Merchandise Discounts", "Silver Badge", "Community Access"},
	},
	{
		Name:      "Gold",
		MinPoints: 5000,
		MaxPoints: bound(9999),
		Benefits:  []string{"Premium Merchandise", "Early Access", "Gold Badge"},
	},
	{
		Name:      "Platinum",
		MinPoints: 10000,
		Benefits:  []string{"Exclusive NFTs", "Priority Support", "Special Events", "Custom Badges"},
	},
}

func tierIndex(points int64) int {
	idx := 0
	for i, tier := range Tiers {
		if points >= tier.MinPoints {
			idx = i
		}
	}
	return idx
}

// GetTier maps a points value to its tier. Negative values are Bronze.
func GetTier(points int64) TierInfo {
	return Tiers[tierIndex(points)]
}

// NextTier returns the tier above the one points falls in, or nil at the top.
func NextTier(points int64) *TierInfo {
	idx := tierIndex(points)
	if idx+1 >= len(Tiers) {
		return nil
	}
	next := Tiers[idx+1]
	return &next
}

// TierProgress is the percentage of the way from the current tier to the next one.
func TierProgress(points int64) float64 {
	current := GetTier(points)
	next := NextTier(points)
	if next == nil {
		return 100
	}
	span := next.MinPoints - current.MinPoints
	progress := float64(points-current.MinPoints) / float64(span) * 100
	if progress < 0 {
		return 0
	}
	return progress
}

// PointsToNextTier is how many more points are needed to reach the next tier.
func PointsToNextTier(points int64) int64 {
	next := NextTier(points)
	if next == nil {
		return 0
	}
	return next.MinPoints - points
}
