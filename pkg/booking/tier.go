package booking

// Tier is a loyalty level derived from points.
type Tier string

const (
	TierExplorador Tier = "Explorador"
	TierGourmet    Tier = "Gourmet"
	TierElite      Tier = "Terramarya Elite"
)

// TierBand is the point range of a tier. MaxPoints is zero for the open-ended top tier.
type TierBand struct {
	Tier      Tier `json:"tier"`
	MinPoints int  `json:"minPoints"`
	MaxPoints int  `json:"maxPoints,omitempty"`
}

var tierBands = []TierBand{
	{Tier: TierExplorador, MinPoints: 0, MaxPoints: 499},
	{Tier: TierGourmet, MinPoints: 500, MaxPoints: 1499},
	{Tier: TierElite, MinPoints: 1500},
}

// TierBands lists the tiers from lowest to highest.
func TierBands() []TierBand {
	return append([]TierBand(nil), tierBands...)
}

// TierForPoints maps a point balance to its tier.
func TierForPoints(points int) Tier {
	return tierBands[bandIndex(points)].Tier
}

// LoyaltyStatus is the progress view of a point balance.
type LoyaltyStatus struct {
	Tier            Tier    `json:"tier"`
	Points          int     `json:"points"`
	NextTier        Tier    `json:"nextTier,omitempty"`
	PointsRemaining int     `json:"pointsRemaining"`
	ProgressPercent float64 `json:"progressPercent"`
}

// StatusForPoints computes tier progress for a point balance.
func StatusForPoints(points int) LoyaltyStatus {
	index := bandIndex(points)
	current := tierBands[index]
	status := LoyaltyStatus{Tier: current.Tier, Points: points, ProgressPercent: 100}
	if index+1 >= len(tierBands) {
		return status
	}
	next := tierBands[index+1]
	status.NextTier = next.Tier
	status.PointsRemaining = next.MinPoints - points
	status.ProgressPercent = max(float64(points-current.MinPoints)/float64(next.MinPoints-current.MinPoints)*100, 0)
	return status
}

func bandIndex(points int) int {
	for index := len(tierBands) - 1; index > 0; index-- {
		if points >= tierBands[index].MinPoints {
			return index
		}
	}
	return 0
}
