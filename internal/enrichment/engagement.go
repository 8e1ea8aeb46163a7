package enrichment

import (
	"math"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const (
	maxTimeScore        = 30
	timePointsPerMinute = 10
	scrollPointsPerPct  = 0.25
	maxClickScore       = 25
	pointsPerClick      = 5
	activeBonus         = 20
	passiveBonus        = 10
)

// EngagementScore rates an interaction from 0 to roughly 100.
//
// Time on page, clicks and the interaction bonus are each capped on their
// own; the total is not clamped again. With a scroll depth of at most 100%
// the ceiling is 30 + 25 + 25 + 20 = 100.
func EngagementScore(e domain.Engagement) int {
	minutes := e.TimeOnPage / 60

	score := math.Min(maxTimeScore, minutes*timePointsPerMinute)
	score += e.ScrollDepth * scrollPointsPerPct
	score += math.Min(maxClickScore, float64(e.ClickCount*pointsPerClick))

	if e.InteractionType == domain.InteractionActive {
		score += activeBonus
	} else {
		score += passiveBonus
	}

	return int(math.Round(score))
}
