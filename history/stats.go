package history

import (
	"github.com/GaryBoone/GoStats/stats"
)

// BidStat summarizes one bidder's submitted bids across the rounds of a history.
type BidStat struct {
	Rounds int     `json:"rounds"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Total  float64 `json:"total"`
}

// BidStats returns the statistics of agentID's bids. Rounds is zero when the agent never bid.
func BidStats(h *Store, agentID string) BidStat {
	var prices []float64
	for _, round := range h.Rounds() {
		for _, bid := range round.Bids {
			if bid.Bidder == agentID {
				prices = append(prices, bid.Price)
			}
		}
	}

	if len(prices) == 0 {
		return BidStat{}
	}

	return BidStat{
		Rounds: len(prices),
		Min:    stats.StatsMin(prices),
		Max:    stats.StatsMax(prices),
		Mean:   stats.StatsMean(prices),
		StdDev: stats.StatsPopulationStandardDeviation(prices),
		Total:  stats.StatsSum(prices),
	}
}

// SlotWins counts how many rounds agentID occupied each slot, keyed by slot rank.
func SlotWins(h *Store, agentID string) map[int]int {
	wins := make(map[int]int)
	for _, round := range h.Rounds() {
		for slot, occupant := range round.Occupants {
			if occupant == agentID {
				wins[slot]++
			}
		}
	}
	return wins
}
