package strategy

import (
	"github.com/cloudx-io/gspbidding/core"
)

// Candidate is one outcome the bidder can aim for next round: a real slot, or no slot at all.
type Candidate struct {
	// Slot is meaningful only when NoSlot is false
	Slot    core.SlotInfo
	NoSlot  bool
	Utility float64

	// Unreachable marks a slot below every competitor and the bidder itself;
	// nobody would occupy it, so it is never targeted
	Unreachable bool
}

// ArgmaxIndex returns the index of the first maximum in values, or -1 when values is empty.
func ArgmaxIndex(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// bestCandidate picks the highest-utility candidate, earlier (better) slots winning ties.
// A bidder always aims for some slot: when staying out is strictly best, the best reachable
// slot is returned instead. ok is false only when there is no reachable slot.
func bestCandidate(candidates []Candidate) (best Candidate, ok bool) {
	utilities := make([]float64, 0, len(candidates))
	slots := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.NoSlot || c.Unreachable {
			continue
		}
		utilities = append(utilities, c.Utility)
		slots = append(slots, c)
	}

	i := ArgmaxIndex(utilities)
	if i < 0 {
		return Candidate{}, false
	}
	return slots[i], true
}

// CompetingBids returns the bids of every bidder in round other than excluding.
func CompetingBids(round core.Round, excluding string) []core.Bid {
	bids := make([]core.Bid, 0, len(round.Bids))
	for _, bid := range round.Bids {
		if bid.Bidder != excluding {
			bids = append(bids, bid)
		}
	}
	return bids
}
