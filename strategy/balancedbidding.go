package strategy

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/cloudx-io/gspbidding/core"
	"github.com/cloudx-io/gspbidding/history"
)

var ErrNoSlots = errors.New("previous round has no slots")

// Mechanism reports the bid thresholds of a slot given the competing bids.
// *core.GSP satisfies it.
type Mechanism interface {
	BidRangeForSlot(slot int, clicks []int, reserve float64, bids []core.Bid) (core.BidRange, error)
}

// BalancedBidder implements the Balanced Bidding (BB) strategy for repeated GSP auctions.
//
// Each round it assumes every competitor repeats its previous bid, targets the slot s* that
// maximizes clicks_s * (value - price_s), and bids b so that
//
//	clicks_{s*} * (value - minBid_{s*}) = clicks_{s*-1} * (value - b)
//
// leaving it indifferent between the targeted slot and the one directly above.
// Targeting the top slot bids the full value.
//
// A BalancedBidder holds no state between calls and is safe for concurrent use.
type BalancedBidder struct {
	ID    string
	Value float64

	// Budget is accepted for interface parity with other agents; bids are not capped by it
	Budget float64

	mechanism Mechanism
	log       logrus.FieldLogger
}

// NewBalancedBidder creates a BB agent. A nil logger discards log output.
func NewBalancedBidder(id string, value, budget float64, mechanism Mechanism, logger logrus.FieldLogger) *BalancedBidder {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &BalancedBidder{
		ID:        id,
		Value:     value,
		Budget:    budget,
		mechanism: mechanism,
		log:       logger.WithField("agent", id),
	}
}

// InitialBid is the opening bid when no history exists yet: half the private value.
// The reserve is not used.
func (b *BalancedBidder) InitialBid(reserve float64) float64 {
	return b.Value / 2
}

// SlotInfo computes, for each slot of round t-1, the bid needed to tie the competing bid for
// that slot (MinBid) and the bid needed to tie for the next better slot (MaxBid).
// For the top slot MaxBid is 2 * MinBid. Results are ordered by slot rank.
func (b *BalancedBidder) SlotInfo(t int, h history.History, reserve float64) ([]core.SlotInfo, error) {
	prev, err := b.previousRound(t, h)
	if err != nil {
		return nil, err
	}
	return b.slotInfo(prev, reserve)
}

// ExpectedUtils returns the utility of winning each slot of round t-1 if every competitor keeps
// its previous bid, followed by a final zero entry for winning no slot.
func (b *BalancedBidder) ExpectedUtils(t int, h history.History, reserve float64) ([]float64, error) {
	prev, err := b.previousRound(t, h)
	if err != nil {
		return nil, err
	}
	return b.expectedUtils(prev, reserve), nil
}

// Candidates pairs each slot's thresholds with its expected utility, ending with the no-slot outcome.
// Slots below the last one that competitors and the agent could fill are marked Unreachable.
func (b *BalancedBidder) Candidates(t int, h history.History, reserve float64) ([]Candidate, error) {
	prev, err := b.previousRound(t, h)
	if err != nil {
		return nil, err
	}
	return b.candidates(prev, reserve)
}

// TargetSlot returns the reachable slot that maximizes expected utility, better slots winning ties.
func (b *BalancedBidder) TargetSlot(t int, h history.History, reserve float64) (core.SlotInfo, error) {
	prev, err := b.previousRound(t, h)
	if err != nil {
		return core.SlotInfo{}, err
	}
	return b.targetSlot(prev, reserve)
}

// Bid computes the BB bid for round t from round t-1.
//
// The bid is the full value when the target is the top slot or when tying for it already costs
// more than the value. Otherwise it solves the balance equation against the slot above.
// The result is not capped at the value.
func (b *BalancedBidder) Bid(t int, h history.History, reserve float64) (float64, error) {
	prev, err := b.previousRound(t, h)
	if err != nil {
		return 0, err
	}

	if prev.NumSlots() == 0 {
		b.log.WithField("round", t).Warn("previous round has no slots, bidding value")
		return b.Value, nil
	}

	target, err := b.targetSlot(prev, reserve)
	if err != nil {
		return 0, err
	}

	bid := b.balancedBid(prev.Clicks, target)
	b.log.WithFields(logrus.Fields{
		"round":   t,
		"slot":    target.Slot,
		"min_bid": target.MinBid,
		"max_bid": target.MaxBid,
		"bid":     bid,
	}).Debug("computed balanced bid")
	return bid, nil
}

func (b *BalancedBidder) previousRound(t int, h history.History) (core.Round, error) {
	prev, err := h.Round(t - 1)
	if err != nil {
		return core.Round{}, fmt.Errorf("read round %d for bid in round %d: %w", t-1, t, err)
	}
	return prev, nil
}

func (b *BalancedBidder) slotInfo(prev core.Round, reserve float64) ([]core.SlotInfo, error) {
	competing := CompetingBids(prev, b.ID)

	info := make([]core.SlotInfo, prev.NumSlots())
	for slot := range info {
		bidRange, err := b.mechanism.BidRangeForSlot(slot, prev.Clicks, reserve, competing)
		if err != nil {
			return nil, fmt.Errorf("bid range for slot %d: %w", slot, err)
		}

		maxBid := bidRange.Max
		if !bidRange.HasMax {
			maxBid = 2 * bidRange.Min
		}
		info[slot] = core.SlotInfo{Slot: slot, MinBid: bidRange.Min, MaxBid: maxBid}
	}
	return info, nil
}

func (b *BalancedBidder) expectedUtils(prev core.Round, reserve float64) []float64 {
	// Competitors plus this agent dropping out at zero, highest first
	others := append(CompetingBids(prev, b.ID), core.Bid{Bidder: b.ID, Price: 0})
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].Price > others[j].Price
	})

	numSlots := prev.NumSlots()
	clicks := append(append([]int(nil), prev.Clicks...), 0)

	utils := make([]float64, numSlots+1)
	for i := range utils {
		switch {
		case i == numSlots:
			utils[i] = 0
		case i == numSlots-1:
			// The lowest slot is won against the reserve
			utils[i] = float64(clicks[i]) * (b.Value - reserve)
		default:
			price := 0.0
			if i < len(others) {
				price = others[i].Price
			}
			utils[i] = float64(clicks[i]) * (b.Value - price)
		}
	}
	return utils
}

func (b *BalancedBidder) candidates(prev core.Round, reserve float64) ([]Candidate, error) {
	info, err := b.slotInfo(prev, reserve)
	if err != nil {
		return nil, err
	}
	utils := b.expectedUtils(prev, reserve)

	// Competitors plus this agent can fill at most this many slots
	reachable := len(CompetingBids(prev, b.ID)) + 1

	candidates := make([]Candidate, 0, len(info)+1)
	for i, slot := range info {
		candidates = append(candidates, Candidate{Slot: slot, Utility: utils[i], Unreachable: i >= reachable})
	}
	candidates = append(candidates, Candidate{NoSlot: true, Utility: utils[len(info)]})
	return candidates, nil
}

func (b *BalancedBidder) targetSlot(prev core.Round, reserve float64) (core.SlotInfo, error) {
	candidates, err := b.candidates(prev, reserve)
	if err != nil {
		return core.SlotInfo{}, err
	}

	best, ok := bestCandidate(candidates)
	if !ok {
		return core.SlotInfo{}, fmt.Errorf("%w: round %d", ErrNoSlots, prev.Index)
	}
	return best.Slot, nil
}

// balancedBid solves the balance equation for target using the previous round's clicks.
func (b *BalancedBidder) balancedBid(clicks []int, target core.SlotInfo) float64 {
	j := target.Slot
	if target.MinBid > b.Value || j == 0 {
		return b.Value
	}

	above := clicks[j-1]
	if above == 0 {
		// No clicks above means no bid can balance the two slots
		return b.Value
	}
	return b.Value - float64(clicks[j])/float64(above)*(b.Value-target.MinBid)
}
