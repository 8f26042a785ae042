package core

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrSlotOutOfRange  = errors.New("slot out of range")
	ErrNegativeReserve = errors.New("reserve price must be non-negative")
	ErrNegativeClicks  = errors.New("click counts must be non-negative")
)

// GSP is a generalized second-price auction over ranked slots.
// Each slot occupant pays, per click, the bid ranked directly below it or the reserve when there is none.
type GSP struct {
	Reserve float64

	// AdjustmentFactors scale bids per bidder (lower-cased name) before ranking
	AdjustmentFactors map[string]float64

	// RandSource breaks ties between equal bids; nil uses crypto/rand
	RandSource RandSource
}

// NewGSP creates a mechanism with the given reserve price and no bid adjustments.
func NewGSP(reserve float64) *GSP {
	return &GSP{Reserve: reserve}
}

// RunRound executes one auction round: adjustment → reserve enforcement → ranking → slot allocation.
//
// Parameters:
//   - index: position of the round in the history
//   - bids: bids submitted this round, one per bidder
//   - clicks: click count of each slot, best slot first
//
// Returns the completed round with occupants and per-click payments, or an error for
// a negative reserve or click count.
func (g *GSP) RunRound(index int, bids []Bid, clicks []int) (*Round, error) {
	if g.Reserve < 0 {
		return nil, fmt.Errorf("%w: %.4f", ErrNegativeReserve, g.Reserve)
	}
	for slot, c := range clicks {
		if c < 0 {
			return nil, fmt.Errorf("%w: slot %d has %d clicks", ErrNegativeClicks, slot, c)
		}
	}

	// Step 1: Apply bid adjustment factors
	adjustedBids := bids
	if len(g.AdjustmentFactors) > 0 {
		adjustedBids = ApplyBidAdjustmentFactors(bids, g.AdjustmentFactors)
	}

	// Step 2: Enforce the reserve price
	eligibleBids, rejectedBids := EnforceReserve(adjustedBids, g.Reserve)

	// Step 3: Rank eligible bids
	ranked := RankBids(eligibleBids, g.RandSource)

	// Step 4: Allocate slots and price each one at the next bid down
	numAllocated := min(len(ranked), len(clicks))
	occupants := make([]string, numAllocated)
	payments := make([]float64, numAllocated)
	for k := 0; k < numAllocated; k++ {
		occupants[k] = ranked[k].Bidder
		price := g.Reserve
		if k+1 < len(ranked) {
			price = ranked[k+1].Price
		}
		payments[k] = roundPrice(price)
	}

	return &Round{
		Index:            index,
		Bids:             append([]Bid(nil), bids...),
		Occupants:        occupants,
		Clicks:           append([]int(nil), clicks...),
		PerClickPayments: payments,
		Reserve:          g.Reserve,
		Rejected:         rejectedBids,
	}, nil
}

// BidRangeForSlot satisfies the mechanism contract used by bidding strategies.
func (g *GSP) BidRangeForSlot(slot int, clicks []int, reserve float64, bids []Bid) (BidRange, error) {
	return BidRangeForSlot(slot, clicks, reserve, bids)
}

// BidRangeForSlot computes the range of bids that would place a bidder in slot,
// given that every other bidder submits the bids passed in.
//
// Min is the bid needed to tie the competing bid currently holding the slot, never less than
// the reserve. Max is the bid needed to tie for the next better slot; it is absent (HasMax false)
// for the top slot since no better slot bounds it.
func BidRangeForSlot(slot int, clicks []int, reserve float64, bids []Bid) (BidRange, error) {
	if slot < 0 || slot >= len(clicks) {
		return BidRange{}, fmt.Errorf("%w: slot %d with %d slots", ErrSlotOutOfRange, slot, len(clicks))
	}
	if reserve < 0 {
		return BidRange{}, fmt.Errorf("%w: %.4f", ErrNegativeReserve, reserve)
	}

	var prices []float64
	for _, price := range SortedPrices(bids) {
		if BidMeetsReserve(price, reserve) {
			prices = append(prices, price)
		}
	}

	priceAt := func(rank int) float64 {
		if rank < len(prices) {
			return math.Max(prices[rank], reserve)
		}
		return reserve
	}

	bidRange := BidRange{Min: priceAt(slot)}
	if slot > 0 {
		bidRange.Max = priceAt(slot - 1)
		bidRange.HasMax = true
	}
	return bidRange, nil
}

// PositionClicks returns the click count of each slot in round t under the standard
// sponsored-search click model: the top slot follows a daily cycle around 50 clicks and
// every lower slot receives 75% of the clicks of the slot above it.
func PositionClicks(t int, numSlots int) []int {
	if numSlots <= 0 {
		return []int{}
	}

	top := math.Round(30*math.Cos(math.Pi*float64(t)/24) + 50)
	clicks := make([]int, numSlots)
	for k := range clicks {
		clicks[k] = int(math.Round(top * math.Pow(0.75, float64(k))))
	}
	return clicks
}
