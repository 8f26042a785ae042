package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ApplyBidAdjustmentFactors scales each bid by its bidder's adjustment factor.
// Bidder names are matched case-insensitively; missing or non-positive factors leave the bid unchanged.
func ApplyBidAdjustmentFactors(bids []Bid, adjustmentFactors map[string]float64) []Bid {
	result := make([]Bid, len(bids))

	for i, bid := range bids {
		result[i] = bid

		factor, exists := adjustmentFactors[strings.ToLower(bid.Bidder)]
		if !exists || factor <= 0 {
			continue
		}

		// Use decimal arithmetic for precise calculation
		adjusted := decimal.NewFromFloat(bid.Price).Mul(decimal.NewFromFloat(factor))
		result[i].Price, _ = adjusted.Float64()
	}

	return result
}
