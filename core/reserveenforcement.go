package core

import (
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 4 // 4 decimal places for per-click prices (0.0001 precision)

const reasonBelowReserve = "below_reserve"

// BidMeetsReserve returns true if the bid price meets or exceeds the reserve price.
// Uses decimal arithmetic with monetaryPrecision to avoid floating-point errors.
func BidMeetsReserve(bidPrice, reserve float64) bool {
	bidPriceDecimal := decimal.NewFromFloat(bidPrice).Round(monetaryPrecision)
	reserveDecimal := decimal.NewFromFloat(reserve).Round(monetaryPrecision)

	return bidPriceDecimal.GreaterThanOrEqual(reserveDecimal)
}

// EnforceReserve filters bids against a single reserve price.
// Returns eligible bids in input order and the bids that were rejected.
func EnforceReserve(bids []Bid, reserve float64) (eligible []Bid, rejected []RejectedBid) {
	eligible = make([]Bid, 0, len(bids))

	for _, bid := range bids {
		if BidMeetsReserve(bid.Price, reserve) {
			eligible = append(eligible, bid)
			continue
		}
		rejected = append(rejected, RejectedBid{Bid: bid, Reason: reasonBelowReserve})
	}

	return eligible, rejected
}

// roundPrice rounds a per-click price to monetaryPrecision.
func roundPrice(price float64) float64 {
	rounded, _ := decimal.NewFromFloat(price).Round(monetaryPrecision).Float64()
	return rounded
}
