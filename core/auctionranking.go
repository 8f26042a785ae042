package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
)

// RandSource provides random number generation for tie-breaking.
// This interface enables dependency injection for deterministic testing.
type RandSource interface {
	// Intn returns a random integer in [0, n). Panics if n <= 0.
	Intn(n int) int
}

// cryptoRandSource wraps crypto/rand for production use
type cryptoRandSource struct{}

// Intn returns a cryptographically secure random integer in [0, n).
// Panics if n <= 0 (programmer error).
func (cryptoRandSource) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("cryptoRandSource.Intn: n must be positive, got %d", n))
	}
	// rand.Int does not error when using rand.Reader
	// https://pkg.go.dev/crypto/rand#Int
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(nBig.Int64())
}

// defaultRandSource provides a cryptographically secure random source for production
var defaultRandSource RandSource = cryptoRandSource{}

// RankBids orders bids by price descending, keeping only the highest bid per bidder.
// Bidders tied on price are shuffled so no bidder gains a slot from submission order.
func RankBids(bids []Bid, randSource RandSource) []Bid {
	if len(bids) == 0 {
		return []Bid{}
	}

	// Find highest bid per bidder while preserving order of first occurrence
	highest := make(map[string]Bid, len(bids))
	bidderOrder := make([]string, 0, len(bids))

	for _, bid := range bids {
		existing, seen := highest[bid.Bidder]
		if !seen {
			bidderOrder = append(bidderOrder, bid.Bidder)
		}
		if !seen || bid.Price > existing.Price {
			highest[bid.Bidder] = bid
		}
	}

	ranked := make([]Bid, 0, len(bidderOrder))
	for _, bidder := range bidderOrder {
		ranked = append(ranked, highest[bidder])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price > ranked[j].Price
	})

	if randSource == nil {
		randSource = defaultRandSource
	}

	// Break ties randomly: shuffle groups of bids with the same price using Fisher-Yates
	i := 0
	for i < len(ranked) {
		price := ranked[i].Price
		j := i + 1
		for j < len(ranked) && ranked[j].Price == price {
			j++
		}

		if j-i > 1 {
			for k := j - 1; k > i; k-- {
				randIdx := i + randSource.Intn(k-i+1)
				ranked[k], ranked[randIdx] = ranked[randIdx], ranked[k]
			}
		}

		i = j
	}

	return ranked
}

// SortedPrices returns the prices of bids ordered from highest to lowest.
func SortedPrices(bids []Bid) []float64 {
	prices := make([]float64, len(bids))
	for i, bid := range bids {
		prices[i] = bid.Price
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(prices)))
	return prices
}
