package core

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ComputeBidHash computes the hash of a single bid.
//
// Formula: SHA256(bidder + "|" + sprintf("%.6f", price))
//
// The price is formatted to exactly 6 decimal places to ensure consistent hashing
// regardless of how the float is represented in memory.
func ComputeBidHash(bid Bid) string {
	data := fmt.Sprintf("%s|%.6f", bid.Bidder, bid.Price)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeRoundHash computes the integrity hash stored alongside a recorded round.
//
// Formula: SHA256(index + "|" + reserve + "|" + bid_hashes + "|" + occupants + "|" + clicks + "|" + payments
// + "|" + rejected_bid_hashes) where lists are joined with "," and all prices use 6 decimal places.
// The Hash field of the round itself is not part of the input.
func ComputeRoundHash(round Round) string {
	bidHashes := make([]string, len(round.Bids))
	for i, bid := range round.Bids {
		bidHashes[i] = ComputeBidHash(bid)
	}

	clicks := make([]string, len(round.Clicks))
	for i, c := range round.Clicks {
		clicks[i] = fmt.Sprintf("%d", c)
	}

	payments := make([]string, len(round.PerClickPayments))
	for i, p := range round.PerClickPayments {
		payments[i] = fmt.Sprintf("%.6f", p)
	}

	rejectedHashes := make([]string, len(round.Rejected))
	for i, r := range round.Rejected {
		rejectedHashes[i] = ComputeBidHash(r.Bid)
	}

	data := fmt.Sprintf("%d|%.6f|%s|%s|%s|%s|%s",
		round.Index,
		round.Reserve,
		strings.Join(bidHashes, ","),
		strings.Join(round.Occupants, ","),
		strings.Join(clicks, ","),
		strings.Join(payments, ","),
		strings.Join(rejectedHashes, ","),
	)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
