package core

import (
	"testing"

	"github.com/peterldowns/testy/check"
)

// mockRandSource provides a deterministic random source for testing
type mockRandSource struct {
	sequence []int
	index    int
}

func (m *mockRandSource) Intn(n int) int {
	if m.index >= len(m.sequence) {
		return 0
	}
	val := m.sequence[m.index] % n
	m.index++
	return val
}

func bidders(bids []Bid) []string {
	names := make([]string, len(bids))
	for i, bid := range bids {
		names[i] = bid.Bidder
	}
	return names
}

func TestRankBids_Integration(t *testing.T) {
	bids := []Bid{
		{Bidder: "bidder_a", Price: 2.50},
		{Bidder: "bidder_b", Price: 2.25},
		{Bidder: "bidder_c", Price: 2.75},
	}

	ranked := RankBids(bids, nil)

	check.Equal(t, []string{"bidder_c", "bidder_a", "bidder_b"}, bidders(ranked))
	check.Equal(t, 2.75, ranked[0].Price)
	check.Equal(t, 2.50, ranked[1].Price)
	check.Equal(t, 2.25, ranked[2].Price)
}

func TestRankBids_EmptyBids(t *testing.T) {
	ranked := RankBids([]Bid{}, nil)

	check.NotNil(t, ranked)
	check.Equal(t, 0, len(ranked))
}

func TestRankBids_KeepsHighestBidPerBidder(t *testing.T) {
	bids := []Bid{
		{Bidder: "bidder_a", Price: 1.00},
		{Bidder: "bidder_b", Price: 2.00},
		{Bidder: "bidder_a", Price: 3.00},
	}

	ranked := RankBids(bids, nil)

	check.Equal(t, 2, len(ranked))
	check.Equal(t, "bidder_a", ranked[0].Bidder)
	check.Equal(t, 3.00, ranked[0].Price)
}

func TestRankBids_TwoWayTie(t *testing.T) {
	bids := []Bid{
		{Bidder: "bidder_a", Price: 2.50},
		{Bidder: "bidder_b", Price: 2.50},
		{Bidder: "bidder_c", Price: 1.00},
	}

	ranked1 := RankBids(bids, &mockRandSource{sequence: []int{0}})
	check.Equal(t, []string{"bidder_b", "bidder_a", "bidder_c"}, bidders(ranked1))

	ranked2 := RankBids(bids, &mockRandSource{sequence: []int{1}})
	check.Equal(t, []string{"bidder_a", "bidder_b", "bidder_c"}, bidders(ranked2))
}

func TestRankBids_ThreeWayTie_AllPositions(t *testing.T) {
	bids := []Bid{
		{Bidder: "bidder_a", Price: 2.00},
		{Bidder: "bidder_b", Price: 2.00},
		{Bidder: "bidder_c", Price: 2.00},
	}

	ranked1 := RankBids(bids, &mockRandSource{sequence: []int{0, 1}})
	check.Equal(t, []string{"bidder_c", "bidder_b", "bidder_a"}, bidders(ranked1))

	ranked2 := RankBids(bids, &mockRandSource{sequence: []int{2, 0}})
	check.Equal(t, []string{"bidder_b", "bidder_a", "bidder_c"}, bidders(ranked2))
}

func TestRankBids_MultipleTieLevels(t *testing.T) {
	bids := []Bid{
		{Bidder: "bidder_a", Price: 3.00},
		{Bidder: "bidder_b", Price: 3.00},
		{Bidder: "bidder_c", Price: 2.00},
		{Bidder: "bidder_d", Price: 2.00},
		{Bidder: "bidder_e", Price: 1.00},
	}

	ranked1 := RankBids(bids, &mockRandSource{sequence: []int{0, 1}})
	check.Equal(t, []string{"bidder_b", "bidder_a", "bidder_c", "bidder_d", "bidder_e"}, bidders(ranked1))

	ranked2 := RankBids(bids, &mockRandSource{sequence: []int{1, 0}})
	check.Equal(t, []string{"bidder_a", "bidder_b", "bidder_d", "bidder_c", "bidder_e"}, bidders(ranked2))
}

func TestRankBids_DoesNotMutateInput(t *testing.T) {
	bids := []Bid{
		{Bidder: "bidder_a", Price: 1.00},
		{Bidder: "bidder_b", Price: 2.00},
	}

	RankBids(bids, nil)

	check.Equal(t, "bidder_a", bids[0].Bidder)
	check.Equal(t, "bidder_b", bids[1].Bidder)
}

func TestSortedPrices(t *testing.T) {
	bids := []Bid{
		{Bidder: "bidder_a", Price: 1.00},
		{Bidder: "bidder_b", Price: 4.00},
		{Bidder: "bidder_c", Price: 2.50},
	}

	check.Equal(t, []float64{4.00, 2.50, 1.00}, SortedPrices(bids))
	check.Equal(t, []float64{}, SortedPrices(nil))
}
