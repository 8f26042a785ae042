package bidapi

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/gspbidding/core"
)

// TestParseRoundInput_Inline tests parsing a round given as inline JSON
func TestParseRoundInput_Inline(t *testing.T) {
	input, err := ParseRoundInput(`{"bids":[{"bidder":"bidder_a","price":8},{"bidder":"bidder_b","price":5}],"clicks":[10,5]}`)
	assert.NoError(t, err)

	check.Equal(t, []core.Bid{
		{Bidder: "bidder_a", Price: 8},
		{Bidder: "bidder_b", Price: 5},
	}, input.Bids)
	check.Equal(t, []int{10, 5}, input.Clicks)
}

// TestParseRoundInput_File tests parsing a round from a file path
func TestParseRoundInput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "round.json")
	assert.NoError(t, os.WriteFile(path, []byte(`{"bids":[{"bidder":"bidder_a","price":2.5}]}`), 0o644))

	input, err := ParseRoundInput(path)
	assert.NoError(t, err)

	check.Equal(t, 1, len(input.Bids))
	check.Nil(t, input.Clicks)
}

// TestParseRoundInput_Invalid tests rejection of malformed rounds
func TestParseRoundInput_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not json", "{bids"},
		{"negative price", `{"bids":[{"bidder":"bidder_a","price":-1}]}`},
		{"duplicate bidder", `{"bids":[{"bidder":"bidder_a","price":1},{"bidder":"bidder_a","price":2}]}`},
		{"missing bidder", `{"bids":[{"price":1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoundInput(tt.input)
			check.Error(t, err)
		})
	}
}

// TestBidDecision_JSON tests the wire field names of a bid decision
func TestBidDecision_JSON(t *testing.T) {
	decision := BidDecision{
		AgentID: "me",
		Round:   3,
		Bid:     7,
		Target:  &core.SlotInfo{Slot: 1, MinBid: 4, MaxBid: 9},
	}

	data, err := json.Marshal(decision)
	assert.NoError(t, err)

	var fields map[string]any
	assert.NoError(t, json.Unmarshal(data, &fields))
	check.Equal(t, "me", fields["agent_id"])
	check.Equal(t, 7.0, fields["bid"])
	check.Equal(t, false, fields["initial"])
	check.NotNil(t, fields["target"])
	check.Nil(t, fields["utilities"])
}

// TestNewRoundSummary tests copying a stored round into its summary
func TestNewRoundSummary(t *testing.T) {
	round := core.Round{
		Index:            2,
		Occupants:        []string{"bidder_a"},
		Clicks:           []int{10},
		PerClickPayments: []float64{1},
		Hash:             "abc",
		Rejected:         []core.RejectedBid{{Bid: core.Bid{Bidder: "bidder_b", Price: 0.2}, Reason: "below_reserve"}},
	}

	summary := NewRoundSummary("h1", round)

	check.Equal(t, "h1", summary.HistoryID)
	check.Equal(t, 2, summary.Round)
	check.Equal(t, []string{"bidder_a"}, summary.Occupants)
	check.Equal(t, "abc", summary.Hash)
	check.Equal(t, 1, len(summary.Rejected))
	check.Equal(t, "bidder_b", summary.Rejected[0].Bid.Bidder)
}
