package bidapi

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cloudx-io/gspbidding/core"
	"github.com/cloudx-io/gspbidding/history"
)

// RoundInput represents the bids submitted for one round, as handed to the round recorder.
// Clicks may be omitted, in which case the standard click model is used.
type RoundInput struct {
	Bids   []core.Bid `json:"bids"`
	Clicks []int      `json:"clicks,omitempty"`
}

// BidDecision represents the bid a Balanced Bidding agent submits for a round
type BidDecision struct {
	AgentID string  `json:"agent_id"`
	Round   int     `json:"round"`
	Bid     float64 `json:"bid"`

	// Reserve is the reserve the bid was computed against
	Reserve float64 `json:"reserve"`

	// Initial is true when there was no history and the opening bid was used
	Initial bool `json:"initial"`

	// Target is the slot the bid aims for (nil for the opening bid)
	Target *core.SlotInfo `json:"target,omitempty"`

	// Utilities lists the expected utility per slot, ending with the no-slot outcome
	Utilities []float64 `json:"utilities,omitempty"`

	History history.BidStat `json:"history"`

	// SlotWins counts past rounds won per slot rank
	SlotWins map[int]int `json:"slot_wins,omitempty"`
}

// RoundSummary represents the outcome of a recorded round
type RoundSummary struct {
	HistoryID        string    `json:"history_id"`
	Round            int       `json:"round"`
	Occupants        []string  `json:"occupants"`
	Clicks           []int     `json:"clicks"`
	PerClickPayments []float64 `json:"per_click_payments"`
	Hash             string    `json:"hash"`

	// Rejected lists the bids that fell below the reserve
	Rejected []core.RejectedBid `json:"rejected,omitempty"`
}

// NewRoundSummary builds the summary of a round stored in the history identified by historyID.
func NewRoundSummary(historyID string, round core.Round) RoundSummary {
	return RoundSummary{
		HistoryID:        historyID,
		Round:            round.Index,
		Occupants:        round.Occupants,
		Clicks:           round.Clicks,
		PerClickPayments: round.PerClickPayments,
		Hash:             round.Hash,
		Rejected:         round.Rejected,
	}
}

// ReadInput reads input as a file path, falling back to treating it as inline JSON.
func ReadInput(input string) ([]byte, error) {
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}
	if data, err := os.ReadFile(input); err == nil {
		return data, nil
	}
	return []byte(input), nil
}

// ParseRoundInput decodes a RoundInput from a file path or inline JSON.
// Negative bid prices and duplicate bidders are rejected.
func ParseRoundInput(input string) (*RoundInput, error) {
	data, err := ReadInput(input)
	if err != nil {
		return nil, err
	}

	var roundInput RoundInput
	if err := json.Unmarshal(data, &roundInput); err != nil {
		return nil, fmt.Errorf("parse round input: %w", err)
	}

	seen := make(map[string]bool, len(roundInput.Bids))
	for _, bid := range roundInput.Bids {
		if bid.Bidder == "" {
			return nil, fmt.Errorf("bid with empty bidder")
		}
		if seen[bid.Bidder] {
			return nil, fmt.Errorf("duplicate bid from %s", bid.Bidder)
		}
		if bid.Price < 0 {
			return nil, fmt.Errorf("negative bid %.4f from %s", bid.Price, bid.Bidder)
		}
		seen[bid.Bidder] = true
	}

	return &roundInput, nil
}
