package core

// Bid represents a single bidder's per-click bid in one auction round.
type Bid struct {
	Bidder string  `json:"bidder" cbor:"1,keyasint"`
	Price  float64 `json:"price" cbor:"2,keyasint"`
}

// Round is an immutable snapshot of one completed auction iteration.
type Round struct {
	Index int   `json:"index" cbor:"1,keyasint"`
	Bids  []Bid `json:"bids" cbor:"2,keyasint"`

	// Occupants holds the bidder placed in each slot, best slot first.
	// It is shorter than Clicks when fewer bids cleared the reserve than there are slots.
	Occupants []string `json:"occupants" cbor:"3,keyasint"`

	// Clicks holds the click count of each slot, index 0 being the top slot
	Clicks []int `json:"clicks" cbor:"4,keyasint"`

	// PerClickPayments holds what each occupant pays per click, parallel to Occupants
	PerClickPayments []float64 `json:"per_click_payments" cbor:"5,keyasint"`

	Reserve float64 `json:"reserve" cbor:"6,keyasint"`
	Hash    string  `json:"hash,omitempty" cbor:"7,keyasint,omitempty"`

	// Rejected lists the bids, after adjustment, that did not clear the reserve
	Rejected []RejectedBid `json:"rejected,omitempty" cbor:"8,keyasint,omitempty"`
}

// NumSlots returns the number of slots auctioned in the round.
func (r Round) NumSlots() int {
	return len(r.Clicks)
}

// Clone returns a deep copy so the round can be handed out without sharing slices.
func (r Round) Clone() Round {
	c := r
	c.Bids = append([]Bid(nil), r.Bids...)
	c.Occupants = append([]string(nil), r.Occupants...)
	c.Clicks = append([]int(nil), r.Clicks...)
	c.PerClickPayments = append([]float64(nil), r.PerClickPayments...)
	c.Rejected = append([]RejectedBid(nil), r.Rejected...)
	return c
}

// BidRange is the range of bids that lands a bidder in a given slot.
// HasMax is false exactly for the top slot, which has no better slot to bound it.
type BidRange struct {
	Min    float64
	Max    float64
	HasMax bool
}

// SlotInfo describes the bid thresholds of one slot as seen from the previous round.
type SlotInfo struct {
	Slot   int     `json:"slot"`
	MinBid float64 `json:"min_bid"`
	MaxBid float64 `json:"max_bid"`
}

// RejectedBid represents a bid that was excluded from slot allocation.
type RejectedBid struct {
	Bid    Bid    `json:"bid" cbor:"1,keyasint"`
	Reason string `json:"reason" cbor:"2,keyasint"`
}
