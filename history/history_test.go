package history

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/gspbidding/core"
)

func sampleRound(prices ...float64) core.Round {
	names := []string{"bidder_a", "bidder_b", "bidder_c"}
	bids := make([]core.Bid, len(prices))
	for i, p := range prices {
		bids[i] = core.Bid{Bidder: names[i], Price: p}
	}
	return core.Round{
		Bids:             bids,
		Occupants:        []string{"bidder_a", "bidder_b"},
		Clicks:           []int{10, 5},
		PerClickPayments: []float64{5, 0},
	}
}

func TestNewStore(t *testing.T) {
	store := NewStore()

	check.Equal(t, 0, store.Len())
	parsed, err := uuid.Parse(store.ID)
	assert.NoError(t, err)
	check.Equal(t, uuid.Version(4), parsed.Version())
}

func TestStore_AppendAssignsIndexAndHash(t *testing.T) {
	store := NewStore()

	first := sampleRound(8, 5)
	first.Index = 42
	check.Equal(t, 0, store.Append(first))
	check.Equal(t, 1, store.Append(sampleRound(7, 6)))
	check.Equal(t, 2, store.Len())

	round, err := store.Round(0)
	assert.NoError(t, err)
	check.Equal(t, 0, round.Index)
	check.Equal(t, core.ComputeRoundHash(round), round.Hash)
	check.Equal(t, 8.0, round.Bids[0].Price)
}

func TestStore_RoundOutOfRange(t *testing.T) {
	store := NewStore()
	store.Append(sampleRound(8, 5))

	for _, index := range []int{-1, 1, 5} {
		_, err := store.Round(index)
		check.True(t, errors.Is(err, ErrRoundOutOfRange))
	}
}

func TestStore_IsolatedFromCallers(t *testing.T) {
	store := NewStore()
	round := sampleRound(8, 5)
	store.Append(round)

	// Mutating the appended value must not change history
	round.Bids[0].Price = 1

	got, err := store.Round(0)
	assert.NoError(t, err)
	check.Equal(t, 8.0, got.Bids[0].Price)

	// Mutating a returned round must not change history either
	got.Clicks[0] = 99
	again, err := store.Round(0)
	assert.NoError(t, err)
	check.Equal(t, 10, again.Clicks[0])
}

func TestStore_ConcurrentAppendAndRead(t *testing.T) {
	store := NewStore()
	wg := &sync.WaitGroup{}

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Append(sampleRound(8, 5))
		}()
		go func() {
			defer wg.Done()
			_ = store.Rounds()
		}()
	}
	wg.Wait()

	check.Equal(t, 20, store.Len())
	for i, round := range store.Rounds() {
		check.Equal(t, i, round.Index)
	}
}

func TestStore_SatisfiesHistory(t *testing.T) {
	var h History = NewStore()
	_, err := h.Round(0)
	check.Error(t, err)
}
