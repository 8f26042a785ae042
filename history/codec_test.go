package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/gspbidding/core"
)

func populatedStore() *Store {
	store := NewStore()
	store.Append(sampleRound(8, 5))
	second := sampleRound(7.25, 6.5, 1)
	second.Rejected = []core.RejectedBid{{Bid: core.Bid{Bidder: "bidder_c", Price: 1}, Reason: "below_reserve"}}
	store.Append(second)
	return store
}

func TestMarshalUnmarshal_RoundTrip(t *testing.T) {
	for _, binary := range []bool{true, false} {
		store := populatedStore()

		data, err := Marshal(store, binary)
		assert.NoError(t, err)

		loaded, err := Unmarshal(data, binary)
		assert.NoError(t, err)

		check.Equal(t, store.ID, loaded.ID)
		check.Equal(t, store.Rounds(), loaded.Rounds())
	}
}

func TestSaveLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"history.cbor", "history.json"} {
		path := filepath.Join(dir, name)
		store := populatedStore()

		assert.NoError(t, Save(path, store))

		loaded, err := Load(path)
		assert.NoError(t, err)
		check.Equal(t, store.Rounds(), loaded.Rounds())
	}
}

func TestLoad_MissingFileGivesEmptyStore(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.NoError(t, err)

	check.Equal(t, 0, store.Len())
	check.NotEqual(t, "", store.ID)
}

func TestUnmarshal_DetectsTampering(t *testing.T) {
	data := []byte(`{
	  "version": 1,
	  "id": "h1",
	  "rounds": [
	    {"index": 0, "bids": [{"bidder": "bidder_a", "price": 8}], "occupants": ["bidder_a"],
	     "clicks": [10], "per_click_payments": [0], "reserve": 0, "hash": "deadbeef"}
	  ]
	}`)

	_, err := Unmarshal(data, false)
	check.True(t, errors.Is(err, ErrCorruptHistory))
}

func TestUnmarshal_DetectsIndexGap(t *testing.T) {
	data := []byte(`{"version": 1, "rounds": [{"index": 1, "clicks": [10]}]}`)

	_, err := Unmarshal(data, false)
	check.True(t, errors.Is(err, ErrCorruptHistory))
}

func TestUnmarshal_AcceptsHandWrittenRounds(t *testing.T) {
	data := []byte(`{
	  "rounds": [
	    {"index": 0, "bids": [{"bidder": "bidder_a", "price": 8}, {"bidder": "bidder_b", "price": 5}],
	     "occupants": ["bidder_a", "bidder_b"], "clicks": [10, 5], "per_click_payments": [5, 0]}
	  ]
	}`)

	store, err := Unmarshal(data, false)
	assert.NoError(t, err)

	check.Equal(t, 1, store.Len())
	check.NotEqual(t, "", store.ID)
	round, err := store.Round(0)
	assert.NoError(t, err)
	check.NotEqual(t, "", round.Hash)
}

func TestUnmarshal_RejectsNewerVersion(t *testing.T) {
	_, err := Unmarshal([]byte(`{"version": 99}`), false)
	check.Error(t, err)
}

func TestLoad_UnreadableContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cbor")
	assert.NoError(t, os.WriteFile(path, []byte("not cbor"), 0o644))

	_, err := Load(path)
	check.Error(t, err)
}
