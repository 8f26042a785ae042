package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/gspbidding/core"
)

var ErrCorruptHistory = errors.New("corrupt history")

const formatVersion = 1

// historyFile is the on-disk representation shared by the JSON and CBOR encodings.
type historyFile struct {
	Version int          `json:"version" cbor:"1,keyasint"`
	ID      string       `json:"id" cbor:"2,keyasint"`
	Rounds  []core.Round `json:"rounds" cbor:"3,keyasint"`
}

var cborEncMode = mustCanonicalEncMode()

func mustCanonicalEncMode() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("history: invalid CBOR options: %v", err))
	}
	return mode
}

// isCBOR reports whether path selects the binary encoding.
func isCBOR(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cbor")
}

// Marshal encodes the store as CBOR when binary is true, JSON otherwise.
func Marshal(s *Store, binary bool) ([]byte, error) {
	file := historyFile{
		Version: formatVersion,
		ID:      s.ID,
		Rounds:  s.Rounds(),
	}

	if binary {
		data, err := cborEncMode.Marshal(file)
		if err != nil {
			return nil, fmt.Errorf("encode CBOR history: %w", err)
		}
		return data, nil
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode JSON history: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a history and verifies every round's index and integrity hash.
// Rounds without a hash (hand-written JSON) are accepted and hashed on load.
func Unmarshal(data []byte, binary bool) (*Store, error) {
	var file historyFile
	if binary {
		if err := cbor.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode CBOR history: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode JSON history: %w", err)
		}
	}

	if file.Version > formatVersion {
		return nil, fmt.Errorf("unsupported history version %d", file.Version)
	}

	store := &Store{ID: file.ID}
	if store.ID == "" {
		store.ID = NewStore().ID
	}

	for i, round := range file.Rounds {
		if round.Index != i {
			return nil, fmt.Errorf("%w: round at position %d has index %d", ErrCorruptHistory, i, round.Index)
		}
		if round.Hash != "" && round.Hash != core.ComputeRoundHash(round) {
			return nil, fmt.Errorf("%w: hash mismatch for round %d", ErrCorruptHistory, i)
		}
		store.Append(round)
	}

	return store, nil
}

// Save writes the store to path, using CBOR for a ".cbor" extension and JSON otherwise.
func Save(path string, s *Store) error {
	data, err := Marshal(s, isCBOR(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write history %s: %w", path, err)
	}
	return nil
}

// Load reads a history previously written by Save.
// A missing file yields an empty store so the first round can be recorded.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}

	store, err := Unmarshal(data, isCBOR(path))
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", path, err)
	}
	return store, nil
}
