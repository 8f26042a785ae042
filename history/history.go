package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cloudx-io/gspbidding/core"
)

var ErrRoundOutOfRange = errors.New("round index out of range")

// History gives read access to completed auction rounds by index.
// Round 0 is the first completed round.
type History interface {
	Round(index int) (core.Round, error)
}

// Store is an append-only, in-memory round history safe for concurrent use.
type Store struct {
	ID string

	mu     sync.RWMutex
	rounds []core.Round
}

// NewStore creates an empty history with a fresh random ID.
func NewStore() *Store {
	return &Store{ID: uuid.NewString()}
}

// Append records a completed round, assigning it the next index and its integrity hash.
// Returns the index the round was stored under.
func (s *Store) Append(round core.Round) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := round.Clone()
	stored.Index = len(s.rounds)
	stored.Hash = core.ComputeRoundHash(stored)
	s.rounds = append(s.rounds, stored)
	return stored.Index
}

// Round returns a copy of the round stored at index.
func (s *Store) Round(index int) (core.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.rounds) {
		return core.Round{}, fmt.Errorf("%w: %d (have %d rounds)", ErrRoundOutOfRange, index, len(s.rounds))
	}
	return s.rounds[index].Clone(), nil
}

// Len returns the number of completed rounds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rounds)
}

// Rounds returns a copy of every stored round in index order.
func (s *Store) Rounds() []core.Round {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rounds := make([]core.Round, len(s.rounds))
	for i, r := range s.rounds {
		rounds[i] = r.Clone()
	}
	return rounds
}
