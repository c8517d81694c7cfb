// Package convstore keeps bounded per-user chat history in memory.
package convstore

import (
	"sync"

	"github.com/ronoray/hungry-times-bot/llm"
)

// DefaultMaxTurns bounds how much history is replayed to the model.
const DefaultMaxTurns = 10

type Store struct {
	mu    sync.Mutex
	max   int
	turns map[int64][]llm.Message
}

func New(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Store{
		max:   maxTurns,
		turns: make(map[int64][]llm.Message),
	}
}

// Append records one turn for the user, dropping the oldest once the
// cap is reached. Unknown users get an entry on first append.
func (s *Store) Append(userID int64, msg llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := append(s.turns[userID], msg)
	if len(cur) > s.max {
		cur = cur[len(cur)-s.max:]
	}
	s.turns[userID] = cur
}

// Get returns a copy of the user's turns, oldest first. Nil when the
// user has no history.
func (s *Store) Get(userID int64) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.turns[userID]
	if len(cur) == 0 {
		return nil
	}
	out := make([]llm.Message, len(cur))
	copy(out, cur)
	return out
}

// Reset forgets the user's history entirely.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
}

func (s *Store) Len(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns[userID])
}
