// Package program persists MIDI program state for nodes.
//
// A node's programs live under a key chosen by the host (usually the node's
// type and name). Stores do I/O and must only be used from the control
// thread.
package program

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Program number limits.
const (
	MinNumber = 0
	MaxNumber = 127
)

var (
	// ErrNotFound is returned when no program is stored under a number.
	ErrNotFound = errors.New("program: not found")
	// ErrInvalidNumber is returned for numbers outside MinNumber..MaxNumber.
	ErrInvalidNumber = errors.New("program: invalid number")
)

// Program is one saved program.
type Program struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Data   []byte `json:"data"`
}

// Store is a persistence interface for node programs.
type Store interface {
	Load(ctx context.Context, key string, number int) (Program, error)
	Save(ctx context.Context, key string, p Program) error
	Delete(ctx context.Context, key string, number int) error
	List(ctx context.Context, key string) ([]Program, error)
}

// CheckNumber validates a program number.
func CheckNumber(number int) error {
	if number < MinNumber || number > MaxNumber {
		return fmt.Errorf("%w: %d", ErrInvalidNumber, number)
	}

	return nil
}

// MemoryStore keeps programs in memory.
type MemoryStore struct {
	mu       sync.Mutex
	programs map[string]map[int]Program
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{programs: map[string]map[int]Program{}}
}

// Load returns a copy of the stored program.
func (s *MemoryStore) Load(ctx context.Context, key string, number int) (Program, error) {
	if err := ctx.Err(); err != nil {
		return Program{}, err
	}

	if err := CheckNumber(number); err != nil {
		return Program{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.programs[key][number]
	if !ok {
		return Program{}, fmt.Errorf("%w: %s/%d", ErrNotFound, key, number)
	}

	return clone(p), nil
}

// Save stores a copy of p.
func (s *MemoryStore) Save(ctx context.Context, key string, p Program) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := CheckNumber(p.Number); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.programs[key] == nil {
		s.programs[key] = map[int]Program{}
	}
	s.programs[key][p.Number] = clone(p)

	return nil
}

// Delete removes a program. Deleting a missing program is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string, number int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.programs[key], number)

	return nil
}

// List returns the key's programs ordered by number.
func (s *MemoryStore) List(ctx context.Context, key string) ([]Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Program, 0, len(s.programs[key]))
	for _, p := range s.programs[key] {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	return out, nil
}

func clone(p Program) Program {
	p.Data = append([]byte(nil), p.Data...)
	return p
}
