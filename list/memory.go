package list

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/teranos/pantry/errors"
)

// FailFunc lets tests inject write failures into a MemoryStore.
// op is "adjust", "remove" or "add".
type FailFunc func(op, name string) error

// MemoryStore is an in-memory Store. It backs dry runs and tests.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]*Item
	nextOrder int
	failFn    FailFunc
	writes    int
	snapshots int
}

// NewMemoryStore returns a store seeded with items, in order.
func NewMemoryStore(items ...Item) *MemoryStore {
	s := &MemoryStore{items: make(map[string]*Item)}
	for _, it := range items {
		it := it
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.Order = s.nextOrder
		s.nextOrder++
		s.items[MatchKey(it.Name)] = &it
	}
	return s
}

// FailWith installs fn as the write-failure hook (nil clears it).
func (s *MemoryStore) FailWith(fn FailFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFn = fn
}

// Writes reports how many write calls reached the store.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Snapshots reports how many snapshots were taken.
func (s *MemoryStore) Snapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots
}

// Snapshot implements Reader. Items are returned in list order.
func (s *MemoryStore) Snapshot(ctx context.Context) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots++

	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, copyItem(it))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// AdjustQuantityByName implements Operations.
func (s *MemoryStore) AdjustQuantityByName(ctx context.Context, name string, delta int) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginWrite(ctx, "adjust", name); err != nil {
		return Item{}, err
	}

	it, ok := s.items[MatchKey(name)]
	if !ok {
		return Item{}, errors.Wrapf(ErrNoMatch, "adjust %q", name)
	}
	it.Quantity += delta
	return copyItem(it), nil
}

// RemoveByName implements Operations.
func (s *MemoryStore) RemoveByName(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginWrite(ctx, "remove", name); err != nil {
		return err
	}

	key := MatchKey(name)
	if _, ok := s.items[key]; !ok {
		return errors.Wrapf(ErrNoMatch, "remove %q", name)
	}
	delete(s.items, key)
	return nil
}

// AddOrIncreaseByName implements Operations.
func (s *MemoryStore) AddOrIncreaseByName(ctx context.Context, name string, quantity int, note *string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.beginWrite(ctx, "add", name); err != nil {
		return Item{}, err
	}

	key := MatchKey(name)
	if it, ok := s.items[key]; ok {
		if quantity > 0 && it.Quantity > math.MaxInt-quantity {
			it.Quantity = math.MaxInt
		} else {
			it.Quantity += quantity
		}
		if note != nil {
			n := *note
			it.Note = &n
		}
		return copyItem(it), nil
	}

	it := &Item{
		ID:       uuid.NewString(),
		Name:     name,
		Quantity: quantity,
		Order:    s.nextOrder,
	}
	if note != nil {
		n := *note
		it.Note = &n
	}
	s.nextOrder++
	s.items[key] = it
	return copyItem(it), nil
}

// beginWrite must be called with mu held.
func (s *MemoryStore) beginWrite(ctx context.Context, op, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writes++
	if s.failFn != nil {
		if err := s.failFn(op, name); err != nil {
			return err
		}
	}
	return nil
}

func copyItem(it *Item) Item {
	c := *it
	if it.Note != nil {
		n := *it.Note
		c.Note = &n
	}
	return c
}

var _ Store = (*MemoryStore)(nil)
