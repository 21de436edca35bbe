// Package memory implements the directory store contract on plain maps. It
// backs unit tests and database-free local runs; durability comes from the
// postgres implementation.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"bookdir/backend/internal/domain"
	"bookdir/backend/internal/store"
)

type Store struct {
	mu       sync.Mutex
	users    map[int32]domain.Profile
	doctors  map[int32]domain.Profile
	bookings map[int32]domain.Booking
}

func New() *Store {
	return &Store{
		users:    make(map[int32]domain.Profile),
		doctors:  make(map[int32]domain.Profile),
		bookings: make(map[int32]domain.Booking),
	}
}

// InTransaction holds the store lock for the duration of fn, so operations
// never interleave. On error every write fn performed is rolled back.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context, tx store.DirectoryTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := maps.Clone(s.users)
	doctors := maps.Clone(s.doctors)
	bookings := maps.Clone(s.bookings)

	if err := fn(ctx, directoryTx{s: s}); err != nil {
		s.users = users
		s.doctors = doctors
		s.bookings = bookings
		return err
	}
	return nil
}

type directoryTx struct {
	s *Store
}

func (t directoryTx) Profiles(role domain.Role) store.ProfileTable {
	switch role {
	case domain.RoleUser:
		return profileTable{m: t.s.users}
	case domain.RoleDoctor:
		return profileTable{m: t.s.doctors}
	default:
		panic("memory: invalid role " + string(role))
	}
}

func (t directoryTx) Bookings() store.BookingTable {
	return bookingTable{m: t.s.bookings}
}

type profileTable struct {
	m map[int32]domain.Profile
}

func (t profileTable) Insert(ctx context.Context, p domain.Profile) error {
	if _, ok := t.m[p.ID]; ok {
		return store.ErrDuplicateID
	}
	t.m[p.ID] = p
	return nil
}

func (t profileTable) Get(ctx context.Context, id int32) (domain.Profile, error) {
	p, ok := t.m[id]
	if !ok {
		return domain.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (t profileTable) Remove(ctx context.Context, id int32) (domain.Profile, error) {
	p, ok := t.m[id]
	if !ok {
		return domain.Profile{}, store.ErrNotFound
	}
	delete(t.m, id)
	return p, nil
}

func (t profileTable) List(ctx context.Context) ([]domain.Profile, error) {
	out := make([]domain.Profile, 0, len(t.m))
	for _, id := range sortedKeys(t.m) {
		out = append(out, t.m[id])
	}
	return out, nil
}

func (t profileTable) Contains(ctx context.Context, id int32) (bool, error) {
	_, ok := t.m[id]
	return ok, nil
}

func (t profileTable) IsEmpty(ctx context.Context) (bool, error) {
	return len(t.m) == 0, nil
}

func (t profileTable) MaxID(ctx context.Context) (int32, error) {
	var max int32
	for id := range t.m {
		if id > max {
			max = id
		}
	}
	return max, nil
}

type bookingTable struct {
	m map[int32]domain.Booking
}

func (t bookingTable) Insert(ctx context.Context, b domain.Booking) error {
	if _, ok := t.m[b.ID]; ok {
		return store.ErrDuplicateID
	}
	t.m[b.ID] = b
	return nil
}

func (t bookingTable) Get(ctx context.Context, id int32) (domain.Booking, error) {
	b, ok := t.m[id]
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	return b, nil
}

func (t bookingTable) Remove(ctx context.Context, id int32) (domain.Booking, error) {
	b, ok := t.m[id]
	if !ok {
		return domain.Booking{}, store.ErrNotFound
	}
	delete(t.m, id)
	return b, nil
}

func (t bookingTable) List(ctx context.Context) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0, len(t.m))
	for _, id := range sortedKeys(t.m) {
		out = append(out, t.m[id])
	}
	return out, nil
}

func (t bookingTable) Contains(ctx context.Context, id int32) (bool, error) {
	_, ok := t.m[id]
	return ok, nil
}

func (t bookingTable) IsEmpty(ctx context.Context) (bool, error) {
	return len(t.m) == 0, nil
}

func (t bookingTable) MaxID(ctx context.Context) (int32, error) {
	var max int32
	for id := range t.m {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func sortedKeys[V any](m map[int32]V) []int32 {
	keys := make([]int32, 0, len(m))
	for id := range m {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
