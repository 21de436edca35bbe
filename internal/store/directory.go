package store

import (
	"context"

	"bookdir/backend/internal/domain"
)

// ProfileTable is an ordered mapping from id to profile for a single role.
// List returns profiles in ascending key order. Insert fails with
// ErrDuplicateID if the id is already present; nothing ever overwrites.
type ProfileTable interface {
	Insert(ctx context.Context, p domain.Profile) error
	Get(ctx context.Context, id int32) (domain.Profile, error)
	Remove(ctx context.Context, id int32) (domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Contains(ctx context.Context, id int32) (bool, error)
	IsEmpty(ctx context.Context) (bool, error)
	MaxID(ctx context.Context) (int32, error)
}

// BookingTable is the same contract shape specialized to bookings.
type BookingTable interface {
	Insert(ctx context.Context, b domain.Booking) error
	Get(ctx context.Context, id int32) (domain.Booking, error)
	Remove(ctx context.Context, id int32) (domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Contains(ctx context.Context, id int32) (bool, error)
	IsEmpty(ctx context.Context) (bool, error)
	MaxID(ctx context.Context) (int32, error)
}

// DirectoryTx is the view of all three collections inside one critical
// section. Profiles panics on an invalid role; callers validate roles before
// reaching the store.
type DirectoryTx interface {
	Profiles(role domain.Role) ProfileTable
	Bookings() BookingTable
}

// DirectoryStore serializes directory operations: InTransaction runs fn with
// exclusive access to the three collections, and no two invocations
// interleave their reads and writes. An error from fn aborts any writes fn
// performed.
type DirectoryStore interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx DirectoryTx) error) error
}
