// Package directory implements the booking directory: user and doctor
// profile lifecycle, booking lifecycle, and the cascade rules that keep the
// three collections consistent. Every public operation runs inside one store
// critical section, so checks and writes never interleave across calls.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bookdir/backend/internal/domain"
	"bookdir/backend/internal/events"
	"bookdir/backend/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Service struct {
	store store.DirectoryStore
	pub   events.Publisher
	log   *slog.Logger
	now   func() time.Time
}

type Option func(*Service)

func WithPublisher(pub events.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.DirectoryStore, opts ...Option) *Service {
	s := &Service{
		store: st,
		pub:   events.Noop{},
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateProfile(ctx context.Context, role domain.Role, username string, caller domain.Principal) (domain.Profile, error) {
	if !role.Valid() {
		return domain.Profile{}, validationError("role must be user or doctor")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Profile{}, validationError("username is required")
	}
	if caller == "" {
		return domain.Profile{}, validationError("caller is required")
	}

	var out domain.Profile
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		profiles := tx.Profiles(role)

		existing, err := profiles.List(ctx)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if p.Username == username {
				return fmt.Errorf("%w: username %q is already taken", store.ErrConflict, username)
			}
		}

		id, err := nextID(ctx, profiles)
		if err != nil {
			return err
		}

		out = domain.Profile{
			ID:        id,
			Role:      role,
			Username:  username,
			Owner:     caller,
			CreatedAt: s.now().UTC(),
		}
		return profiles.Insert(ctx, out)
	})
	if err != nil {
		return domain.Profile{}, err
	}

	s.publish(ctx, events.KeyProfileCreated, out)
	return out, nil
}

func (s *Service) GetProfile(ctx context.Context, role domain.Role, id int32) (domain.Profile, error) {
	if !role.Valid() {
		return domain.Profile{}, validationError("role must be user or doctor")
	}
	if id <= 0 {
		return domain.Profile{}, validationError("id must be positive")
	}

	var out domain.Profile
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		p, err := tx.Profiles(role).Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s profile %d", store.ErrNotFound, role, id)
		}
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return out, nil
}

func (s *Service) ListProfiles(ctx context.Context, role domain.Role) ([]domain.Profile, error) {
	if !role.Valid() {
		return nil, validationError("role must be user or doctor")
	}

	var out []domain.Profile
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		var err error
		out, err = tx.Profiles(role).List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProfile removes a profile and, as the same logical unit, every
// booking that references it. Booking ids are collected before any removal
// so the collection is never mutated while it is being traversed.
func (s *Service) DeleteProfile(ctx context.Context, role domain.Role, id int32, caller domain.Principal) (domain.Profile, error) {
	if !role.Valid() {
		return domain.Profile{}, validationError("role must be user or doctor")
	}
	if id <= 0 {
		return domain.Profile{}, validationError("id must be positive")
	}
	if caller == "" {
		return domain.Profile{}, validationError("caller is required")
	}

	var removed domain.Profile
	var cascaded []domain.Booking
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		cascaded = cascaded[:0]

		profiles := tx.Profiles(role)
		p, err := profiles.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %s profile %d", store.ErrNotFound, role, id)
		}
		if err != nil {
			return err
		}
		if p.Owner != caller {
			return fmt.Errorf("%w: %s profile %d belongs to another principal", store.ErrUnauthorized, role, id)
		}

		bookings := tx.Bookings()
		all, err := bookings.List(ctx)
		if err != nil {
			return err
		}
		for _, b := range all {
			if references(b, role, id) {
				cascaded = append(cascaded, b)
			}
		}
		for _, b := range cascaded {
			if _, err := bookings.Remove(ctx, b.ID); err != nil {
				return err
			}
		}

		removed, err = profiles.Remove(ctx, id)
		return err
	})
	if err != nil {
		return domain.Profile{}, err
	}

	for _, b := range cascaded {
		s.publish(ctx, events.KeyBookingDeleted, b)
	}
	s.publish(ctx, events.KeyProfileDeleted, removed)
	return removed, nil
}

type CreateBookingInput struct {
	UserID   int32
	DoctorID int32
	Interval *domain.Interval
}

func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	if in.UserID <= 0 {
		return domain.Booking{}, validationError("user_id must be positive")
	}
	if in.DoctorID <= 0 {
		return domain.Booking{}, validationError("doctor_id must be positive")
	}

	now := s.now().UTC()

	var iv *domain.Interval
	if in.Interval != nil {
		v := in.Interval.UTC()
		if !v.StartAt.Before(v.EndAt) {
			return domain.Booking{}, validationError("start_at must be before end_at")
		}
		if !v.StartAt.After(now) {
			return domain.Booking{}, validationError("start_at must be in the future")
		}
		iv = &v
	}

	var out domain.Booking
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		if ok, err := tx.Profiles(domain.RoleUser).Contains(ctx, in.UserID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: user %d", store.ErrNotFound, in.UserID)
		}
		if ok, err := tx.Profiles(domain.RoleDoctor).Contains(ctx, in.DoctorID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: doctor %d", store.ErrNotFound, in.DoctorID)
		}

		bookings := tx.Bookings()
		existing, err := bookings.List(ctx)
		if err != nil {
			return err
		}
		for _, b := range existing {
			if conflicts(b, in.UserID, in.DoctorID, iv) {
				return fmt.Errorf("%w: conflicts with booking %d", store.ErrConflict, b.ID)
			}
		}

		id, err := nextID(ctx, bookings)
		if err != nil {
			return err
		}

		out = domain.Booking{
			ID:        id,
			UserID:    in.UserID,
			DoctorID:  in.DoctorID,
			Interval:  iv,
			CreatedAt: now,
		}
		return bookings.Insert(ctx, out)
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.publish(ctx, events.KeyBookingCreated, out)
	return out, nil
}

func (s *Service) GetBooking(ctx context.Context, id int32) (domain.Booking, error) {
	if id <= 0 {
		return domain.Booking{}, validationError("id must be positive")
	}

	var out domain.Booking
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		b, err := tx.Bookings().Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: booking %d", store.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func (s *Service) ListBookingsForUser(ctx context.Context, userID int32) ([]domain.Booking, error) {
	if userID <= 0 {
		return nil, validationError("user_id must be positive")
	}
	return s.listBookings(ctx, func(b domain.Booking) bool { return b.UserID == userID })
}

func (s *Service) ListBookingsForDoctor(ctx context.Context, doctorID int32) ([]domain.Booking, error) {
	if doctorID <= 0 {
		return nil, validationError("doctor_id must be positive")
	}
	return s.listBookings(ctx, func(b domain.Booking) bool { return b.DoctorID == doctorID })
}

func (s *Service) listBookings(ctx context.Context, keep func(domain.Booking) bool) ([]domain.Booking, error) {
	out := make([]domain.Booking, 0)
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		all, err := tx.Bookings().List(ctx)
		if err != nil {
			return err
		}
		for _, b := range all {
			if keep(b) {
				out = append(out, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeleteBooking(ctx context.Context, id int32) (domain.Booking, error) {
	if id <= 0 {
		return domain.Booking{}, validationError("id must be positive")
	}

	var removed domain.Booking
	err := s.store.InTransaction(ctx, func(ctx context.Context, tx store.DirectoryTx) error {
		b, err := tx.Bookings().Remove(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: booking %d", store.ErrNotFound, id)
		}
		if err != nil {
			return err
		}
		removed = b
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.publish(ctx, events.KeyBookingDeleted, removed)
	return removed, nil
}

// references reports whether b points at the profile (role, id) through its
// user or doctor foreign key.
func references(b domain.Booking, role domain.Role, id int32) bool {
	if role == domain.RoleUser {
		return b.UserID == id
	}
	return b.DoctorID == id
}

func (s *Service) publish(ctx context.Context, key string, v any) {
	if err := s.pub.Publish(ctx, key, v); err != nil {
		s.log.Warn("event publish failed", slog.String("key", key), slog.Any("err", err))
	}
}
