package domain

import (
	"time"
)

// Interval is a half-open time range [StartAt, EndAt). Back-to-back bookings
// share an endpoint without overlapping.
type Interval struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.StartAt.Before(other.EndAt) && other.StartAt.Before(iv.EndAt)
}

func (iv Interval) UTC() Interval {
	return Interval{StartAt: iv.StartAt.UTC(), EndAt: iv.EndAt.UTC()}
}

// Booking links one user and one doctor, optionally at a scheduled interval.
// Bookings are immutable once created; the only transition is deletion.
type Booking struct {
	ID        int32     `json:"id"`
	UserID    int32     `json:"user_id"`
	DoctorID  int32     `json:"doctor_id"`
	Interval  *Interval `json:"interval,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
