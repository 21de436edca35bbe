package directory

import (
	"testing"
	"time"

	"bookdir/backend/internal/domain"
)

func span(startHour, endHour int) *domain.Interval {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &domain.Interval{
		StartAt: base.Add(time.Duration(startHour) * time.Hour),
		EndAt:   base.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestConflicts_IdentityOnlyBookings(t *testing.T) {
	existing := domain.Booking{ID: 1, UserID: 1, DoctorID: 2}

	if !conflicts(existing, 1, 2, nil) {
		t.Fatalf("identical pair without intervals must conflict")
	}
	if conflicts(existing, 1, 3, nil) {
		t.Fatalf("same user, different doctor must not conflict without intervals")
	}
	if conflicts(existing, 4, 2, nil) {
		t.Fatalf("same doctor, different user must not conflict without intervals")
	}
}

func TestConflicts_MixedIntervalPresence(t *testing.T) {
	bare := domain.Booking{ID: 1, UserID: 1, DoctorID: 2}
	if !conflicts(bare, 1, 2, span(10, 20)) {
		t.Fatalf("candidate with interval vs bare booking on same pair must conflict")
	}
	if conflicts(bare, 1, 3, span(10, 20)) {
		t.Fatalf("candidate with interval vs bare booking sharing only the user must not conflict")
	}

	timed := domain.Booking{ID: 2, UserID: 1, DoctorID: 2, Interval: span(10, 20)}
	if !conflicts(timed, 1, 2, nil) {
		t.Fatalf("bare candidate vs timed booking on same pair must conflict")
	}
}

func TestConflicts_SharedParticipantOverlap(t *testing.T) {
	existing := domain.Booking{ID: 1, UserID: 1, DoctorID: 2, Interval: span(10, 20)}

	if !conflicts(existing, 1, 9, span(15, 25)) {
		t.Fatalf("same user with overlapping interval must conflict")
	}
	if !conflicts(existing, 9, 2, span(15, 25)) {
		t.Fatalf("same doctor with overlapping interval must conflict")
	}
	if conflicts(existing, 9, 8, span(15, 25)) {
		t.Fatalf("disjoint participants must never conflict")
	}
	if conflicts(existing, 1, 2, span(20, 30)) {
		t.Fatalf("back-to-back interval must not conflict")
	}
}
