package domain

import (
	"testing"
	"time"
)

func ivl(startHour, endHour int) Interval {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return Interval{
		StartAt: base.Add(time.Duration(startHour) * time.Hour),
		EndAt:   base.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestIntervalOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", ivl(10, 20), ivl(10, 20), true},
		{"partial", ivl(10, 20), ivl(15, 25), true},
		{"nested", ivl(10, 20), ivl(12, 14), true},
		{"back to back", ivl(10, 20), ivl(20, 30), false},
		{"disjoint", ivl(10, 12), ivl(14, 16), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v (symmetry)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole("user"); !ok || role != RoleUser {
		t.Fatalf("ParseRole(user) = %v, %v", role, ok)
	}
	if role, ok := ParseRole("doctor"); !ok || role != RoleDoctor {
		t.Fatalf("ParseRole(doctor) = %v, %v", role, ok)
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatalf("ParseRole(admin) accepted")
	}
	if _, ok := ParseRole(""); ok {
		t.Fatalf("ParseRole of empty string accepted")
	}
}
