package directory

import (
	"bookdir/backend/internal/domain"
)

// conflicts decides whether a candidate booking for (userID, doctorID, iv)
// is inadmissible next to an existing booking.
//
// When either side carries no interval the bookings are identity-only and
// only the identical participant pair is a duplicate. When both carry
// intervals, sharing either participant is a conflict iff the half-open
// ranges overlap; back-to-back intervals touch without overlapping.
func conflicts(existing domain.Booking, userID, doctorID int32, iv *domain.Interval) bool {
	sameUser := existing.UserID == userID
	sameDoctor := existing.DoctorID == doctorID

	if iv == nil || existing.Interval == nil {
		return sameUser && sameDoctor
	}
	return (sameUser || sameDoctor) && iv.Overlaps(*existing.Interval)
}
