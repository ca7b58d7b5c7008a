package domain

import (
	"time"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
)

const (
	// MaxRenewalDays is how far ahead a due date may be pushed.
	MaxRenewalDays = 28
	// DefaultRenewalDays is the proposal shown on the renew form.
	DefaultRenewalDays = 21
)

// Reasons carried by renewal out-of-range errors.
const (
	RenewalPast   = "past"
	RenewalTooFar = "too-far"
)

// RenewalField is the form field renewal errors attach to.
const RenewalField = "renewal_date"

// DefaultRenewalDate proposes a due date three weeks from today.
func DefaultRenewalDate(today time.Time) time.Time {
	return DateOf(today).AddDate(0, 0, DefaultRenewalDays)
}

// ValidateRenewalDate accepts candidate iff today <= candidate <= today+28 days.
// Only calendar days are compared. The candidate is returned unchanged.
func ValidateRenewalDate(candidate, today time.Time) (time.Time, error) {
	day := DateOf(candidate)
	start := DateOf(today)

	if day.Before(start) {
		return time.Time{}, domainerrors.OutOfRange(RenewalField, RenewalPast,
			"Invalid date - renewal in past")
	}
	if day.After(start.AddDate(0, 0, MaxRenewalDays)) {
		return time.Time{}, domainerrors.OutOfRange(RenewalField, RenewalTooFar,
			"Invalid date - renewal more than 4 weeks ahead")
	}
	return candidate, nil
}

// ValidateInstanceConsistency rejects a copy that is on the shelf (Available
// or Maintenance) while still carrying a borrower or a due date.
func ValidateInstanceConsistency(status *Status, dueBack *time.Time, borrowerID string) error {
	if !status.Kind().OnShelf() {
		return nil
	}
	if dueBack != nil || borrowerID != "" {
		return domainerrors.InvalidState(
			`Invalid status - book can't have status "` + status.Name +
				`" while having Borrower and Renewal date`)
	}
	return nil
}
