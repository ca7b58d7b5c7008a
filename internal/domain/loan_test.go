package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/NickLinnik/LocalLibrary/internal/errors"
)

var testToday = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

func TestValidateRenewalDate_Window(t *testing.T) {
	// Sweep well past both ends of the window.
	for offset := -40; offset <= 40; offset++ {
		candidate := testToday.AddDate(0, 0, offset)
		got, err := ValidateRenewalDate(candidate, testToday)

		inWindow := offset >= 0 && offset <= MaxRenewalDays
		if inWindow {
			require.NoError(t, err, "offset %d", offset)
			assert.Equal(t, candidate, got)
			continue
		}

		require.Error(t, err, "offset %d", offset)
		assert.True(t, domainerrors.Is(err, domainerrors.ErrOutOfRange))
		if offset < 0 {
			assert.Equal(t, RenewalPast, domainerrors.Reason(err))
		} else {
			assert.Equal(t, RenewalTooFar, domainerrors.Reason(err))
		}
	}
}

func TestValidateRenewalDate_IgnoresClock(t *testing.T) {
	lateToday := testToday.Add(23*time.Hour + 59*time.Minute)
	_, err := ValidateRenewalDate(testToday, lateToday)
	assert.NoError(t, err)

	_, err = ValidateRenewalDate(testToday.AddDate(0, 0, MaxRenewalDays).Add(22*time.Hour), testToday)
	assert.NoError(t, err)
}

func TestValidateRenewalDate_FieldErrors(t *testing.T) {
	_, err := ValidateRenewalDate(testToday.AddDate(0, 0, -1), testToday)
	fields := domainerrors.FieldsOf(err)
	require.NotNil(t, fields)
	assert.Equal(t, "Invalid date - renewal in past", fields[RenewalField])
}

func TestDefaultRenewalDate(t *testing.T) {
	assert.Equal(t, time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC), DefaultRenewalDate(testToday))

	_, err := ValidateRenewalDate(DefaultRenewalDate(testToday), testToday)
	assert.NoError(t, err)
}

func TestValidateInstanceConsistency(t *testing.T) {
	due := testToday.AddDate(0, 0, 7)

	available := &Status{ID: 1, Name: "Available"}
	maintenance := &Status{ID: 2, Name: "Maintenance"}
	onLoan := &Status{ID: 3, Name: "On Loan"}
	reserved := &Status{ID: 4, Name: "Reserved"}

	tests := []struct {
		name     string
		status   *Status
		dueBack  *time.Time
		borrower string
		wantErr  bool
	}{
		{"available clean", available, nil, "", false},
		{"available with due date", available, &due, "", true},
		{"available with borrower", available, nil, "usr-1", true},
		{"available with both", available, &due, "usr-1", true},
		{"maintenance with due date", maintenance, &due, "", true},
		{"maintenance clean", maintenance, nil, "", false},
		{"on loan with both", onLoan, &due, "usr-1", false},
		{"on loan clean", onLoan, nil, "", false},
		{"reserved with borrower", reserved, nil, "usr-1", false},
		{"no status with both", nil, &due, "usr-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInstanceConsistency(tt.status, tt.dueBack, tt.borrower)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domainerrors.Is(err, domainerrors.ErrInvalidState))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatusKind(t *testing.T) {
	assert.Equal(t, StatusOnLoan, KindOf("On Loan"))
	assert.Equal(t, StatusOnLoan, KindOf("on_loan"))
	assert.Equal(t, StatusOnLoan, KindOf("ON-LOAN"))
	assert.Equal(t, StatusAvailable, KindOf(" available "))
	assert.Equal(t, StatusOther, KindOf("Lost"))
	assert.True(t, StatusMaintenance.OnShelf())
	assert.False(t, StatusReserved.OnShelf())
}

func TestBookInstance_IsOverdue(t *testing.T) {
	yesterday := testToday.AddDate(0, 0, -1)
	tomorrow := testToday.AddDate(0, 0, 1)
	sameDay := testToday.Add(5 * time.Hour)

	assert.True(t, (&BookInstance{DueBack: &yesterday}).IsOverdue(testToday))
	assert.False(t, (&BookInstance{DueBack: &tomorrow}).IsOverdue(testToday))
	assert.False(t, (&BookInstance{DueBack: &sameDay}).IsOverdue(testToday))
	assert.False(t, (&BookInstance{}).IsOverdue(testToday))
}
