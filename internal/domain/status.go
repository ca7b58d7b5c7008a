package domain

import "strings"

// StatusKind classifies a Status row by its name.
type StatusKind string

const (
	StatusAvailable   StatusKind = "available"
	StatusMaintenance StatusKind = "maintenance"
	StatusOnLoan      StatusKind = "on-loan"
	StatusReserved    StatusKind = "reserved"
	StatusOther       StatusKind = ""
)

// Status is a loan state a copy can be in. The catalog ships with
// Available, Maintenance, On Loan and Reserved; librarians may add more.
type Status struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ExtraInfo string `json:"extra_info,omitempty"`
}

// Kind maps the status name onto a known kind. Matching ignores case,
// spaces, hyphens and underscores, so "On Loan" and "on_loan" agree.
func (s *Status) Kind() StatusKind {
	if s == nil {
		return StatusOther
	}
	return KindOf(s.Name)
}

// KindOf classifies a status name.
func KindOf(name string) StatusKind {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))

	switch key {
	case "available":
		return StatusAvailable
	case "maintenance":
		return StatusMaintenance
	case "onloan":
		return StatusOnLoan
	case "reserved":
		return StatusReserved
	default:
		return StatusOther
	}
}

// OnShelf reports whether the kind requires the copy to have no borrower
// and no due date.
func (k StatusKind) OnShelf() bool {
	return k == StatusAvailable || k == StatusMaintenance
}
