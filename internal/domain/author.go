package domain

import (
	"strconv"
	"time"
)

// Author is a person credited with writing books.
type Author struct {
	ID          int64      `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
}

// String renders the author the way lists sort them: "Last, First".
func (a *Author) String() string {
	return a.LastName + ", " + a.FirstName
}

// FullName renders "First Last".
func (a *Author) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Lifespan renders "(1920 - 1992)" style years, or "" if nothing is known.
func (a *Author) Lifespan() string {
	if a.DateOfBirth == nil && a.DateOfDeath == nil {
		return ""
	}
	born, died := "?", ""
	if a.DateOfBirth != nil {
		born = strconv.Itoa(a.DateOfBirth.Year())
	}
	if a.DateOfDeath != nil {
		died = strconv.Itoa(a.DateOfDeath.Year())
	}
	return "(" + born + " - " + died + ")"
}
