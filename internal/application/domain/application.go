package domain

import (
	"strings"
	"time"
)

// Application is a submitted internship application. Email is matched case-insensitively
// against registered users when counting applications.
type Application struct {
	ID           int64     `json:"id"`
	InternshipID int64     `json:"internship_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Country      string    `json:"country"`
	Age          int       `json:"age"`
	CollegeName  string    `json:"college_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Normalize trims the free-text fields.
func (a *Application) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	a.Email = strings.TrimSpace(a.Email)
	a.Country = strings.TrimSpace(a.Country)
	a.CollegeName = strings.TrimSpace(a.CollegeName)
}

// MissingField returns the name of the first required field that is empty or zero, or "".
func (a *Application) MissingField() string {
	switch {
	case a.InternshipID == 0:
		return "internship_id"
	case a.Name == "":
		return "name"
	case a.Email == "":
		return "email"
	case a.Country == "":
		return "country"
	case a.Age == 0:
		return "age"
	}
	return ""
}
