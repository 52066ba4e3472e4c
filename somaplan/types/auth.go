package types

import "time"

// User represents an authenticated student account.
type User struct {
	ID                  int        `json:"id"`
	PhoneNumber         string     `json:"phone_number"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	Email               *string    `json:"email,omitempty"`
	County              *string    `json:"county,omitempty"`
	MeanGrade           *string    `json:"mean_grade,omitempty"`
	HasSelectedSubjects bool       `json:"has_selected_subjects"`
	DateJoined          time.Time  `json:"date_joined"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// TokenPair holds the JWT access/refresh pair issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// GradeEntry is one KCSE subject result on a user's profile.
type GradeEntry struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}
