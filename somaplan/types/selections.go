package types

import "time"

// Selection is a course the user has shortlisted.
type Selection struct {
	ID             int       `json:"id"`
	CourseID       int       `json:"course"`
	CourseName     string    `json:"course_name"`
	UniversityName string    `json:"university_name"`
	MinimumPoints  int       `json:"minimum_points"`
	CreatedAt      time.Time `json:"created_at"`
}
