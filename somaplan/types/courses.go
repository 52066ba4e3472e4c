package types

// Subject is a KCSE examinable subject.
type Subject struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Course represents a university degree programme.
type Course struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Code            string   `json:"code"`
	UniversityID    int      `json:"university"`
	UniversityName  string   `json:"university_name"`
	FacultyID       *int     `json:"faculty,omitempty"`
	FacultyName     *string  `json:"faculty_name,omitempty"`
	MinimumPoints   int      `json:"minimum_points"`
	ClusterSubjects []string `json:"cluster_subjects,omitempty"`
	DurationYears   *int     `json:"duration_years,omitempty"`
	Description     *string  `json:"description,omitempty"`
}

// University represents an accredited university.
type University struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Code     string  `json:"code,omitempty"`
	County   *string `json:"county,omitempty"`
	Town     *string `json:"town,omitempty"`
	Website  *string `json:"website,omitempty"`
	IsPublic bool    `json:"is_public"`
}

// Faculty is a school or faculty within a university.
type Faculty struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	UniversityID int    `json:"university"`
}

// Department belongs to a faculty.
type Department struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	FacultyID int    `json:"faculty"`
}

// Campus is a KMTC training campus.
type Campus struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	County *string `json:"county,omitempty"`
	Town   *string `json:"town,omitempty"`
}

// Programme is a KMTC certificate or diploma programme.
type Programme struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Code          string   `json:"code,omitempty"`
	Level         string   `json:"level"`
	CampusID      int      `json:"campus"`
	CampusName    string   `json:"campus_name"`
	MinimumGrade  string   `json:"minimum_grade"`
	EntrySubjects []string `json:"entry_subjects,omitempty"`
}
