// Package match implements client-side KCSE course matching: grade
// arithmetic, qualification checks against cluster requirements, and
// in-memory filtering of an already-fetched catalogue. It is pure
// computation over the standard library; the data comes from the
// resources package.
package match

import (
	"fmt"
	"strings"

	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// KCSE grade points on the 12-point scale.
var gradePoints = map[string]int{
	"A":  12,
	"A-": 11,
	"B+": 10,
	"B":  9,
	"B-": 8,
	"C+": 7,
	"C":  6,
	"C-": 5,
	"D+": 4,
	"D":  3,
	"D-": 2,
	"E":  1,
}

// GradePoints returns the points for a KCSE grade. The grade is
// case-insensitive.
func GradePoints(grade string) (int, error) {
	points, ok := gradePoints[strings.ToUpper(strings.TrimSpace(grade))]
	if !ok {
		return 0, fmt.Errorf("unknown KCSE grade: %q", grade)
	}
	return points, nil
}

// TotalPoints sums the points for a set of grade entries. Unknown grades
// fail the whole computation rather than silently scoring zero.
func TotalPoints(grades []types.GradeEntry) (int, error) {
	total := 0
	for _, g := range grades {
		points, err := GradePoints(g.Grade)
		if err != nil {
			return 0, err
		}
		total += points
	}
	return total, nil
}

// Qualifies reports whether a student with the given grades meets a
// course's entry requirements: the cluster points threshold, computed
// over the course's cluster subjects the student actually sat. A course
// with no cluster subjects is judged on total points alone.
func Qualifies(grades []types.GradeEntry, course *types.Course) (bool, error) {
	relevant := grades
	if len(course.ClusterSubjects) > 0 {
		cluster := make(map[string]bool, len(course.ClusterSubjects))
		for _, s := range course.ClusterSubjects {
			cluster[strings.ToLower(s)] = true
		}
		relevant = nil
		for _, g := range grades {
			if cluster[strings.ToLower(g.Subject)] {
				relevant = append(relevant, g)
			}
		}
		if len(relevant) < len(course.ClusterSubjects) {
			// Missing a required cluster subject disqualifies outright.
			return false, nil
		}
	}

	points, err := TotalPoints(relevant)
	if err != nil {
		return false, err
	}
	return points >= course.MinimumPoints, nil
}

// Query filters an in-memory course list.
type Query struct {
	// Search matches case-insensitively against course name, course code
	// and university name.
	Search       string
	UniversityID int
	// MinPoints keeps only courses the given points total can enter.
	MinPoints int
	// Subject keeps only courses whose cluster includes it.
	Subject string
}

// Filter returns the courses matching every set field of the query.
// Zero-valued fields do not constrain the result.
func Filter(courses []types.Course, q Query) []types.Course {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	subject := strings.ToLower(strings.TrimSpace(q.Subject))

	var out []types.Course
	for _, c := range courses {
		if search != "" && !matchesSearch(&c, search) {
			continue
		}
		if q.UniversityID != 0 && c.UniversityID != q.UniversityID {
			continue
		}
		if q.MinPoints != 0 && c.MinimumPoints > q.MinPoints {
			continue
		}
		if subject != "" && !hasClusterSubject(&c, subject) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesSearch(c *types.Course, search string) bool {
	return strings.Contains(strings.ToLower(c.Name), search) ||
		strings.Contains(strings.ToLower(c.Code), search) ||
		strings.Contains(strings.ToLower(c.UniversityName), search)
}

func hasClusterSubject(c *types.Course, subject string) bool {
	for _, s := range c.ClusterSubjects {
		if strings.ToLower(s) == subject {
			return true
		}
	}
	return false
}
