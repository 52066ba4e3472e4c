package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

func TestGradePoints(t *testing.T) {
	tests := []struct {
		grade  string
		points int
	}{
		{"A", 12},
		{"A-", 11},
		{"B+", 10},
		{"B", 9},
		{"B-", 8},
		{"C+", 7},
		{"C", 6},
		{"C-", 5},
		{"D+", 4},
		{"D", 3},
		{"D-", 2},
		{"E", 1},
		{"a-", 11}, // case-insensitive
		{" b+ ", 10},
	}

	for _, tt := range tests {
		points, err := GradePoints(tt.grade)
		require.NoError(t, err, "grade %q", tt.grade)
		assert.Equal(t, tt.points, points, "grade %q", tt.grade)
	}

	_, err := GradePoints("F")
	assert.Error(t, err)
	_, err = GradePoints("")
	assert.Error(t, err)
}

func TestTotalPoints(t *testing.T) {
	grades := []types.GradeEntry{
		{Subject: "Mathematics", Grade: "A"},
		{Subject: "English", Grade: "B+"},
		{Subject: "Chemistry", Grade: "B"},
	}
	total, err := TotalPoints(grades)
	require.NoError(t, err)
	assert.Equal(t, 31, total)

	_, err = TotalPoints([]types.GradeEntry{{Subject: "Art", Grade: "X"}})
	assert.Error(t, err)
}

func TestQualifies_ClusterSubjects(t *testing.T) {
	course := &types.Course{
		Name:            "Bachelor of Science in Computer Science",
		MinimumPoints:   30,
		ClusterSubjects: []string{"Mathematics", "Physics", "English"},
	}

	grades := []types.GradeEntry{
		{Subject: "Mathematics", Grade: "A"},  // 12
		{Subject: "Physics", Grade: "B+"},     // 10
		{Subject: "English", Grade: "B"},      // 9
		{Subject: "History", Grade: "D"},      // ignored, not in cluster
	}

	ok, err := Qualifies(grades, course)
	require.NoError(t, err)
	assert.True(t, ok, "31 cluster points should meet a 30 point cutoff")

	course.MinimumPoints = 32
	ok, err = Qualifies(grades, course)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQualifies_MissingClusterSubject(t *testing.T) {
	course := &types.Course{
		MinimumPoints:   10,
		ClusterSubjects: []string{"Biology", "Chemistry"},
	}
	grades := []types.GradeEntry{
		{Subject: "Biology", Grade: "A"},
		// Chemistry never sat.
	}

	ok, err := Qualifies(grades, course)
	require.NoError(t, err)
	assert.False(t, ok, "a missing cluster subject disqualifies regardless of points")
}

func TestQualifies_NoCluster_UsesTotal(t *testing.T) {
	course := &types.Course{MinimumPoints: 20}
	grades := []types.GradeEntry{
		{Subject: "Mathematics", Grade: "B"}, // 9
		{Subject: "English", Grade: "B+"},    // 10
		{Subject: "Kiswahili", Grade: "C"},   // 6
	}

	ok, err := Qualifies(grades, course)
	require.NoError(t, err)
	assert.True(t, ok)
}

func catalogue() []types.Course {
	return []types.Course{
		{ID: 1, Name: "Bachelor of Medicine and Bachelor of Surgery", Code: "1165", UniversityID: 1, UniversityName: "University of Nairobi", MinimumPoints: 46, ClusterSubjects: []string{"Biology", "Chemistry"}},
		{ID: 2, Name: "Bachelor of Science in Nursing", Code: "1168", UniversityID: 4, UniversityName: "Kenyatta University", MinimumPoints: 38, ClusterSubjects: []string{"Biology", "Chemistry"}},
		{ID: 3, Name: "Bachelor of Commerce", Code: "1201", UniversityID: 4, UniversityName: "Kenyatta University", MinimumPoints: 32, ClusterSubjects: []string{"Mathematics"}},
		{ID: 4, Name: "Bachelor of Education (Arts)", Code: "1310", UniversityID: 7, UniversityName: "Moi University", MinimumPoints: 28},
	}
}

func TestFilter_Search(t *testing.T) {
	courses := catalogue()

	// Course name, case-insensitive.
	got := Filter(courses, Query{Search: "NURSING"})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)

	// University name.
	got = Filter(courses, Query{Search: "kenyatta"})
	assert.Len(t, got, 2)

	// Course code.
	got = Filter(courses, Query{Search: "1165"})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	// No match.
	assert.Empty(t, Filter(courses, Query{Search: "law"}))
}

func TestFilter_University(t *testing.T) {
	got := Filter(catalogue(), Query{UniversityID: 4})
	assert.Len(t, got, 2)
}

func TestFilter_MinPoints(t *testing.T) {
	// A student with 33 points sees courses whose cutoff is at most 33.
	got := Filter(catalogue(), Query{MinPoints: 33})
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, 4, got[1].ID)
}

func TestFilter_Subject(t *testing.T) {
	got := Filter(catalogue(), Query{Subject: "biology"})
	assert.Len(t, got, 2)
}

func TestFilter_Combined(t *testing.T) {
	got := Filter(catalogue(), Query{Search: "kenyatta", MinPoints: 33})
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
}

func TestFilter_EmptyQueryReturnsAll(t *testing.T) {
	assert.Len(t, Filter(catalogue(), Query{}), 4)
}
