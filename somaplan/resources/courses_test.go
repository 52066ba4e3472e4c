package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/somaplan/somaplan-sdk-go/internal/testutil"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

func TestCourses_List_Filters(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.Handle(http.MethodGet, "/courses/courses/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("search") != "nursing" {
			t.Errorf("search = %q, want nursing", q.Get("search"))
		}
		if q.Get("min_points") != "32" {
			t.Errorf("min_points = %q, want 32", q.Get("min_points"))
		}
		if q.Get("limit") != "20" {
			t.Errorf("limit = %q, want 20", q.Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "name": "Bachelor of Science in Nursing", "code": "1168", "university": 4, "university_name": "Kenyatta University", "minimum_points": 38}]`))
	})

	courses := NewCoursesResource(newTestTransport(ms, ""))
	result, err := courses.List(context.Background(), &ListCoursesParams{
		Search:    types.String("nursing"),
		MinPoints: types.Int(32),
		Limit:     types.Int(20),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1", len(result))
	}
	if result[0].UniversityName != "Kenyatta University" {
		t.Errorf("UniversityName = %q", result[0].UniversityName)
	}
}

func TestCourses_List_NoParams(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/courses/courses/", http.StatusOK, []map[string]any{})

	courses := NewCoursesResource(newTestTransport(ms, ""))
	result, err := courses.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("len(result) = %d, want 0", len(result))
	}
}

func TestCourses_Get(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/courses/courses/7/", http.StatusOK, map[string]any{
		"id":               7,
		"name":             "Bachelor of Medicine and Bachelor of Surgery",
		"code":             "1165",
		"university":       1,
		"university_name":  "University of Nairobi",
		"minimum_points":   46,
		"cluster_subjects": []string{"Biology", "Chemistry", "Mathematics", "Physics"},
	})

	courses := NewCoursesResource(newTestTransport(ms, ""))
	course, err := courses.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if course.MinimumPoints != 46 {
		t.Errorf("MinimumPoints = %d, want 46", course.MinimumPoints)
	}
	if len(course.ClusterSubjects) != 4 {
		t.Errorf("ClusterSubjects = %v", course.ClusterSubjects)
	}
}

func TestCourses_Subjects(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/courses/subjects/", http.StatusOK, []map[string]any{
		{"id": 1, "name": "Mathematics"},
		{"id": 2, "name": "English"},
		{"id": 3, "name": "Kiswahili"},
	})

	courses := NewCoursesResource(newTestTransport(ms, ""))
	subjects, err := courses.Subjects(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(subjects) != 3 {
		t.Fatalf("len(subjects) = %d, want 3", len(subjects))
	}
}

func TestUniversities_List(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/universities/universities/", http.StatusOK, []map[string]any{
		{"id": 1, "name": "University of Nairobi", "is_public": true},
		{"id": 2, "name": "Strathmore University", "is_public": false},
	})

	unis := NewUniversitiesResource(newTestTransport(ms, ""))
	result, err := unis.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("len(result) = %d, want 2", len(result))
	}
	if !result[0].IsPublic || result[1].IsPublic {
		t.Errorf("IsPublic flags wrong: %+v", result)
	}
}

func TestUniversities_Faculties_FilterByUniversity(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.Handle(http.MethodGet, "/universities/faculties/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("university") != "4" {
			t.Errorf("university = %q, want 4", r.URL.Query().Get("university"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 10, "name": "School of Medicine", "university": 4}]`))
	})

	unis := NewUniversitiesResource(newTestTransport(ms, ""))
	faculties, err := unis.Faculties(context.Background(), types.Int(4))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(faculties) != 1 || faculties[0].UniversityID != 4 {
		t.Errorf("faculties = %+v", faculties)
	}
}

func TestKMTC_Campuses(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/kmtc/campuses/", http.StatusOK, []map[string]any{
		{"id": 1, "name": "KMTC Nairobi", "county": "Nairobi"},
		{"id": 2, "name": "KMTC Kisumu", "county": "Kisumu"},
	})

	kmtc := NewKMTCResource(newTestTransport(ms, ""))
	campuses, err := kmtc.Campuses(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(campuses) != 2 {
		t.Fatalf("len(campuses) = %d, want 2", len(campuses))
	}
}

func TestKMTC_Programmes(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.Handle(http.MethodGet, "/kmtc/programmes/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("level") != "diploma" {
			t.Errorf("level = %q, want diploma", r.URL.Query().Get("level"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 5, "name": "Diploma in Clinical Medicine", "level": "diploma", "campus": 1, "campus_name": "KMTC Nairobi", "minimum_grade": "C"}]`))
	})

	kmtc := NewKMTCResource(newTestTransport(ms, ""))
	programmes, err := kmtc.Programmes(context.Background(), &ListProgrammesParams{
		Level: types.String("diploma"),
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(programmes) != 1 || programmes[0].MinimumGrade != "C" {
		t.Errorf("programmes = %+v", programmes)
	}
}
