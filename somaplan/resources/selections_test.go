package resources

import (
	"context"
	"net/http"
	"testing"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/internal/testutil"
)

func TestSelections_List(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/user/selected-courses/", http.StatusOK, []map[string]any{
		{"id": 9, "course": 7, "course_name": "Bachelor of Commerce", "university_name": "Kenyatta University", "minimum_points": 32},
	})

	selections := NewSelectionsResource(newTestTransport(ms, "access-jwt"))
	result, err := selections.List(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(result) != 1 || result[0].CourseID != 7 {
		t.Errorf("result = %+v", result)
	}
}

func TestSelections_Create(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodPost, "/user/selected-courses/", http.StatusCreated, map[string]any{
		"id":     9,
		"course": 7,
	})

	selections := NewSelectionsResource(newTestTransport(ms, "access-jwt"))
	sel, err := selections.Create(context.Background(), 7)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sel.ID != 9 {
		t.Errorf("ID = %d, want 9", sel.ID)
	}

	var sent map[string]int
	ms.ParseLastRequestBody(t, &sent)
	if sent["course"] != 7 {
		t.Errorf("sent course = %d, want 7", sent["course"])
	}
}

func TestSelections_Delete(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.Handle(http.MethodDelete, "/user/selected-courses/9/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	selections := NewSelectionsResource(newTestTransport(ms, "access-jwt"))
	if err := selections.Delete(context.Background(), 9); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	ms.AssertLastRequestMethod(t, http.MethodDelete)
	ms.AssertLastRequestPath(t, "/user/selected-courses/9/")
}

func TestSelections_List_RequiresAuth(t *testing.T) {
	ms := testutil.NewMockServer(t)
	ms.HandleJSON(http.MethodGet, "/user/selected-courses/", http.StatusUnauthorized, map[string]any{
		"detail": "Authentication credentials were not provided.",
	})

	selections := NewSelectionsResource(newTestTransport(ms, ""))
	_, err := selections.List(context.Background())
	if !httpx.IsAuthenticationError(err) {
		t.Fatalf("err = %v, want AuthenticationError", err)
	}
}
