package resources

import (
	"context"
	"fmt"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// SelectionsResource provides access to the user's shortlisted courses.
type SelectionsResource struct {
	base *Base
}

// NewSelectionsResource creates a new SelectionsResource.
func NewSelectionsResource(transport *httpx.Transport) *SelectionsResource {
	return &SelectionsResource{base: NewBase(transport)}
}

// List retrieves the user's selected courses.
func (r *SelectionsResource) List(ctx context.Context) ([]types.Selection, error) {
	var result []types.Selection
	if err := r.base.Get(ctx, "/user/selected-courses/", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Create shortlists a course and returns the created selection.
func (r *SelectionsResource) Create(ctx context.Context, courseID int) (*types.Selection, error) {
	body := map[string]int{"course": courseID}
	var result types.Selection
	if err := r.base.Post(ctx, "/user/selected-courses/", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a selection by its selection ID (not the course ID).
func (r *SelectionsResource) Delete(ctx context.Context, selectionID int) error {
	return r.base.Delete(ctx, fmt.Sprintf("/user/selected-courses/%d/", selectionID))
}
