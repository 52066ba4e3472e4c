package resources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// CoursesResource provides access to the course catalogue.
type CoursesResource struct {
	base *Base
}

// NewCoursesResource creates a new CoursesResource.
func NewCoursesResource(transport *httpx.Transport) *CoursesResource {
	return &CoursesResource{base: NewBase(transport)}
}

// ListCoursesParams are parameters for listing courses.
type ListCoursesParams struct {
	Search     *string `json:"search,omitempty"`
	University *int    `json:"university,omitempty"`
	Faculty    *int    `json:"faculty,omitempty"`
	Subject    *string `json:"subject,omitempty"`
	MinPoints  *int    `json:"min_points,omitempty"`
	MaxPoints  *int    `json:"max_points,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
	Offset     *int    `json:"offset,omitempty"`
}

// List retrieves courses matching the given filters.
func (r *CoursesResource) List(ctx context.Context, params *ListCoursesParams) ([]types.Course, error) {
	query := url.Values{}
	if params != nil {
		if params.Search != nil {
			query.Set("search", *params.Search)
		}
		if params.University != nil {
			query.Set("university", strconv.Itoa(*params.University))
		}
		if params.Faculty != nil {
			query.Set("faculty", strconv.Itoa(*params.Faculty))
		}
		if params.Subject != nil {
			query.Set("subject", *params.Subject)
		}
		if params.MinPoints != nil {
			query.Set("min_points", strconv.Itoa(*params.MinPoints))
		}
		if params.MaxPoints != nil {
			query.Set("max_points", strconv.Itoa(*params.MaxPoints))
		}
		AddPaginationParams(query, params.Limit, params.Offset)
	}

	var result []types.Course
	if err := r.base.GetWithQuery(ctx, "/courses/courses/", query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a course by ID.
func (r *CoursesResource) Get(ctx context.Context, id int) (*types.Course, error) {
	var result types.Course
	if err := r.base.Get(ctx, fmt.Sprintf("/courses/courses/%d/", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Subjects retrieves all KCSE subjects.
func (r *CoursesResource) Subjects(ctx context.Context) ([]types.Subject, error) {
	var result []types.Subject
	if err := r.base.Get(ctx, "/courses/subjects/", &result); err != nil {
		return nil, err
	}
	return result, nil
}
