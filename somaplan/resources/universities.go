package resources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// UniversitiesResource provides access to universities, faculties and
// departments.
type UniversitiesResource struct {
	base *Base
}

// NewUniversitiesResource creates a new UniversitiesResource.
func NewUniversitiesResource(transport *httpx.Transport) *UniversitiesResource {
	return &UniversitiesResource{base: NewBase(transport)}
}

// ListUniversitiesParams are parameters for listing universities.
type ListUniversitiesParams struct {
	Search *string `json:"search,omitempty"`
	County *string `json:"county,omitempty"`
	Limit  *int    `json:"limit,omitempty"`
	Offset *int    `json:"offset,omitempty"`
}

// List retrieves universities.
func (r *UniversitiesResource) List(ctx context.Context, params *ListUniversitiesParams) ([]types.University, error) {
	query := url.Values{}
	if params != nil {
		if params.Search != nil {
			query.Set("search", *params.Search)
		}
		if params.County != nil {
			query.Set("county", *params.County)
		}
		AddPaginationParams(query, params.Limit, params.Offset)
	}

	var result []types.University
	if err := r.base.GetWithQuery(ctx, "/universities/universities/", query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a university by ID.
func (r *UniversitiesResource) Get(ctx context.Context, id int) (*types.University, error) {
	var result types.University
	if err := r.base.Get(ctx, fmt.Sprintf("/universities/universities/%d/", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Faculties retrieves faculties, optionally filtered by university.
func (r *UniversitiesResource) Faculties(ctx context.Context, universityID *int) ([]types.Faculty, error) {
	query := url.Values{}
	if universityID != nil {
		query.Set("university", strconv.Itoa(*universityID))
	}

	var result []types.Faculty
	if err := r.base.GetWithQuery(ctx, "/universities/faculties/", query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Departments retrieves departments, optionally filtered by faculty.
func (r *UniversitiesResource) Departments(ctx context.Context, facultyID *int) ([]types.Department, error) {
	query := url.Values{}
	if facultyID != nil {
		query.Set("faculty", strconv.Itoa(*facultyID))
	}

	var result []types.Department
	if err := r.base.GetWithQuery(ctx, "/universities/departments/", query, &result); err != nil {
		return nil, err
	}
	return result, nil
}
