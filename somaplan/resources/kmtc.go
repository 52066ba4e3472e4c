package resources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/types"
)

// KMTCResource provides access to KMTC campuses and programmes.
type KMTCResource struct {
	base *Base
}

// NewKMTCResource creates a new KMTCResource.
func NewKMTCResource(transport *httpx.Transport) *KMTCResource {
	return &KMTCResource{base: NewBase(transport)}
}

// Campuses retrieves all KMTC campuses.
func (r *KMTCResource) Campuses(ctx context.Context) ([]types.Campus, error) {
	var result []types.Campus
	if err := r.base.Get(ctx, "/kmtc/campuses/", &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListProgrammesParams are parameters for listing KMTC programmes.
type ListProgrammesParams struct {
	Search *string `json:"search,omitempty"`
	Campus *int    `json:"campus,omitempty"`
	Level  *string `json:"level,omitempty"`
	Limit  *int    `json:"limit,omitempty"`
	Offset *int    `json:"offset,omitempty"`
}

// Programmes retrieves KMTC programmes matching the given filters.
func (r *KMTCResource) Programmes(ctx context.Context, params *ListProgrammesParams) ([]types.Programme, error) {
	query := url.Values{}
	if params != nil {
		if params.Search != nil {
			query.Set("search", *params.Search)
		}
		if params.Campus != nil {
			query.Set("campus", strconv.Itoa(*params.Campus))
		}
		if params.Level != nil {
			query.Set("level", *params.Level)
		}
		AddPaginationParams(query, params.Limit, params.Offset)
	}

	var result []types.Programme
	if err := r.base.GetWithQuery(ctx, "/kmtc/programmes/", query, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetProgramme retrieves a single KMTC programme by ID.
func (r *KMTCResource) GetProgramme(ctx context.Context, id int) (*types.Programme, error) {
	var result types.Programme
	if err := r.base.Get(ctx, fmt.Sprintf("/kmtc/programmes/%d/", id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
