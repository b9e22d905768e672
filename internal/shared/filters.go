package shared

import (
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListFilters represents standard list filters supplied by the caller.
// The owning-tenant filter is never part of this struct: it is injected
// by the mediator and cannot be overridden through query parameters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
	Status  string

	// Entity specific filters
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	RenterID   *uuid.UUID
	LeaseID    *uuid.UUID
}

// Offset returns the row offset for the current page.
func (f ListFilters) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit
}

// ParseListFilters extracts common list filters from the request query.
func ParseListFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	f := ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
		Status:  q.Get("status"),
	}
	if id, err := uuid.Parse(q.Get("property_id")); err == nil {
		f.PropertyID = &id
	}
	if id, err := uuid.Parse(q.Get("unit_id")); err == nil {
		f.UnitID = &id
	}
	if id, err := uuid.Parse(q.Get("renter_id")); err == nil {
		f.RenterID = &id
	}
	if id, err := uuid.Parse(q.Get("lease_id")); err == nil {
		f.LeaseID = &id
	}
	return f
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultLimit
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
