package shared

import (
	domshared "github.com/propledger/backend/internal/domain/shared"
)

// PageRequest is the paging part of every list request
type PageRequest struct {
	Page     int    `json:"page" validate:"omitempty,min=1"`
	Limit    int    `json:"limit" validate:"omitempty,min=1"`
	OrderBy  string `json:"order_by"`
	OrderDir string `json:"order_dir" validate:"omitempty,oneof=asc desc"`
}

// Pagination holds the configured page size limits
type Pagination struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPagination returns the built-in page size limits
func DefaultPagination() Pagination {
	return Pagination{DefaultLimit: domshared.DefaultLimit, MaxLimit: domshared.MaxLimit}
}

// Filter turns a page request into a repository filter. Only orderBy values
// listed in allowed are kept; anything else falls back to defaultOrder.
func (p Pagination) Filter(req PageRequest, defaultOrder string, allowed ...string) domshared.Filter {
	if p.DefaultLimit < 1 {
		p.DefaultLimit = domshared.DefaultLimit
	}
	if p.MaxLimit < p.DefaultLimit {
		p.MaxLimit = p.DefaultLimit
	}
	if p.MaxLimit > domshared.MaxLimit {
		p.MaxLimit = domshared.MaxLimit
	}

	f := domshared.Filter{
		Page:     req.Page,
		Limit:    req.Limit,
		OrderBy:  defaultOrder,
		OrderDir: req.OrderDir,
	}
	if f.Page < 1 {
		f.Page = domshared.DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = p.DefaultLimit
	}
	if f.Limit > p.MaxLimit {
		f.Limit = p.MaxLimit
	}
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	for _, col := range allowed {
		if req.OrderBy == col {
			f.OrderBy = col
			break
		}
	}
	return f
}
