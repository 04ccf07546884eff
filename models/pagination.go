package models

import (
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PageRequest is an offset page, 1-based.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest clamps page to >= 1 and limit to [1, MaxPageLimit].
func NewPageRequest(page int, limit int) PageRequest {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

func (p PageRequest) normalized() PageRequest {
	return NewPageRequest(p.Page, p.Limit)
}

func (p PageRequest) Offset() int {
	p = p.normalized()
	return (p.Page - 1) * p.Limit
}

// Scope applies LIMIT/OFFSET to a query.
func (p PageRequest) Scope(db *gorm.DB) *gorm.DB {
	p = p.normalized()
	return db.Offset(p.Offset()).Limit(p.Limit)
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewPagination(p PageRequest, total int64) Pagination {
	p = p.normalized()
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
