package models

import "time"

// ===== PAGINATION =====

type PageParams struct {
	Page int `json:"page" validate:"min=0"`
	Size int `json:"size" validate:"min=0,max=100"`
}

// Normalize clamps page to >= 1 and size to 1..100 (default 20).
func (p PageParams) Normalize() PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = 20
	}
	if p.Size > 100 {
		p.Size = 100
	}
	return p
}

func (p PageParams) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Size
}

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

// ===== ERROR RESPONSES =====

type ErrorResponse struct {
	Error     string      `json:"error,omitempty"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Path      string      `json:"path,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
