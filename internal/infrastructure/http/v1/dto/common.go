// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// ListResponse wraps list results.
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// NewListResponse wraps items of length n.
func NewListResponse(items any, n int) ListResponse {
	return ListResponse{Items: items, Count: n}
}
