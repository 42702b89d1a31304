package dto

// APIResponse is the standard response envelope. Success responses carry
// data (and count/pagination for lists); failures carry a message.
type APIResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Count      *int64      `json:"count,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// PageRef points at a neighbouring page.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Pagination carries the next/prev page references. Next exists iff
// page*limit < total; prev exists iff page > 1.
type Pagination struct {
	Next *PageRef `json:"next,omitempty"`
	Prev *PageRef `json:"prev,omitempty"`
}

// NewPagination builds the pagination block for a list response.
func NewPagination(total int64, page, limit int) *Pagination {
	p := &Pagination{}
	if int64(page*limit) < total {
		p.Next = &PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		p.Prev = &PageRef{Page: page - 1, Limit: limit}
	}
	return p
}

// OK wraps data in a success envelope.
func OK(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data}
}

// OKMessage returns a bare success message.
func OKMessage(message string) APIResponse {
	return APIResponse{Success: true, Message: message}
}

// List wraps a page of items with its count and pagination block.
func List(data interface{}, total int64, page, limit int) APIResponse {
	return APIResponse{
		Success:    true,
		Count:      &total,
		Pagination: NewPagination(total, page, limit),
		Data:       data,
	}
}

// Fail wraps an error message in a failure envelope.
func Fail(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}

// ListResult is what domain services return for list operations; the
// controller renders it through List.
type ListResult struct {
	Data  interface{}
	Total int64
	Page  int
	Limit int
}
