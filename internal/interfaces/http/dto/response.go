package dto

import (
	"time"

	"github.com/attornatus/backend/internal/domain/shared"
)

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request. Errors always lists the
// human-readable messages, one per problem.
type ErrorInfo struct {
	Code      string             `json:"code" example:"ERR_VALIDATION"`
	Message   string             `json:"message" example:"Request validation failed"`
	RequestID string             `json:"request_id,omitempty" example:"2f1c5d0e-0d6b-4a43-9a55-1f4f0f0a3c1b"`
	Timestamp time.Time          `json:"timestamp"`
	Details   []ValidationDetail `json:"details,omitempty"`
	Errors    []string           `json:"errors"`
}

// ValidationDetail is one rejected field
type ValidationDetail struct {
	Field   string `json:"field" example:"postal_code"`
	Message string `json:"message" example:"postal_code must have 8 digits"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta creates a success response with pagination meta.
// A non-positive pageSize counts as the default of 20.
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	if pageSize <= 0 {
		pageSize = 20
	}
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
}

// NewPageResponse wraps one page of results, mapping each item with fn
func NewPageResponse[T, U any](p shared.Paginated[T], fn func(T) U) Response {
	mapped := shared.MapPaginated(p, fn)
	return Response{
		Success: true,
		Data:    mapped.Items,
		Meta: &Meta{
			Total:      mapped.Total,
			Page:       mapped.Page,
			PageSize:   mapped.PageSize,
			TotalPages: mapped.TotalPages,
		},
	}
}

// NewErrorResponse creates an error response. Domain codes are normalized.
func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

// NewErrorResponseWithRequestID creates an error response tagged with the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      NormalizeErrorCode(code),
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now(),
			Errors:    []string{message},
		},
	}
}

// NewValidationErrorResponse creates a 400 response listing every rejected field
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	errs := make([]string, 0, len(details))
	for _, d := range details {
		errs = append(errs, d.Message)
	}
	if len(errs) == 0 {
		errs = append(errs, message)
	}
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      ErrCodeValidation,
			Message:   message,
			RequestID: requestID,
			Timestamp: time.Now(),
			Details:   details,
			Errors:    errs,
		},
	}
}

// ValidationDetailsFrom converts domain field violations
func ValidationDetailsFrom(violations []shared.FieldViolation) []ValidationDetail {
	details := make([]ValidationDetail, 0, len(violations))
	for _, v := range violations {
		details = append(details, ValidationDetail{Field: v.Field, Message: v.Message})
	}
	return details
}

// ListRequest holds the paging query parameters shared by list endpoints
type ListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	OrderBy  string `form:"order_by" example:"name"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC" example:"asc"`
}

// ToFilter converts the request to a repository filter with defaults applied
func (r ListRequest) ToFilter() shared.Filter {
	return shared.Filter{
		Page:     r.Page,
		PageSize: r.PageSize,
		OrderBy:  r.OrderBy,
		OrderDir: r.OrderDir,
	}.WithDefaults()
}
