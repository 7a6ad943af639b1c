// internal/response/response.go
package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"badgehub/internal/contextutils"
	"badgehub/internal/services"

	"go.uber.org/zap"
)

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse is the envelope every JSON endpoint returns
type APIResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *ErrorDetail  `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

// ErrorDetail represents error information in API responses
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Fields  []FieldError           `json:"fields,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FieldError represents field-specific validation errors
type FieldError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
}

// ResponseMeta contains metadata about the response
type ResponseMeta struct {
	Pagination *PaginationMeta        `json:"pagination,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// PaginationMeta contains pagination information
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder constructs standardized JSON responses
type Builder struct {
	maskInternalErrors bool
	logger             *zap.Logger
}

// NewBuilder creates a new response builder
func NewBuilder(maskInternalErrors bool, logger *zap.Logger) *Builder {
	return &Builder{
		maskInternalErrors: maskInternalErrors,
		logger:             logger,
	}
}

// Success creates a successful API response
func (b *Builder) Success(ctx context.Context, data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: contextutils.GetRequestID(ctx),
		Timestamp: time.Now().Unix(),
	}
}

// Error creates an error response from a service error
func (b *Builder) Error(ctx context.Context, err error) *APIResponse {
	detail := b.convertError(err)
	b.logError(ctx, err, detail)

	return &APIResponse{
		Success:   false,
		Error:     detail,
		RequestID: contextutils.GetRequestID(ctx),
		Timestamp: time.Now().Unix(),
	}
}

// Paginated creates a paginated response
func (b *Builder) Paginated(ctx context.Context, data interface{}, page, pageSize int, total int64) *APIResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	resp := b.Success(ctx, data)
	resp.Meta = &ResponseMeta{
		Pagination: &PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
	return resp
}

// ===============================
// HTTP RESPONSE WRITERS
// ===============================

// WriteJSON writes a JSON response with appropriate headers
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, response *APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		b.logger.Error("Failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", contextutils.GetRequestID(r.Context())),
		)
	}
}

// WriteSuccess writes a successful JSON response
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusOK)
}

// WriteCreated writes a successful creation response
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusCreated)
}

// WriteNoContent writes a successful no-content response
func (b *Builder) WriteNoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error response with the status code the error maps to
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	if serviceErr := services.GetServiceError(err); serviceErr != nil {
		statusCode = serviceErr.GetStatusCode()
	}
	b.WriteJSON(w, r, b.Error(r.Context(), err), statusCode)
}

// WritePaginated writes a paginated response
func (b *Builder) WritePaginated(w http.ResponseWriter, r *http.Request, data interface{}, page, pageSize int, total int64) {
	b.WriteJSON(w, r, b.Paginated(r.Context(), data, page, pageSize, total), http.StatusOK)
}

// ===============================
// ERROR CONVERSION
// ===============================

func (b *Builder) convertError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	if valErr, ok := err.(*services.ValidationError); ok {
		fields := make([]FieldError, len(valErr.Fields))
		for i, field := range valErr.Fields {
			fields[i] = FieldError{
				Field:   field.Field,
				Value:   field.Value,
				Message: field.Message,
				Code:    field.Code,
			}
		}
		return &ErrorDetail{
			Type:    valErr.Type,
			Message: valErr.Message,
			Code:    valErr.Code,
			Fields:  fields,
			Details: valErr.Details,
		}
	}

	if serviceErr := services.GetServiceError(err); serviceErr != nil {
		detail := &ErrorDetail{
			Type:    serviceErr.Type,
			Message: serviceErr.Message,
			Code:    serviceErr.Code,
			Details: serviceErr.Details,
		}
		if b.maskInternalErrors && serviceErr.Type == "INTERNAL_ERROR" {
			detail.Message = "An internal error occurred"
			detail.Details = nil
		}
		return detail
	}

	message := err.Error()
	if b.maskInternalErrors {
		message = "An unexpected error occurred"
	}
	return &ErrorDetail{
		Type:    "INTERNAL_ERROR",
		Message: message,
	}
}

func (b *Builder) logError(ctx context.Context, err error, detail *ErrorDetail) {
	requestID := contextutils.GetRequestID(ctx)

	switch detail.Type {
	case "VALIDATION_ERROR", "BUSINESS_ERROR":
		b.logger.Warn("Request error",
			zap.String("request_id", requestID),
			zap.String("error_type", detail.Type),
			zap.String("error_message", detail.Message),
		)
	case "INTERNAL_ERROR":
		b.logger.Error("Internal error",
			zap.String("request_id", requestID),
			zap.String("error_type", detail.Type),
			zap.Error(err),
		)
	default:
		b.logger.Info("Request completed with error",
			zap.String("request_id", requestID),
			zap.String("error_type", detail.Type),
			zap.String("error_message", detail.Message),
		)
	}
}

// ===============================
// CONTEXT HELPERS
// ===============================

type builderKey struct{}

// GetBuilder extracts the response builder from the context
func GetBuilder(ctx context.Context) *Builder {
	if builder, ok := ctx.Value(builderKey{}).(*Builder); ok {
		return builder
	}
	return nil
}

// Middleware stores the builder in every request context
func Middleware(builder *Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), builderKey{}, builder)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// QuickSuccess writes a success response using the context builder
func QuickSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	builderFor(r).WriteSuccess(w, r, data)
}

// QuickError writes an error response using the context builder
func QuickError(w http.ResponseWriter, r *http.Request, err error) {
	builderFor(r).WriteError(w, r, err)
}

func builderFor(r *http.Request) *Builder {
	if builder := GetBuilder(r.Context()); builder != nil {
		return builder
	}
	return NewBuilder(true, zap.NewNop())
}
