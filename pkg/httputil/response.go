package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/mealmesh/marketplace/pkg/errors"
	"github.com/mealmesh/marketplace/pkg/logger"
	appvalidator "github.com/mealmesh/marketplace/pkg/validator"
)

// Response is the standard JSON envelope.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of the envelope.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// PaginatedResponse wraps a result page with its paging metadata.
type PaginatedResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginatedResponse builds a page envelope from items and counts.
func NewPaginatedResponse[T any](items []T, total int64, page, pageSize int) PaginatedResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	if items == nil {
		items = []T{}
	}
	return PaginatedResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// WriteJSON writes data inside the standard envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

// WriteError maps err to an HTTP status and writes the error envelope.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	ctx := r.Context()
	l := logger.FromContext(ctx)

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := fallback

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		l.Error("request failed", "error", err, "status", status)
		message = fallback
	} else {
		l.Warn("request rejected", "error", err, "status", status)
	}

	writeErrorEnvelope(w, requestID(r), status, &ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// WriteValidationError writes a 400 with per-field messages.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	resp := &ErrorResponse{
		Code:    "INVALID_INPUT",
		Message: "request validation failed",
	}
	var verr *appvalidator.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields()
	} else {
		resp.Message = err.Error()
	}
	writeErrorEnvelope(w, requestID(r), http.StatusBadRequest, resp)
}

// ParseUUID parses a path or query parameter as a UUID.
func ParseUUID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperrors.InvalidInput(name + " must be a valid UUID")
	}
	return id, nil
}

func writeErrorEnvelope(w http.ResponseWriter, requestID string, status int, resp *ErrorResponse) {
	resp.RequestID = requestID
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: resp})
}

func requestID(r *http.Request) string {
	return logger.CorrelationIDFromContext(r.Context())
}
