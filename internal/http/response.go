package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"spaar/internal/core"
	"spaar/internal/log"
)

// JSONResponse provides a fluent API for building JSON responses.
type JSONResponse struct {
	statusCode int
	body       any
	headers    map[string]string
}

func NewJSONResponse() *JSONResponse {
	return &JSONResponse{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponse) Body(v any) *JSONResponse {
	b.body = v
	return b
}

func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(ctx context.Context, statusCode int, message string) *JSONResponse {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: message, RequestID: log.RequestID(ctx)})
}

func BadRequestError(ctx context.Context, message string) *JSONResponse {
	return ErrorResponse(ctx, http.StatusBadRequest, message)
}

func NotFoundError(ctx context.Context, message string) *JSONResponse {
	return ErrorResponse(ctx, http.StatusNotFound, message)
}

func InternalServerError(ctx context.Context) *JSONResponse {
	return ErrorResponse(ctx, http.StatusInternalServerError, "internal error")
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSystemCategory):
		return http.StatusConflict
	case errors.Is(err, core.ErrMalformedRow), errors.Is(err, core.ErrIO), errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorFor builds the response for err. Server-side failures are logged and
// their details withheld from the client.
func errorFor(ctx context.Context, op string, err error) *JSONResponse {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Request failed", err, log.ComponentHTTP, op, nil)
		if status == http.StatusGatewayTimeout {
			return ErrorResponse(ctx, status, "request timed out")
		}
		return InternalServerError(ctx)
	}
	return ErrorResponse(ctx, status, err.Error())
}
