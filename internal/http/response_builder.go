// Package http serves the JSON API and the small HTML budget dashboard.
//
// Every JSON response uses the same envelope:
//
//	{"data": ..., "error": null, "status": 200}
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"remont/internal/core"
	applog "remont/internal/log"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data   any     `json:"data"`
	Error  *string `json:"error"`
	Status int     `json:"status"`
}

// ResponseBuilder assembles an enveloped JSON response.
type ResponseBuilder struct {
	status  int
	data    any
	errMsg  *string
	headers map[string]string
}

// NewResponse starts a 200 response with null data.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{status: http.StatusOK, headers: make(map[string]string)}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.status = code
	return b
}

func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.data = v
	return b
}

func (b *ResponseBuilder) Error(msg string) *ResponseBuilder {
	b.errMsg = &msg
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the response. Encoding failures are logged; the status line
// has already been sent by then.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.status)
	if err := json.NewEncoder(w).Encode(Envelope{Data: b.data, Error: b.errMsg, Status: b.status}); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

func OK(data any) *ResponseBuilder {
	return NewResponse().Data(data)
}

func Created(data any) *ResponseBuilder {
	return NewResponse().Status(http.StatusCreated).Data(data)
}

func ErrorResponse(status int, msg string) *ResponseBuilder {
	return NewResponse().Status(status).Error(msg)
}

func BadRequestError(msg string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, msg)
}

func NotFoundError(msg string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, msg)
}

// badRequest marks errors caused by an unreadable request.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

// StatusFor maps an error to its HTTP status. Validation is checked before
// not-found because a reference to a missing child object is reported as
// invalid input.
func StatusFor(err error) int {
	var br badRequest
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &br):
		return http.StatusBadRequest
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return applog.ErrorTypeBadRequest
	case http.StatusUnprocessableEntity:
		return applog.ErrorTypeValidation
	case http.StatusNotFound:
		return applog.ErrorTypeNotFound
	default:
		return applog.ErrorTypeInternal
	}
}

// writeError sends err in the envelope. Internal errors are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.NewFields().WithError(err, errorType(status)).Args()...)
		msg = "internal server error"
	}
	ErrorResponse(status, msg).Write(w)
}
