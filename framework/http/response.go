package http

import (
	"encoding/json"
	"net/http"

	"github.com/km-arc/fastie/framework/http/validation"
)

// Envelope is the body every controller response carries.
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Success    bool   `json:"success"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

// ── Response ─────────────────────────────────────────────────────────────────

// Response writes Envelopes to a ResponseWriter.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// Success sends {"success": true, "status": "success", "data": data}.
// A zero status means 200; an empty message means "Success".
//
//	res.Success(users, "Users retrieved successfully.", http.StatusOK)
func (res *Response) Success(data any, message string, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	WriteJSON(res.w, status, Envelope{
		StatusCode: status,
		Success:    true,
		Status:     "success",
		Message:    first(message, "Success"),
		Data:       data,
	})
}

// Created is Success with 201.
func (res *Response) Created(data any, message string) {
	res.Success(data, message, http.StatusCreated)
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends {"success": false, "status": "error", "data": null}.
// A zero status means 400.
func (res *Response) Error(message string, status int) {
	res.fail(status, first(message, "Error"), nil)
}

func (res *Response) Unauthorized(message ...string) {
	res.Error(firstOf(message, "Unauthenticated."), http.StatusUnauthorized)
}

func (res *Response) Forbidden(message ...string) {
	res.Error(firstOf(message, "This action is unauthorized."), http.StatusForbidden)
}

func (res *Response) NotFound(message ...string) {
	res.Error(firstOf(message, "Not found."), http.StatusNotFound)
}

func (res *Response) ServerError(message ...string) {
	res.Error(firstOf(message, "Server Error."), http.StatusInternalServerError)
}

// ValidationError sends 422 with the error bag in data.
//
//	res.ValidationError(validation.Struct(in))
func (res *Response) ValidationError(errs *validation.Errors) {
	res.fail(http.StatusUnprocessableEntity, "The given data was invalid.", errs.Bag)
}

func (res *Response) fail(status int, message string, data any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	WriteJSON(res.w, status, Envelope{StatusCode: status, Status: "error", Message: message, Data: data})
}

// ── Package helpers ───────────────────────────────────────────────────────────

// WriteJSON encodes data with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError sends the short {"message": message} body middlewares answer
// with before a controller runs.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

func first(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func firstOf(ss []string, fallback string) string {
	if len(ss) > 0 {
		return first(ss[0], fallback)
	}
	return fallback
}
