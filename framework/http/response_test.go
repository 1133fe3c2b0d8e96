package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gohttp "github.com/km-arc/fastie/framework/http"
	"github.com/km-arc/fastie/framework/http/validation"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) gohttp.Envelope {
	t.Helper()
	var env gohttp.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decodeEnvelope: %v", err)
	}
	return env
}

// ── Success ───────────────────────────────────────────────────────────────────

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success(map[string]any{"id": float64(1)}, "", 0)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q want application/json", ct)
	}
	env := decodeEnvelope(t, rr)
	if !env.Success || env.Status != "success" || env.StatusCode != 200 || env.Message != "Success" {
		t.Errorf("unexpected envelope %+v", env)
	}
	data, ok := env.Data.(map[string]any)
	if !ok || data["id"] != float64(1) {
		t.Errorf("expected data with id 1, got %v", env.Data)
	}
}

func TestResponse_CreatedAndNoContent(t *testing.T) {
	res, rr := newResponse(t)
	res.Created(map[string]any{"name": "Alice"}, "Created.")
	if rr.Code != http.StatusCreated {
		t.Errorf("Created status: got %d want 201", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.StatusCode != 201 || env.Message != "Created." {
		t.Errorf("unexpected envelope %+v", env)
	}

	res, rr = newResponse(t)
	res.NoContent()
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("NoContent: got %d with %d bytes", rr.Code, rr.Body.Len())
	}
}

// ── Errors ────────────────────────────────────────────────────────────────────

func TestResponse_ErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		call   func(*gohttp.Response)
		status int
		msg    string
	}{
		{"Error", func(r *gohttp.Response) { r.Error("bad input", http.StatusBadRequest) }, 400, "bad input"},
		{"ErrorDefaults", func(r *gohttp.Response) { r.Error("", 0) }, 400, "Error"},
		{"Unauthorized", func(r *gohttp.Response) { r.Unauthorized() }, 401, "Unauthenticated."},
		{"UnauthorizedCustom", func(r *gohttp.Response) { r.Unauthorized("Token expired") }, 401, "Token expired"},
		{"Forbidden", func(r *gohttp.Response) { r.Forbidden() }, 403, "This action is unauthorized."},
		{"NotFound", func(r *gohttp.Response) { r.NotFound() }, 404, "Not found."},
		{"ServerError", func(r *gohttp.Response) { r.ServerError() }, 500, "Server Error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.call(res)
			if rr.Code != tt.status {
				t.Errorf("status: got %d want %d", rr.Code, tt.status)
			}
			env := decodeEnvelope(t, rr)
			if env.Message != tt.msg || env.Success || env.Status != "error" || env.StatusCode != tt.status || env.Data != nil {
				t.Errorf("unexpected envelope %+v", env)
			}
		})
	}
}

func TestResponse_ValidationError(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"email": "required"})
	_ = v.Fails()

	res, rr := newResponse(t)
	res.ValidationError(v.Errors())

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d want 422", rr.Code)
	}
	errs, ok := decodeEnvelope(t, rr).Data.(map[string]any)
	if !ok || errs["email"] == nil {
		t.Errorf("expected data.email, got %v", errs)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	gohttp.WriteError(rr, http.StatusTooManyRequests, "Rate limit exceeded")

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status: got %d want 429", rr.Code)
	}
	if rr.Body.String() != "{\"message\":\"Rate limit exceeded\"}\n" {
		t.Errorf("body: got %q", rr.Body.String())
	}
}
