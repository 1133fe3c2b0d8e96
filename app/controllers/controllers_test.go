package controllers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/fastie/app/controllers"
	"github.com/km-arc/fastie/app/models"
	"github.com/km-arc/fastie/app/repositories"
	"github.com/km-arc/fastie/app/schemas"
	"github.com/km-arc/fastie/app/services"
	"github.com/km-arc/fastie/framework/config"
	"github.com/km-arc/fastie/framework/routing"
	"github.com/km-arc/fastie/framework/security"
)

// stubUsers answers from fixed data and records the last page asked for.
type stubUsers struct {
	page    repositories.Page
	created *schemas.UserCreate
	err     error
}

var ada = models.User{Model: models.Model{ID: 1}, Name: "ada", Email: "ada@example.com", IsActive: 1}

func (s *stubUsers) List(_ context.Context, p repositories.Page) ([]schemas.UserResponse, error) {
	s.page = p
	return []schemas.UserResponse{schemas.NewUserResponse(&ada)}, s.err
}

func (s *stubUsers) Get(_ context.Context, id int64) (schemas.UserResponse, error) {
	if id != ada.ID {
		return schemas.UserResponse{}, repositories.ErrNotFound
	}
	return schemas.NewUserResponse(&ada), nil
}

func (s *stubUsers) Create(_ context.Context, in schemas.UserCreate) (schemas.UserResponse, error) {
	s.created = &in
	if s.err != nil {
		return schemas.UserResponse{}, s.err
	}
	return schemas.UserResponse{ID: 2, Name: in.Name, Email: in.Email, IsActive: 1}, nil
}

func (s *stubUsers) Update(_ context.Context, id int64, in schemas.UserUpdate) (schemas.UserResponse, error) {
	out := schemas.NewUserResponse(&ada)
	if in.Name != nil {
		out.Name = *in.Name
	}
	return out, s.err
}

func (s *stubUsers) Delete(_ context.Context, id int64) error {
	if id != ada.ID {
		return repositories.ErrNotFound
	}
	return nil
}

func (s *stubUsers) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if email != ada.Email || password != "correct horse" {
		return nil, services.ErrInvalidCredentials
	}
	u := ada
	return &u, nil
}

func mount(ctrl routing.Controller) *routing.Router {
	r := routing.New()
	ctrl.Routes(r)
	return r
}

func call(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, controllers.Envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env controllers.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func newJWT(t *testing.T) *security.JWT {
	t.Helper()
	jwt, err := security.NewJWT(&config.Config{Security: config.SecurityConfig{JWTSecret: "secret", JWTTTL: time.Minute}})
	require.NoError(t, err)
	return jwt
}

// ── AuthController ───────────────────────────────────────────────────────────

func TestAuth_Login(t *testing.T) {
	jwt := newJWT(t)
	r := mount(controllers.NewAuthController(&stubUsers{}, jwt, zap.NewNop()))

	rr, env := call(t, r, http.MethodPost, "/login", `{"email":"ada@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "Login successful", env.Message)

	data := env.Data.(map[string]any)
	assert.Equal(t, "bearer", data["token_type"])
	claims, err := jwt.Parse(data["access_token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestAuth_LoginFailures(t *testing.T) {
	r := mount(controllers.NewAuthController(&stubUsers{}, newJWT(t), zap.NewNop()))

	rr, env := call(t, r, http.MethodPost, "/login", `{"email":"ada@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "error", env.Status)

	rr, env = call(t, r, http.MethodPost, "/login", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, env.Data, "email")
	assert.Contains(t, env.Data, "password")

	rr, _ = call(t, r, http.MethodPost, "/login", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuth_Greet(t *testing.T) {
	r := mount(controllers.NewAuthController(&stubUsers{}, newJWT(t), zap.NewNop()))

	rr, env := call(t, r, http.MethodGet, "/greet", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, controllers.Envelope{StatusCode: 400, Status: "error", Message: "Hello, welcome to the API!"}, env)
}

// ── UserAccountController ────────────────────────────────────────────────────

func TestUserAccount_Index(t *testing.T) {
	users := &stubUsers{}
	r := mount(controllers.NewUserAccountController(users, zap.NewNop()))

	rr, env := call(t, r, http.MethodGet, "/?skip=5&limit=2&order_by=name&direction=desc", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Users retrieved successfully.", env.Message)
	assert.Len(t, env.Data, 1)
	assert.Equal(t, repositories.Page{Skip: 5, Limit: 2, OrderBy: "name", Direction: "desc"}, users.page)

	call(t, r, http.MethodGet, "/", "")
	assert.Equal(t, repositories.DefaultPage, users.page)
}

func TestUserAccount_Register(t *testing.T) {
	users := &stubUsers{}
	r := mount(controllers.NewUserAccountController(users, zap.NewNop()))

	rr, env := call(t, r, http.MethodPost, "/register", `{"name":"grace","email":"grace@example.com","password":"12345678"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "User registered successfully.", env.Message)
	assert.Equal(t, "grace@example.com", users.created.Email)
	assert.NotContains(t, rr.Body.String(), "password")

	rr, _ = call(t, r, http.MethodPost, "/register", `{"name":"grace","email":"grace@example.com","password":"short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	users.err = services.ErrEmailTaken
	rr, _ = call(t, r, http.MethodPost, "/register", `{"name":"grace","email":"grace@example.com","password":"12345678"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestUserAccount_RegisterBodyTooLarge(t *testing.T) {
	r := mount(controllers.NewUserAccountController(&stubUsers{}, zap.NewNop()))
	limited := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(w, req.Body, 16)
		r.ServeHTTP(w, req)
	})

	rr, env := call(t, limited, http.MethodPost, "/register", `{"name":"grace","email":"grace@example.com","password":"12345678"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "Request body too large", env.Message)
}

func TestUserAccount_ShowUpdateDestroy(t *testing.T) {
	r := mount(controllers.NewUserAccountController(&stubUsers{}, zap.NewNop()))

	rr, env := call(t, r, http.MethodGet, "/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ada", env.Data.(map[string]any)["name"])

	rr, _ = call(t, r, http.MethodGet, "/9", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = call(t, r, http.MethodGet, "/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = call(t, r, http.MethodPatch, "/1", `{"name":"Ada"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", env.Data.(map[string]any)["name"])

	rr, env = call(t, r, http.MethodDelete, "/1", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, env.Data)
}

func TestUserAccount_HidesUnexpectedErrors(t *testing.T) {
	r := mount(controllers.NewUserAccountController(&stubUsers{err: errors.New("pq: connection refused")}, zap.NewNop()))

	rr, env := call(t, r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Server Error", env.Message)
	assert.NotContains(t, rr.Body.String(), "pq")
}
