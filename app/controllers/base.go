// Package controllers holds the HTTP controllers mounted by app.Routes.
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/app/repositories"
	"github.com/km-arc/fastie/app/services"
	gohttp "github.com/km-arc/fastie/framework/http"
	"github.com/km-arc/fastie/framework/http/validation"
)

// Envelope is the body of every controller response.
type Envelope = gohttp.Envelope

// BaseController is embedded by every controller.
type BaseController struct {
	log *zap.Logger
}

func newBase(log *zap.Logger, name string) BaseController {
	return BaseController{log: log.Named(name)}
}

func (BaseController) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}

func (BaseController) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}

// Success writes a success envelope. A zero status means 200.
func (b BaseController) Success(w http.ResponseWriter, data any, message string, status int) {
	b.Response(w).Success(data, message, status)
}

// Error writes an error envelope. A zero status means 400.
func (b BaseController) Error(w http.ResponseWriter, message string, status int) {
	b.Response(w).Error(message, status)
}

// Fail maps err onto an error envelope. Validation failures carry the
// error bag in data; unexpected errors are logged and hidden.
func (b BaseController) Fail(w http.ResponseWriter, err error) {
	res := b.Response(w)

	var bag *validation.Errors
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &bag):
		res.ValidationError(bag)
	case errors.As(err, &tooLarge):
		res.Error("Request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, gohttp.ErrEmptyBody), errors.As(err, &syntax), errors.As(err, &typeErr):
		res.Error("Malformed request body", http.StatusBadRequest)
	case errors.Is(err, repositories.ErrInvalidOrder):
		res.Error(err.Error(), http.StatusBadRequest)
	case errors.Is(err, repositories.ErrNotFound):
		res.NotFound("Resource not found")
	case errors.Is(err, services.ErrEmailTaken):
		res.Error("Email already registered", http.StatusConflict)
	case errors.Is(err, services.ErrInvalidCredentials):
		res.Unauthorized("Invalid email or password")
	case errors.Is(err, services.ErrInactive):
		res.Forbidden("Account is inactive")
	default:
		b.log.Error("Request failed", zap.Error(err))
		res.ServerError("Server Error")
	}
}
