// Package middleware holds the HTTP cross-cutting concerns (CORS, logging,
// rate limiting, auth, caching, validation, versioning, metrics) and the
// Catalog that groups them into named chains.
package middleware

import (
	"errors"
	"net/http"
)

// Middleware wraps a handler. Every middleware in this package is a
// container singleton, so Handle must be safe for concurrent requests.
type Middleware interface {
	Handle(next http.Handler) http.Handler
}

// Func adapts a plain func(http.Handler) http.Handler, e.g. from chi.
type Func func(http.Handler) http.Handler

func (f Func) Handle(next http.Handler) http.Handler { return f(next) }

// Chain wraps h so that mws[0] runs first.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i].Handle(h)
	}
	return h
}

// Handlers converts mws for chi's Use / With.
func Handlers(mws []Middleware) []func(http.Handler) http.Handler {
	out := make([]func(http.Handler) http.Handler, len(mws))
	for i, m := range mws {
		out[i] = m.Handle
	}
	return out
}

// ErrMiddlewareConstruction is logged when a middleware cannot be resolved
// from the container and its default constructor is used instead.
var ErrMiddlewareConstruction = errors.New("middleware: construction failed")

// ErrUnknownGroup is returned for a group name missing from the table.
var ErrUnknownGroup = errors.New("middleware: unknown group")

type ctxKey int

const (
	claimsKey ctxKey = iota
	versionKey
	requestIDKey
)
