// Package routing wraps chi with a small helper surface and composes
// container-managed controllers behind middleware groups.
package routing

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Router wraps chi.Router.
type Router struct {
	mux chi.Router
}

// New creates a Router that recovers from handler panics and honours the
// X-Real-IP / X-Forwarded-For headers. Request logging is a middleware of
// its own (see middleware.Logging), so none is installed here.
func New() *Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	return &Router{mux: r}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.mux.Patch(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// Any registers a handler for all common HTTP methods.
func (r *Router) Any(pattern string, h http.HandlerFunc) {
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		r.mux.Method(m, pattern, h)
	}
}

// Handle mounts h for every method at pattern.
func (r *Router) Handle(pattern string, h http.Handler) { r.mux.Handle(pattern, h) }

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group that shares the parent's path.
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx})
	})
}

// Prefix creates a sub-router under pattern.
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx})
	})
}

// ── Middleware ───────────────────────────────────────────────────────────────

// Middleware adds one or more middleware to the router. chi requires this to
// happen before any route is registered on r.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// With returns an inline router whose routes run behind mw.
func (r *Router) With(mw ...func(http.Handler) http.Handler) *Router {
	return &Router{mux: r.mux.With(mw...)}
}

// ── Resource routes ──────────────────────────────────────────────────────────

// ResourceController handles the standard RESTful actions.
//
//	GET    /users           → c.Index
//	POST   /users           → c.Store
//	GET    /users/{id}      → c.Show
//	PUT    /users/{id}      → c.Update
//	DELETE /users/{id}      → c.Destroy
type ResourceController interface {
	Index(w http.ResponseWriter, r *http.Request)
	Store(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Resource registers the actions of c under pattern. An empty pattern or "/"
// registers them at the router's root, which is how controllers mounted by
// the Composer use it.
func (r *Router) Resource(pattern string, c ResourceController) {
	base := strings.TrimSuffix(pattern, "/")
	root := base
	if root == "" {
		root = "/"
	}
	r.mux.Get(root, c.Index)
	r.mux.Post(root, c.Store)
	r.mux.Get(base+"/{id}", c.Show)
	r.mux.Put(base+"/{id}", c.Update)
	r.mux.Patch(base+"/{id}", c.Update)
	r.mux.Delete(base+"/{id}", c.Destroy)
}

// ── Introspection ────────────────────────────────────────────────────────────

// Route is one registered method and pattern.
type Route struct {
	Method      string
	Pattern     string
	Middlewares int
}

// Routes lists every registered route, in chi's walk order.
func (r *Router) Routes() ([]Route, error) {
	var out []Route
	err := chi.Walk(r.mux, func(method, route string, _ http.Handler, mws ...func(http.Handler) http.Handler) error {
		out = append(out, Route{Method: method, Pattern: route, Middlewares: len(mws)})
		return nil
	})
	return out, err
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param.
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ── Serve ────────────────────────────────────────────────────────────────────

// ServeHTTP implements http.Handler so Router can be passed to http.Server.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}
