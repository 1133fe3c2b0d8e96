package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/app/repositories"
	"github.com/km-arc/fastie/app/schemas"
	"github.com/km-arc/fastie/app/services"
	"github.com/km-arc/fastie/framework/routing"
)

// UserAccountController manages user accounts.
type UserAccountController struct {
	BaseController
	users services.UserService
}

func NewUserAccountController(users services.UserService, log *zap.Logger) *UserAccountController {
	return &UserAccountController{BaseController: newBase(log, "user_account"), users: users}
}

func (c *UserAccountController) Routes(r *routing.Router) {
	r.Get("/", c.Index)
	r.Post("/register", c.Register)
	r.Get("/{id}", c.Show)
	r.Patch("/{id}", c.Update)
	r.Delete("/{id}", c.Destroy)
}

// Index lists users. Query: skip, limit, order_by, direction.
func (c *UserAccountController) Index(w http.ResponseWriter, r *http.Request) {
	req := c.Request(r)
	page := repositories.Page{
		Skip:      req.QueryInt("skip", repositories.DefaultPage.Skip),
		Limit:     req.QueryInt("limit", repositories.DefaultPage.Limit),
		OrderBy:   req.Query("order_by"),
		Direction: req.Query("direction"),
	}
	users, err := c.users.List(r.Context(), page)
	if err != nil {
		c.Fail(w, err)
		return
	}
	c.Success(w, users, "Users retrieved successfully.", http.StatusOK)
}

func (c *UserAccountController) Register(w http.ResponseWriter, r *http.Request) {
	var in schemas.UserCreate
	if err := c.Request(r).Validate(&in); err != nil {
		c.Fail(w, err)
		return
	}
	u, err := c.users.Create(r.Context(), in)
	if err != nil {
		c.Fail(w, err)
		return
	}
	c.Success(w, u, "User registered successfully.", http.StatusOK)
}

func (c *UserAccountController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := c.id(w, r)
	if !ok {
		return
	}
	u, err := c.users.Get(r.Context(), id)
	if err != nil {
		c.Fail(w, err)
		return
	}
	c.Success(w, u, "User retrieved successfully.", http.StatusOK)
}

func (c *UserAccountController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := c.id(w, r)
	if !ok {
		return
	}
	var in schemas.UserUpdate
	if err := c.Request(r).Validate(&in); err != nil {
		c.Fail(w, err)
		return
	}
	u, err := c.users.Update(r.Context(), id, in)
	if err != nil {
		c.Fail(w, err)
		return
	}
	c.Success(w, u, "User updated successfully.", http.StatusOK)
}

func (c *UserAccountController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := c.id(w, r)
	if !ok {
		return
	}
	if err := c.users.Delete(r.Context(), id); err != nil {
		c.Fail(w, err)
		return
	}
	c.Success(w, nil, "User deleted successfully.", http.StatusOK)
}

func (c *UserAccountController) id(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := c.Request(r).RouteInt("id")
	if err != nil || id <= 0 {
		c.Error(w, "Invalid user id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
