package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/fastie/app/schemas"
	"github.com/km-arc/fastie/app/services"
	"github.com/km-arc/fastie/framework/routing"
	"github.com/km-arc/fastie/framework/security"
)

// AuthController issues access tokens.
type AuthController struct {
	BaseController
	users services.UserService
	jwt   *security.JWT
}

func NewAuthController(users services.UserService, jwt *security.JWT, log *zap.Logger) *AuthController {
	return &AuthController{BaseController: newBase(log, "auth"), users: users, jwt: jwt}
}

func (c *AuthController) Routes(r *routing.Router) {
	r.Post("/login", c.Login)
	r.Get("/greet", c.Greet)
}

// Login checks the credentials and returns a bearer token.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in schemas.LoginRequest
	if err := c.Request(r).Validate(&in); err != nil {
		c.Fail(w, err)
		return
	}

	u, err := c.users.Authenticate(r.Context(), in.Email, in.Password)
	if err != nil {
		c.Fail(w, err)
		return
	}

	token, exp, err := c.jwt.Issue(u.ID, u.Email)
	if err != nil {
		c.Fail(w, err)
		return
	}
	c.Success(w, schemas.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   exp,
		User:        schemas.NewUserResponse(u),
	}, "Login successful", http.StatusOK)
}

// Greet answers with the error envelope; clients use it to check the shape.
func (c *AuthController) Greet(w http.ResponseWriter, _ *http.Request) {
	c.Error(w, "Hello, welcome to the API!", http.StatusBadRequest)
}
