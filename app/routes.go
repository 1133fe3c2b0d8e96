// Package app wires the application's own components into the kernel.
package app

import (
	"errors"

	"github.com/km-arc/fastie/app/controllers"
	"github.com/km-arc/fastie/app/repositories"
	"github.com/km-arc/fastie/app/services"
	"github.com/km-arc/fastie/framework/container"
	"github.com/km-arc/fastie/framework/http/middleware"
	"github.com/km-arc/fastie/framework/routing"
)

// Register adds the repositories, services and controllers to c.
func Register(c *container.Container) error {
	return errors.Join(
		repositories.Register(c),
		services.Register(c),
		controllers.Register(c),
	)
}

// Routes mounts the controllers under the API prefix.
//
//	public:    CORS + Logging + RateLimit
//	protected: public + Auth
func Routes(cp *routing.Composer) error {
	return errors.Join(
		routing.Compose[*controllers.AuthController](cp, routing.Mount{
			Prefix:    "/auth",
			Tags:      []string{"Auth"},
			RouteType: middleware.RoutePublic,
		}),
		routing.Compose[*controllers.UserAccountController](cp, routing.Mount{
			Prefix:    "/user",
			Tags:      []string{"UserAccount"},
			RouteType: middleware.RouteProtected,
		}),
	)
}
