package services

import "github.com/km-arc/fastie/framework/container"

// Register adds the services to c.
func Register(c *container.Container) error {
	return container.Service(c, NewUserService, container.As[UserService]())
}
