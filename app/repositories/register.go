package repositories

import "github.com/km-arc/fastie/framework/container"

// Register adds the repositories to c.
func Register(c *container.Container) error {
	return container.Repository(c, NewUserRepository, container.As[UserRepository]())
}
