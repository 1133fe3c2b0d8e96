package controllers

import (
	"errors"

	"github.com/km-arc/fastie/framework/container"
)

// Register adds the controllers to c.
func Register(c *container.Container) error {
	return errors.Join(
		container.Controller(c, NewAuthController),
		container.Controller(c, NewUserAccountController),
	)
}
