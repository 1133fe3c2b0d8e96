package middleware

import (
	"errors"

	"github.com/km-arc/fastie/framework/container"
)

// Register adds every middleware of this package and the Catalog to c as
// lazy components. The config, the logger and *security.JWT must be
// registered by the caller.
func Register(c *container.Container) error {
	return errors.Join(
		container.Component(c, NewCORS),
		container.Component(c, NewLogging),
		container.Component(c, NewRateLimit),
		container.Component(c, NewAuth),
		container.Component(c, NewCache),
		container.Component(c, NewValidation),
		container.Component(c, NewVersioning),
		container.Component(c, NewMetrics),
		container.Component(c, NewCatalog),
	)
}
