package database

import (
	"errors"

	"github.com/km-arc/fastie/framework/container"
)

// Register adds the pool as eager infrastructure, plus the transaction
// Context and the lazily opened Migrator.
func Register(c *container.Container) error {
	return errors.Join(
		container.Infrastructure(c, NewInfrastructure),
		container.Component(c, NewContext, container.As[Transactor]()),
		container.Component(c, NewMigrator, container.WithScope(container.Prototype)),
	)
}
