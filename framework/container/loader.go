package container

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// LoadOrder is the tier sequence LoadAll walks. Infrastructure comes first
// so connections exist before anything that needs them.
var LoadOrder = []Role{
	RoleInfrastructure,
	RoleComponent,
	RoleRepository,
	RoleService,
	RoleController,
}

// eagerTier reports whether every descriptor of r is built at startup
// regardless of its Lazy flag.
func eagerTier(r Role) bool {
	return r == RoleRepository || r == RoleService || r == RoleController
}

// LoadAll builds the startup graph tier by tier and stops at the first
// failure. Prototypes are never built here; lazy descriptors are skipped in
// the Infrastructure and Component tiers.
//
//	if err := c.LoadAll(); err != nil {
//	    log.Fatal("startup failed", zap.Error(err))
//	}
func (c *Container) LoadAll() error {
	start := time.Now()
	descriptors := c.registrar.Descriptors()
	loaded := 0

	for _, role := range LoadOrder {
		for _, d := range descriptors {
			if d.Role != role || d.Scope == Prototype {
				continue
			}
			if d.Lazy && !eagerTier(role) {
				continue
			}
			if _, err := c.resolver.build(d.Type, &resolution{}); err != nil {
				c.log.Error("Component load failed",
					zap.Stringer("tier", role),
					zap.String("type", d.Type.String()),
					zap.Error(err),
				)
				return fmt.Errorf("load %s tier: %w", role, err)
			}
			loaded++
		}
	}

	c.log.Info("Components loaded",
		zap.Int("count", loaded),
		zap.Int("registered", len(descriptors)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
