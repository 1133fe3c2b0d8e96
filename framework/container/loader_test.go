package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/fastie/framework/container"
)

// ── tier fixtures ─────────────────────────────────────────────────────────────

type (
	infraPart      struct{ id int }
	componentPart  struct{ id int }
	lazyComponent  struct{ id int }
	repositoryPart struct{ id int }
	servicePart    struct{ id int }
	controllerPart struct{ id int }
	prototypePart  struct{ id int }
)

func recordBuilds(c *container.Container) *[]string {
	var built []string
	c.OnResolved(func(d *container.Descriptor, _ any) {
		built = append(built, d.Type.String())
	})
	return &built
}

func TestLoadAll_TierOrder(t *testing.T) {
	c := container.New(nil)
	built := recordBuilds(c)

	// Registered in reverse so only the tier order can explain the result.
	require.NoError(t, container.Controller(c, func() *controllerPart { return &controllerPart{} }))
	require.NoError(t, container.Service(c, func() *servicePart { return &servicePart{} }))
	require.NoError(t, container.Repository(c, func() *repositoryPart { return &repositoryPart{} }))
	require.NoError(t, container.EagerComponent(c, func() *componentPart { return &componentPart{} }))
	require.NoError(t, container.Infrastructure(c, func() *infraPart { return &infraPart{} }))

	require.NoError(t, c.LoadAll())

	assert.Equal(t, []string{
		"*container_test.infraPart",
		"*container_test.componentPart",
		"*container_test.repositoryPart",
		"*container_test.servicePart",
		"*container_test.controllerPart",
	}, *built)
}

func TestLoadAll_SkipsLazyComponentsAndPrototypes(t *testing.T) {
	c := container.New(nil)
	built := recordBuilds(c)

	require.NoError(t, container.Component(c, func() *lazyComponent { return &lazyComponent{} }))
	require.NoError(t, container.Infrastructure(c, func() *infraPart { return &infraPart{} }, container.Lazy(true)))
	require.NoError(t, container.Service(c, func() *prototypePart { return &prototypePart{} },
		container.WithScope(container.Prototype)))
	// Lazy has no effect in the repository, service and controller tiers.
	require.NoError(t, container.Repository(c, func() *repositoryPart { return &repositoryPart{} }, container.Lazy(true)))

	require.NoError(t, c.LoadAll())

	assert.Equal(t, []string{"*container_test.repositoryPart"}, *built)
	assert.False(t, c.Resolved(container.TypeOf[*lazyComponent]()))
	assert.False(t, c.Resolved(container.TypeOf[*infraPart]()))

	// Lazy components are still available on demand.
	_, err := container.Resolve[*lazyComponent](c)
	assert.NoError(t, err)
}

func TestLoadAll_FailsFastWithTierName(t *testing.T) {
	c := container.New(nil)
	built := recordBuilds(c)
	boom := errors.New("dial tcp: refused")

	require.NoError(t, container.Infrastructure(c, func() (*infraPart, error) { return nil, boom }))
	require.NoError(t, container.Service(c, func() *servicePart { return &servicePart{} }))

	err := c.LoadAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load infrastructure tier")
	assert.Empty(t, *built, "nothing after the failure may be built")
}

// ── End to end ────────────────────────────────────────────────────────────────

type UserRepository interface{ Find(id int) string }

type sqlUserRepository struct{}

func (*sqlUserRepository) Find(id int) string { return "user" }

type UserService interface{ Profile(id int) string }

type userService struct{ repo UserRepository }

func (s *userService) Profile(id int) string { return "profile of " + s.repo.Find(id) }

type accountController struct{ users UserService }
type adminController struct{ users UserService }

func TestLoadAll_RepositoryServiceControllerChain(t *testing.T) {
	c := container.New(nil)

	require.NoError(t, container.Controller(c, func(u UserService) *accountController { return &accountController{users: u} }))
	require.NoError(t, container.Controller(c, func(u UserService) *adminController { return &adminController{users: u} }))
	require.NoError(t, container.Service(c, func(r UserRepository) *userService { return &userService{repo: r} },
		container.As[UserService]()))
	require.NoError(t, container.Repository(c, func() *sqlUserRepository { return &sqlUserRepository{} },
		container.As[UserRepository]()))

	require.NoError(t, c.LoadAll())

	account := container.Make[*accountController](c)
	admin := container.Make[*adminController](c)
	assert.Same(t, account.users, admin.users, "controllers share one service singleton")
	assert.Equal(t, "profile of user", account.users.Profile(1))

	assert.True(t, c.Registry().Has(container.TypeOf[UserService](), ""))
	assert.True(t, c.Registry().Has(container.TypeOf[UserRepository](), ""))
	assert.True(t, c.Registry().Has(container.TypeOf[*accountController](), ""))
}
