package router

import (
	"github.com/unilib-br/unilib/internal/application"
	"github.com/unilib-br/unilib/internal/container"
	pginfra "github.com/unilib-br/unilib/internal/infrastructure/postgres"
	handlers "github.com/unilib-br/unilib/internal/interface/http"
	"github.com/unilib-br/unilib/internal/router/modules"
)

// Services is the wired application service graph. The HTTP modules and
// the background sweep ticker share one instance.
type Services struct {
	Users   *application.UserService
	Catalog *application.CatalogService
	Loans   *application.LoanService
}

// BuildServices constructs the service graph from container singletons.
func BuildServices() *Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	store := pginfra.NewStore(container.GetPGPool())

	loans := application.NewLoanService(store, logger, container.GetRedis(), container.GetRabbitPub())
	return &Services{
		Users:   application.NewUserService(store, logger),
		Catalog: application.NewCatalogService(store, logger, container.GetGCS(), cfg.GCSBucket, container.GetES(), cfg.ESItemsIndex),
		Loans:   loans,
	}
}

// InitModules registers every feature module with the router registry.
// Called once during startup.
func InitModules(r *Registry, svcs *Services) {
	logger := container.GetLogger()

	r.Add(modules.NewUserModule(handlers.NewUserHandler(svcs.Users, logger)))
	r.Add(modules.NewCatalogModule(handlers.NewCatalogHandler(svcs.Catalog, logger)))
	r.Add(modules.NewLoanModule(handlers.NewLoanHandler(svcs.Loans, logger)))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
