package router

import (
	userapp "github.com/oksasatya/user-account-api/internal/application"
	"github.com/oksasatya/user-account-api/internal/container"
	pginfra "github.com/oksasatya/user-account-api/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/user-account-api/internal/interface/http"
	"github.com/oksasatya/user-account-api/internal/router/modules"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

func buildService() *userapp.Service {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	var pub userapp.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	return userapp.NewService(
		repo,
		helpers.NewBcryptHasher(cfg.BcryptCost),
		container.GetJWT(),
		helpers.UUIDGenerator{},
		container.GetRedis(),
		container.GetLogger(),
		pub,
		container.GetES(),
		cfg.ESUsersIndex,
	)
}

// InitModules wires all application modules into the router registry. Called
// once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := buildService()

	authHandler := handlers.NewAuthHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	userHandler := handlers.NewUserHandler(svc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
