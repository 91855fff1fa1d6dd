package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-api/internal/container"
	handlers "github.com/oksasatya/user-account-api/internal/interface/http"
	"github.com/oksasatya/user-account-api/internal/interface/middleware"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

// UserModule wires the protected user endpoints.
// GET /api/users, GET /api/users/search, GET/PUT /api/users/profile,
// PUT /api/users/password
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/users", m.Handler.List)
		auth.GET("/users/search", m.Handler.Search)
		auth.GET("/users/profile", m.Handler.GetProfile)
		auth.PUT("/users/profile", m.Handler.UpdateProfile)
		auth.PUT("/users/password", m.Handler.ChangePassword)
	}
}
