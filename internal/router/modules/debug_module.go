package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-api/internal/container"
	"github.com/oksasatya/user-account-api/internal/interface/middleware"
)

// DebugModule exposes expvar counters. Requests need a valid access token but
// no live session, so the endpoint stays usable from workers and scripts.
type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Private-network callers bypass the limiter.
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", middleware.JWTAuth(container.GetJWT()), rl, gin.WrapH(expvar.Handler()))
}
