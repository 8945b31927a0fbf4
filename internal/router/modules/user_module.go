package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unilib-br/unilib/internal/container"
	handlers "github.com/unilib-br/unilib/internal/interface/http"
	"github.com/unilib-br/unilib/internal/interface/middleware"
)

// UserModule wires the membership routes:
// POST /api/users, GET /api/users, GET /api/users/:id,
// PUT /api/users/:id, POST /api/users/:id/deactivate,
// GET /api/users/:id/history

type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	users := rg.Group("/users")
	{
		users.POST("", writeLimiter, m.Handler.Register)
		users.GET("", m.Handler.List)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", writeLimiter, m.Handler.Update)
		users.POST("/:id/deactivate", writeLimiter, m.Handler.Deactivate)
		users.GET("/:id/history", m.Handler.History)
	}
}
