package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unilib-br/unilib/internal/container"
	handlers "github.com/unilib-br/unilib/internal/interface/http"
	"github.com/unilib-br/unilib/internal/interface/middleware"
)

// LoanModule wires the circulation routes:
// POST /api/loans, GET /api/loans, GET /api/loans/stats,
// POST /api/loans/:id/return, POST /api/loans/sweep

type LoanModule struct {
	Handler *handlers.LoanHandler
}

func NewLoanModule(h *handlers.LoanHandler) *LoanModule {
	return &LoanModule{Handler: h}
}

func (m *LoanModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIPAndPath(), nil)
	sweepLimiter := middleware.RateLimit(container.GetRedis(), 6, time.Minute, middleware.KeyByIP(), nil)

	loans := rg.Group("/loans")
	{
		loans.POST("", writeLimiter, m.Handler.Create)
		loans.GET("", m.Handler.List)
		loans.GET("/stats", m.Handler.Stats)
		loans.POST("/sweep", sweepLimiter, m.Handler.Sweep)
		loans.POST("/:id/return", writeLimiter, m.Handler.Return)
	}
}
