package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unilib-br/unilib/internal/container"
	handlers "github.com/unilib-br/unilib/internal/interface/http"
	"github.com/unilib-br/unilib/internal/interface/middleware"
)

// CatalogModule wires the collection routes:
// POST /api/items, GET /api/items, GET /api/items/search,
// GET /api/items/stats, GET /api/items/:id, PUT /api/items/:id/quantity,
// DELETE /api/items/:id, POST /api/items/:id/cover

type CatalogModule struct {
	Handler *handlers.CatalogHandler
}

func NewCatalogModule(h *handlers.CatalogHandler) *CatalogModule {
	return &CatalogModule{Handler: h}
}

func (m *CatalogModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)
	uploadLimiter := middleware.RateLimit(container.GetRedis(), 20, time.Minute, middleware.KeyByIPAndPath(), nil)

	items := rg.Group("/items")
	{
		items.POST("", writeLimiter, m.Handler.Add)
		items.GET("", m.Handler.List)
		// static segments before the :id wildcard
		items.GET("/search", m.Handler.Search)
		items.GET("/stats", m.Handler.Stats)
		items.GET("/:id", m.Handler.Get)
		items.PUT("/:id/quantity", writeLimiter, m.Handler.UpdateQuantity)
		items.DELETE("/:id", writeLimiter, m.Handler.Remove)
		items.POST("/:id/cover", uploadLimiter, m.Handler.UploadCover)
	}
}
