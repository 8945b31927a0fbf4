package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unilib-br/unilib/internal/container"
	"github.com/unilib-br/unilib/internal/interface/middleware"
)

var startedAt = time.Now()

func init() {
	expvar.Publish("uptime_seconds", expvar.Func(func() any {
		return int64(time.Since(startedAt).Seconds())
	}))
}

// DebugModule exposes expvar counters when DEBUG_METRICS is enabled.
type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), nil)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
