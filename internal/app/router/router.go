package router

import (
	priceshandler "stockwatch/internal/feature/prices/transport/handler"
	"stockwatch/internal/platform/http/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the read-only HTTP surface. Every route serves stored
// data; nothing here reaches out to a provider.
func NewRouter(prices *priceshandler.PriceHandler) *gin.Engine {
	r := gin.Default()

	// Must be registered before the routes or gin will not apply it.
	r.Use(cors.Default())

	// Liveness probe
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)

	// Stored price history over a date range
	r.GET("/prices/:symbol", prices.GetHistory)
	// Stored price on (or shortly before) a single date
	r.GET("/prices/:symbol/at", prices.GetOnDate)

	return r
}
