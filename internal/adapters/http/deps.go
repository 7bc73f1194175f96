package http

import (
	"github.com/nats-io/nats.go"

	"github.com/transitlabs/wayplan/internal/adapters/valkey"
	"github.com/transitlabs/wayplan/internal/cache"
	"github.com/transitlabs/wayplan/internal/core/usecases"
	"github.com/transitlabs/wayplan/internal/monitor"
	"github.com/transitlabs/wayplan/internal/pkg/ratelimit"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Plans        *usecases.PlanService
	Monitor      *monitor.Monitor
	GeoCache     *cache.GeocodingCache
	TransitCache *cache.TransitCache
	Limiter      *ratelimit.Limiter
	NATS         *nats.Conn
	Cache        *valkey.Cache
}
