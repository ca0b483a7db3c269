package http

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/arnav/api"
	"github.com/samirrijal/arnav/internal/core/ports"
	"github.com/samirrijal/arnav/internal/core/usecases"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Catalog    *usecases.CatalogService
	Queues     *usecases.QueueService
	Navigation *usecases.NavigationService

	// Optional integrations; nil means "not configured".
	Tours     ports.TourRunner
	Publisher ports.EventPublisher
	NATS      *nats.Conn
	DB        Pinger
	Cache     Pinger
	Temporal  Pinger

	// Websocket sessions.
	DefaultDestination string
	AutoAdvance        bool

	RequestTimeout time.Duration
	RateLimit      int
	// OpenAPI overrides the embedded API description.
	OpenAPI []byte
}

func (d *Dependencies) requestTimeout() time.Duration {
	if d.RequestTimeout > 0 {
		return d.RequestTimeout
	}
	return 15 * time.Second
}

func (d *Dependencies) rateLimit() int {
	if d.RateLimit > 0 {
		return d.RateLimit
	}
	return 120
}

func (d *Dependencies) openAPI() []byte {
	if len(d.OpenAPI) > 0 {
		return d.OpenAPI
	}
	return api.OpenAPI
}
