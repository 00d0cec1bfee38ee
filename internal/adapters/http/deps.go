package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wanderlust/internal/adapters/postgres"
	"github.com/samirrijal/wanderlust/internal/core/ports"
	"github.com/samirrijal/wanderlust/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions *usecases.SessionService
	Agent    *usecases.AgentService
	Trips    *usecases.TripService
	Identity ports.IdentityVerifier
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    ports.CacheService
}
