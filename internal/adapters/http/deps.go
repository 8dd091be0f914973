package http

import (
	"github.com/nats-io/nats.go"

	"areascope/internal/adapters/mapsync"
	"areascope/internal/adapters/postgres"
	"areascope/internal/adapters/valkey"
	"areascope/internal/core/ports"
	"areascope/internal/core/usecases"
	"areascope/internal/pkg/config"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Areas    *usecases.AreaService
	Sessions *usecases.SessionService
	Notices  *usecases.NoticeService
	Locate   *usecases.LocateService
	Map      *mapsync.Adapter
	Gestures *mapsync.GestureHandler
	History  ports.AreaHistoryRepository
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
	MapCfg   config.MapConfig
}
