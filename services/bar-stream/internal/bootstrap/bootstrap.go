package bootstrap

import (
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/muhammadchandra19/exchange/pkg/postgresql"
	"github.com/muhammadchandra19/exchange/pkg/questdb"
	"github.com/muhammadchandra19/exchange/pkg/redis"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/metrics"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
)

// Bootstrap wires the bar stream service together.
type Bootstrap struct {
	Config     *config.Config
	Logger     logger.Interface
	Metrics    *metrics.Metrics
	Repository Repository
	Usecase    Usecase
	Handler    Handler

	// Only the clients the configured drivers need are set.
	Postgres postgresql.PostgreSQLClient
	QuestDB  questdb.QuestDBClient
	Redis    redis.Client
}

// BootstrapConfig is the config for the bootstrap.
type BootstrapConfig struct {
	Config     *config.Config
	Logger     logger.Interface
	Registerer prometheus.Registerer

	Postgres postgresql.PostgreSQLClient
	QuestDB  questdb.QuestDBClient
	Redis    redis.Client
}

// Init initializes the bootstrap.
func (b *Bootstrap) Init(config BootstrapConfig) Bootstrap {
	b.Config = config.Config
	b.Logger = config.Logger
	b.Metrics = metrics.New(config.Registerer)
	b.Postgres = config.Postgres
	b.QuestDB = config.QuestDB
	b.Redis = config.Redis

	b.registerRepository()
	b.registerUsecase()
	b.registerHandler()

	return *b
}
