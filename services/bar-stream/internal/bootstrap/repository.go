package bootstrap

import (
	barv1 "github.com/muhammadchandra19/exchange/services/bar-stream/internal/domain/bar/v1"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/history"
	pgbar "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/postgresql/bar"
	qdbbar "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/questdb/bar"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/config"
)

// Repository is the repository for the bar stream service.
type Repository struct {
	Bar     barv1.Repository
	History barv1.HistoryProvider
}

// registerRepository registers the repository.
func (b *Bootstrap) registerRepository() {
	switch b.Config.Store.Driver {
	case config.StoreQuestDB:
		b.Repository.Bar = qdbbar.NewRepository(b.QuestDB, b.Logger)
	default:
		b.Repository.Bar = pgbar.NewRepository(b.Postgres, b.Logger)
	}

	b.Repository.History = history.NewProvider(b.Config.History, b.Logger)
}
