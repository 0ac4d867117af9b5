package bootstrap

import (
	ticksource "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/tick-source"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/usecase/backfill"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/usecase/registry"
)

// Usecase is the usecase for the bar stream service.
type Usecase struct {
	Sources  *ticksource.Factory
	Resolver *backfill.Resolver
	Registry *registry.Registry
}

// registerUsecase registers the usecase.
func (b *Bootstrap) registerUsecase() {
	opts := []ticksource.Option{
		ticksource.WithKafka(b.Config.Kafka),
		ticksource.WithGenerator(b.Config.Generator),
	}
	if b.Redis != nil {
		opts = append(opts, ticksource.WithRedis(b.Redis, b.Config.Stream))
	}

	b.Usecase.Sources = ticksource.NewFactory(b.Config.Source.Driver, b.Logger, opts...)
	b.Usecase.Resolver = backfill.NewResolver(b.Repository.Bar, b.Repository.History, b.Logger)
	b.Usecase.Registry = registry.New(
		b.Usecase.Sources,
		b.Repository.Bar,
		b.Usecase.Resolver,
		b.Config.Registry,
		b.Metrics,
		b.Logger,
	)
}
