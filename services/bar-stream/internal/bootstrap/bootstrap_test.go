package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	mockLogger "github.com/muhammadchandra19/exchange/pkg/logger/mock"
	pgMock "github.com/muhammadchandra19/exchange/pkg/postgresql/mock"
	qdbMock "github.com/muhammadchandra19/exchange/pkg/questdb/mock"
	redisMock "github.com/muhammadchandra19/exchange/pkg/redis/mock"
	pgbar "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/postgresql/bar"
	qdbbar "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/questdb/bar"
	ticksource "github.com/muhammadchandra19/exchange/services/bar-stream/internal/infrastructure/tick-source"
	"github.com/muhammadchandra19/exchange/services/bar-stream/internal/usecase/registry"
	"github.com/muhammadchandra19/exchange/services/bar-stream/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(store config.StoreDriver) *config.Config {
	return &config.Config{
		Store:  config.StoreConfig{Driver: store},
		Source: ticksource.Config{Driver: ticksource.DriverGenerator},
		Registry: registry.Config{
			SubscriberBuffer: 16,
			DefaultBackfill:  10,
			MaxBackfill:      100,
		},
		Auth: config.AuthConfig{JWTSecret: "secret"},
	}
}

func serveHealth(t *testing.T, b Bootstrap) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("health request reached the wrapped handler")
	})
	rec := httptest.NewRecorder()
	b.Handler.Health.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	return rec
}

func TestBootstrap_Init(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	testCases := []struct {
		name     string
		mockFn   func() BootstrapConfig
		assertFn func(b Bootstrap)
	}{
		{
			name: "postgres store with healthy client",
			mockFn: func() BootstrapConfig {
				pg := pgMock.NewMockPostgreSQLClient(ctrl)
				pg.EXPECT().Ping(gomock.Any()).Return(nil)

				return BootstrapConfig{
					Config:     testConfig(config.StorePostgres),
					Logger:     mockLogger.NewMockInterface(ctrl),
					Registerer: prometheus.NewRegistry(),
					Postgres:   pg,
				}
			},
			assertFn: func(b Bootstrap) {
				assert.IsType(t, &pgbar.Repository{}, b.Repository.Bar)
				assert.NotNil(t, b.Repository.History)
				assert.NotNil(t, b.Usecase.Sources)
				assert.NotNil(t, b.Usecase.Resolver)
				assert.NotNil(t, b.Usecase.Registry)
				assert.NotNil(t, b.Handler.WS)
				assert.NotNil(t, b.Handler.Quotes)
				assert.Len(t, b.Handler.Health.Checks, 1)

				rec := serveHealth(t, b)
				assert.Equal(t, http.StatusOK, rec.Code)
			},
		},
		{
			name: "questdb store reports failing redis",
			mockFn: func() BootstrapConfig {
				qdb := qdbMock.NewMockQuestDBClient(ctrl)
				qdb.EXPECT().Ping(gomock.Any()).Return(nil)
				rdb := redisMock.NewMockClient(ctrl)
				rdb.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

				return BootstrapConfig{
					Config:     testConfig(config.StoreQuestDB),
					Logger:     mockLogger.NewMockInterface(ctrl),
					Registerer: prometheus.NewRegistry(),
					QuestDB:    qdb,
					Redis:      rdb,
				}
			},
			assertFn: func(b Bootstrap) {
				assert.IsType(t, &qdbbar.Repository{}, b.Repository.Bar)
				assert.Len(t, b.Handler.Health.Checks, 2)

				rec := serveHealth(t, b)
				assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
				assert.Contains(t, rec.Body.String(), "redis: connection refused")
				assert.NotContains(t, rec.Body.String(), "questdb")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var b Bootstrap
			b = b.Init(tc.mockFn())
			defer func() {
				require.NoError(t, b.Usecase.Registry.Close(context.Background()))
			}()

			tc.assertFn(b)
		})
	}
}
