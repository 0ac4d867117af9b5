package questdb

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/muhammadchandra19/exchange/pkg/errors"
)

// Config is the QuestDB PGWire endpoint and pool sizing.
type Config struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"8812"`
	Database string `env:"DATABASE" envDefault:"qdb"`
	Username string `env:"USERNAME" envDefault:"admin"`
	Password string `env:"PASSWORD" envDefault:"quest"`

	ApplicationName string `env:"APPLICATION_NAME" envDefault:"bar-stream"`

	MaxConns        int32         `env:"MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"MIN_CONNS" envDefault:"1"`
	MaxConnLifetime time.Duration `env:"MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime time.Duration `env:"MAX_CONN_IDLE_TIME" envDefault:"30m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// DSN returns the connection URL. QuestDB speaks PGWire without TLS.
func (c Config) DSN() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {"disable"}}.Encode(),
	}
	return dsn.String()
}

func poolConfig(config Config) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(config.DSN())
	if err != nil {
		return nil, errors.NewErrorDetails(err.Error(), string(errors.BarStreamConfigError), "QUESTDB")
	}

	cfg.MaxConns = config.MaxConns
	cfg.MinConns = config.MinConns
	cfg.MaxConnLifetime = config.MaxConnLifetime
	cfg.MaxConnIdleTime = config.MaxConnIdleTime
	cfg.ConnConfig.ConnectTimeout = config.ConnectTimeout
	// QuestDB keeps no server side statement cache worth reusing across the pool.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec
	if config.ApplicationName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = config.ApplicationName
	}

	return cfg, nil
}

// Client talks to QuestDB through a pgx pool.
type Client struct {
	pool *pgxpool.Pool
}

var _ QuestDBClient = (*Client)(nil)

// NewClient opens the pool and checks the server answers.
func NewClient(ctx context.Context, config Config) (QuestDBClient, error) {
	cfg, err := poolConfig(config)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open questdb pool: %w", errors.TracerFromError(err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping questdb at %s: %w", cfg.ConnConfig.Host, errors.TracerFromError(err))
	}

	return &Client{pool: pool}, nil
}

// Close releases the pool.
func (c *Client) Close() {
	c.pool.Close()
}

// Ping implements QuestDBClient.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := c.pool.Exec(ctx, sql, args...)
	return err
}

// Query implements QuestDBClient.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (RowsInterface, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return NewRowsWrapper(rows), nil
}
