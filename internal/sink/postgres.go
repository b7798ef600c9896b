package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alkoparse/alkoteka-crawler/internal/catalog"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for item rows.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// Postgres upserts items into a table keyed by product URL, so re-crawling
// refreshes rows instead of duplicating them.
type Postgres struct {
	pool  execCloser
	table string
}

// NewPostgres creates a Postgres sink using the provided config.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sink.postgres.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "items"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Postgres{pool: pool, table: table}, nil
}

// NewPostgresWithPool constructs a sink from an existing pool (primarily for
// testing).
func NewPostgresWithPool(pool execCloser, table string) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "items"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Postgres{pool: pool, table: table}, nil
}

// Emit upserts one item row. The full record is stored as JSONB alongside a
// few queryable columns.
func (s *Postgres) Emit(ctx context.Context, item *catalog.Item) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", item.URL, err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (url, rpc, title, crawled_at, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url)
		DO UPDATE SET rpc = $2, title = $3, crawled_at = $4, payload = $5
	`, s.table)
	_, err = s.pool.Exec(ctx, query,
		item.URL,
		item.RPC,
		item.Title,
		time.Unix(item.Timestamp, 0).UTC(),
		payload,
	)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.URL, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close(context.Context) error {
	s.pool.Close()
	return nil
}
