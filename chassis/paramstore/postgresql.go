package paramstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const schema = `
create table if not exists t_parameter (
	name       text primary key,
	value      text not null,
	version    bigint not null default 1,
	updated_dt timestamp not null default localtimestamp
);
`

// querier - the part of *pgxpool.Pool the store needs
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PGStore - versioned store on a single PostgreSQL table
type PGStore struct {
	db   querier
	pool *pgxpool.Pool
}

// InitPGStore connects and makes sure t_parameter exists.
func InitPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PGStore{db: pool, pool: pool}, nil
}

// Close ...
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Put - upsert, bumping the version on every overwrite
func (s *PGStore) Put(ctx context.Context, key, value string) error {
	query := `
	insert into t_parameter(name, value) values ($1, $2)
	on conflict (name) do update
	set
		value = excluded.value,
		version = t_parameter.version + 1,
		updated_dt = localtimestamp;
	`
	tag, err := s.db.Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("put parameter %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("zero rows affected")
	}
	return nil
}

// Get ...
func (s *PGStore) Get(ctx context.Context, key string) (*Parameter, error) {
	param := &Parameter{Name: key}
	query := `select value, version from t_parameter where name = $1`
	err := s.db.QueryRow(ctx, query, key).Scan(&param.Value, &param.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get parameter %s: %w", key, err)
	}
	return param, nil
}
