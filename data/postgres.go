// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package data

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/seedwing/policy-engine/value"
)

//go:embed migrations/*.sql
var postgresMigrations embed.FS

// defaultLookupTimeout bounds a single Postgres data-source lookup so a
// stalled connection cannot hang an evaluation indefinitely.
const defaultLookupTimeout = 2 * time.Second

// PostgresSource exposes a single table's JSON/JSONB `value` column, keyed
// by a `path` column, as a data source: `data::from<"some/key">` resolves
// to a row whose `path` equals the dereferenced key. This grounds the
// optional database-backed data source called out in SPEC_FULL.md's domain
// stack wiring table — the spec's data-source layout (§6) only describes
// file trees, but nothing prevents a Source implementation backed by a
// table instead of a filesystem.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSource wraps an already-connected pool. Callers own the
// pool's lifecycle (Close it themselves); PostgresSource never closes it.
func NewPostgresSource(pool *pgxpool.Pool, table string) *PostgresSource {
	return &PostgresSource{pool: pool, table: table}
}

func (p *PostgresSource) Name() string { return "postgres:" + p.table }

// Migrate applies the embedded schema migrations to the database reachable
// via dsn, creating the lookup table PostgresSource expects.
func Migrate(dsn string) error {
	src, err := iofs.New(postgresMigrations, "migrations")
	if err != nil {
		return oops.Code("MIGRATION_SOURCE").Wrap(err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return oops.Code("MIGRATION_INIT").Wrap(err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return oops.Code("MIGRATION_APPLY").Wrap(err)
	}
	return nil
}

// Lookup queries the source's table for path, decoding the JSONB `value`
// column into a Value. isNoRows tells the ordinary "no row" case (the
// "no rows in result set" error, never a *pgconn.PgError) apart from a
// genuine failure: a missing row returns ok=false rather than an error so
// Sources.Lookup can fall through to the next source.
func (p *PostgresSource) Lookup(path string) (*value.Value, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultLookupTimeout)
	defer cancel()

	row := p.pool.QueryRow(ctx,
		"SELECT value FROM "+p.table+" WHERE path = $1", path)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, oops.Code("POSTGRES_LOOKUP_FAILED").With("path", path).Wrap(err)
	}

	v, err := decodeJSON(raw)
	if err != nil {
		return nil, false, oops.Code("JSON_ERROR").With("path", path).Wrap(err)
	}
	return v, true, nil
}

func isNoRows(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return false
	}
	return err.Error() == "no rows in result set"
}
