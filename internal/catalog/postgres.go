package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ginjaninja78/ledger-reconciler/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	sqlstateUndefinedTable  = "42P01"
	sqlstateUndefinedColumn = "42703"
)

// Table names the catalog table and its two columns.
type Table struct {
	Name              string
	ProductCodeColumn string
	BarcodeColumn     string
}

// DefaultTable is the products table the ledger is reconciled against.
func DefaultTable() Table {
	return Table{
		Name:              "products_ozon",
		ProductCodeColumn: "Артикул",
		BarcodeColumn:     "Barcode",
	}
}

// PostgresSource reads catalog pairs from PostgreSQL.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table Table
}

// NewPostgresSource creates a source over an existing pool.
func NewPostgresSource(pool *pgxpool.Pool, table Table) *PostgresSource {
	return &PostgresSource{pool: pool, table: table}
}

// Connect creates a pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse config: %v", ErrCatalogUnavailable, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: new pool: %v", ErrCatalogUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrCatalogUnavailable, err)
	}

	return pool, nil
}

// Query returns the statement used to read distinct pairs.
func (t Table) Query() string {
	code := pgx.Identifier{t.ProductCodeColumn}.Sanitize()
	barcode := pgx.Identifier{t.BarcodeColumn}.Sanitize()
	table := pgx.Identifier{t.Name}.Sanitize()
	return fmt.Sprintf("SELECT DISTINCT %s, %s::text FROM %s", code, barcode, table)
}

// Pairs acquires a pooled connection for the duration of one read and
// releases it before returning. Rows with a NULL product code or barcode are
// skipped.
func (s *PostgresSource) Pairs(ctx context.Context) ([]types.CatalogEntry, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire: %v", ErrCatalogUnavailable, err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, s.table.Query())
	if err != nil {
		return nil, s.wrap(err)
	}
	defer rows.Close()

	var pairs []types.CatalogEntry
	for rows.Next() {
		var code, barcode *string
		if err := rows.Scan(&code, &barcode); err != nil {
			return nil, s.wrap(err)
		}
		if code == nil || barcode == nil {
			continue
		}
		pairs = append(pairs, types.CatalogEntry{ProductCode: *code, Barcode: *barcode})
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(err)
	}

	return pairs, nil
}

// wrap tags err with ErrCatalogUnavailable and names schema mismatches.
func (s *PostgresSource) wrap(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlstateUndefinedTable:
			return fmt.Errorf("%w: table %q not found: %v", ErrCatalogUnavailable, s.table.Name, err)
		case sqlstateUndefinedColumn:
			return fmt.Errorf("%w: table %q is missing column %q or %q: %v",
				ErrCatalogUnavailable, s.table.Name, s.table.ProductCodeColumn, s.table.BarcodeColumn, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
}
