package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/products-api/internal/core/domain"
	"github.com/rl1809/products-api/internal/obs"
)

// SQLAdapter stores products in a relational table keyed by (category, id).
type SQLAdapter struct {
	db      *sql.DB
	dialect sqlDialect
	ready   *lazy[*sql.DB]
}

// OpenSQL opens a pool for driver ("mysql" or "postgres"). Nothing is dialed
// until the first query; the schema is applied then.
func OpenSQL(driver, dsn string) (*SQLAdapter, error) {
	dsn, err := normalizeDSN(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	a, err := NewSQLAdapter(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func NewSQLAdapter(db *sql.DB, driver string) (*SQLAdapter, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	a := &SQLAdapter{db: db, dialect: d}
	a.ready = newLazy(func(ctx context.Context) (*sql.DB, error) {
		if err := a.Migrate(ctx); err != nil {
			return nil, err
		}
		return db, nil
	})
	return a, nil
}

// Migrate creates the products table when it does not exist.
func (a *SQLAdapter) Migrate(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, a.dialect.schema); err != nil {
		return fmt.Errorf("apply %s schema: %w", a.dialect.driver, err)
	}
	obs.Logger.Info().Str("driver", a.dialect.driver).Msg("sql: schema applied")
	return nil
}

func (a *SQLAdapter) List(ctx context.Context) ([]domain.Product, error) {
	db, err := a.ready.get(ctx)
	if err != nil {
		return nil, err
	}
	return a.queryProducts(ctx, db, a.dialect.list)
}

func (a *SQLAdapter) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	db, err := a.ready.get(ctx)
	if err != nil {
		return nil, err
	}
	return a.queryProducts(ctx, db, a.dialect.byCategory, category)
}

func (a *SQLAdapter) queryProducts(ctx context.Context, db *sql.DB, query string, args ...any) ([]domain.Product, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Category, &p.Name, &p.Quantity, &p.Price, &p.Clearance, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (a *SQLAdapter) Get(ctx context.Context, id, category string) (domain.Product, error) {
	db, err := a.ready.get(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	p, err := scanProduct(db.QueryRowContext(ctx, a.dialect.get, id, category))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (a *SQLAdapter) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	return a.write(ctx, "create", a.dialect.insert, product)
}

func (a *SQLAdapter) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	return a.write(ctx, "upsert", a.dialect.upsert, product)
}

func (a *SQLAdapter) write(ctx context.Context, op, query string, p domain.Product) (domain.Product, error) {
	db, err := a.ready.get(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	_, err = db.ExecContext(ctx, query, p.ID, p.Category, p.Name, p.Quantity, p.Price, p.Clearance, p.UpdatedAt)
	if err != nil {
		if a.dialect.isDuplicate(err) {
			return domain.Product{}, ErrConflict
		}
		return domain.Product{}, fmt.Errorf("%s product: %w", op, err)
	}
	obs.Logger.Info().Str("op", op).Str("id", p.ID).Str("name", p.Name).Msg("sql: wrote product")
	return p, nil
}

func (a *SQLAdapter) Delete(ctx context.Context, id, category string) error {
	db, err := a.ready.get(ctx)
	if err != nil {
		return err
	}

	res, err := db.ExecContext(ctx, a.dialect.delete, id, category)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	obs.Logger.Info().Str("id", id).Msg("sql: deleted product")
	return nil
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *SQLAdapter) Close() error {
	return a.db.Close()
}
