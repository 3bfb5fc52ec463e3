package storage

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

//go:embed schema/mysql.sql
var mysqlSchema string

//go:embed schema/postgres.sql
var postgresSchema string

const productColumns = "id, category, name, quantity, price, clearance, updated_at"

type sqlDialect struct {
	driver string
	schema string

	insert     string
	upsert     string
	get        string
	list       string
	byCategory string
	delete     string

	isDuplicate func(error) bool
}

var (
	baseInsert     = `INSERT INTO products (` + productColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	baseGet        = `SELECT ` + productColumns + ` FROM products WHERE id = ? AND category = ?`
	baseList       = `SELECT ` + productColumns + ` FROM products ORDER BY updated_at DESC`
	baseByCategory = `SELECT ` + productColumns + ` FROM products WHERE category = ? ORDER BY updated_at DESC`
	baseDelete     = `DELETE FROM products WHERE id = ? AND category = ?`
)

var mysqlDialect = sqlDialect{
	driver:     "mysql",
	schema:     mysqlSchema,
	insert:     baseInsert,
	upsert:     baseInsert + ` ON DUPLICATE KEY UPDATE name = VALUES(name), quantity = VALUES(quantity), price = VALUES(price), clearance = VALUES(clearance), updated_at = VALUES(updated_at)`,
	get:        baseGet,
	list:       baseList,
	byCategory: baseByCategory,
	delete:     baseDelete,
	isDuplicate: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == 1062
	},
}

var postgresDialect = sqlDialect{
	driver:     "postgres",
	schema:     postgresSchema,
	insert:     rebind(baseInsert),
	upsert:     rebind(baseInsert + ` ON CONFLICT (category, id) DO UPDATE SET name = EXCLUDED.name, quantity = EXCLUDED.quantity, price = EXCLUDED.price, clearance = EXCLUDED.clearance, updated_at = EXCLUDED.updated_at`),
	get:        rebind(baseGet),
	list:       baseList,
	byCategory: rebind(baseByCategory),
	delete:     rebind(baseDelete),
	isDuplicate: func(err error) bool {
		var pe *pq.Error
		return errors.As(err, &pe) && pe.Code == "23505"
	},
}

func dialectFor(driver string) (sqlDialect, error) {
	switch driver {
	case "mysql":
		return mysqlDialect, nil
	case "postgres":
		return postgresDialect, nil
	default:
		return sqlDialect{}, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

// normalizeDSN forces the driver options the adapter relies on. MySQL must
// scan DATETIME columns into time.Time.
func normalizeDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// rebind turns ? placeholders into $1, $2, ...
func rebind(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
