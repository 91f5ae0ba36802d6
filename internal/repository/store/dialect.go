package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	// Registered SQL drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect hides the differences between the supported SQL engines.
type Dialect interface {
	// DriverName is the database/sql driver name.
	DriverName() string
	// RewriteQuery converts "?" placeholders when the engine needs another syntax.
	RewriteQuery(query string) string
	// ConfigureConnection applies engine-specific pool settings.
	ConfigureConnection(db *sql.DB) error
}

// DialectFor returns the dialect of a store driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3":
		return sqliteDialect{}, nil
	case DriverPostgres, "postgresql":
		return postgresDialect{}, nil
	case DriverMySQL:
		return mysqlDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string {
	return "sqlite"
}

func (sqliteDialect) RewriteQuery(query string) string {
	return query
}

// ConfigureConnection pins a single connection so ":memory:" databases are shared.
func (sqliteDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}

	return nil
}

type postgresDialect struct{}

func (postgresDialect) DriverName() string {
	return "postgres"
}

func (postgresDialect) RewriteQuery(query string) string {
	return numberPlaceholders(query)
}

func (postgresDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)

	return nil
}

type mysqlDialect struct{}

func (mysqlDialect) DriverName() string {
	return "mysql"
}

func (mysqlDialect) RewriteQuery(query string) string {
	return query
}

func (mysqlDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)

	return nil
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

// numberPlaceholders converts "?" placeholders to "$1", "$2" and so on.
// Queries in this package never carry a literal "?".
func numberPlaceholders(query string) string {
	var (
		b       strings.Builder
		counter int
	)

	b.Grow(len(query) + 8)

	for _, r := range query {
		if r != '?' {
			b.WriteRune(r)

			continue
		}

		counter++

		b.WriteByte('$')
		b.WriteString(strconv.Itoa(counter))
	}

	return b.String()
}
