package sql

import (
	"embed"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*
var embeddedMigrations embed.FS

type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

func (d Dialect) driverName() string {
	return string(d)
}

// migrateDialect maps to the dialect names sql-migrate understands.
func (d Dialect) migrateDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return string(d)
}

func MySQLDSN(host, port, user, password, dbname, tls string) string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&tls=%s",
		user,
		password,
		host,
		port,
		dbname,
		tls,
	)
}

// New connects and, unless skipMigration is set, applies the embedded migrations.
func New(dialect Dialect, dsn string, skipMigration bool) (*sqlx.DB, error) {
	if dialect != MySQL && dialect != SQLite {
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}

	db, err := sqlx.Connect(dialect.driverName(), dsn)
	if err != nil {
		return nil, err
	}

	if dialect == SQLite {
		// Every connection to ":memory:" is its own database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxIdleConns(100)
		db.SetMaxOpenConns(100)
		db.SetConnMaxIdleTime(10 * time.Minute)
	}

	if !skipMigration {
		migrationSource := &migrate.EmbedFileSystemMigrationSource{FileSystem: embeddedMigrations, Root: "migrations"}
		_, err = migrate.Exec(db.DB, dialect.migrateDialect(), migrationSource, migrate.Up)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("applying migrations: %w", err)
		}
	}

	return db.Unsafe(), nil
}
