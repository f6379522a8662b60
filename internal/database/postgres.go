package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/hyperjump/ragsearch/internal/tabular"
)

var postgresDialect = dialect{
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	columnType: func(t tabular.ColumnType) string {
		switch t {
		case tabular.TypeInteger:
			return "BIGINT"
		case tabular.TypeFloat:
			return "DOUBLE PRECISION"
		case tabular.TypeBoolean:
			return "BOOLEAN"
		default:
			return "TEXT"
		}
	},
	columnsSQL: func(name string) (string, []any) {
		return `SELECT column_name AS name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
			ORDER BY ordinal_position`, []any{name}
	},
}

// NewPostgres connects to a PostgreSQL server through the pgx database/sql driver.
func NewPostgres(ctx context.Context, dsn string) (Querier, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &sqlStore{db: db, dialect: postgresDialect}, nil
}
