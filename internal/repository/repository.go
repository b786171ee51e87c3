// Пакет repository: слой доступа к PostgreSQL. Чистый SQL через
// pgx, без ORM.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound возвращается, если запись не найдена.
var ErrNotFound = errors.New("record not found")

// DBTX реализуют *pgxpool.Pool и pgx.Tx, поэтому репозитории работают
// как в транзакции, так и вне её.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
