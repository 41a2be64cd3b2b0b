package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx satisfies pgx.Tx for tests that only need a value in context.
type fakeTx struct{}

func (*fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (*fakeTx) Commit(ctx context.Context) error { return nil }
func (*fakeTx) Rollback(ctx context.Context) error { return nil }
func (*fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (*fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (*fakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }
func (*fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (*fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (*fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (*fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (*fakeTx) Conn() *pgx.Conn { return nil }
