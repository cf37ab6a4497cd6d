package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// inTx ejecuta fn dentro de una transacción y hace Commit o Rollback.
// Las inserciones múltiples de filas hijas quedan todas o ninguna.
func inTx(ctx context.Context, q Querier, fn func(tx pgx.Tx) error) error {
	tx, err := q.Begin(ctx)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// execBatch encola las sentencias en un solo viaje y devuelve el primer error.
func execBatch(ctx context.Context, tx pgx.Tx, op string, batch *pgx.Batch) error {
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return classify(op, err)
		}
	}
	return classify(op, br.Close())
}
