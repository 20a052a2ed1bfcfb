package store

import "context"

// RunWithRequestID wraps ctx with a request id and calls fn inside the provided TxRunner
func RunWithRequestID(ctx context.Context, tx TxRunner, reqID string, fn func(ctx context.Context, q RowQuerier) error) error {
	ctx = WithRequestID(ctx, reqID)
	return tx.Tx(ctx, func(q RowQuerier) error {
		return fn(ctx, q)
	})
}
