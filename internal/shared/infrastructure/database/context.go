package database

import "context"

type txKey struct{}

// TxInfo is the transaction carried in a context. Owned is false when the
// transaction was started by an outer unit of work.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx returns a context carrying tx.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxInfoFromContext returns the transaction stored in ctx, if any.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext prefers the transaction in ctx over the bare connection.
// Repositories must go through it: the sqlite pool holds a single connection
// and a query issued outside the open transaction would block.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if info, ok := TxInfoFromContext(ctx); ok {
		return info.Tx
	}
	return conn
}
