package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes fn within a database transaction, passing the
// underlying handle via tx. Repositories that accept a Tx detect it and use
// tx-bound Exec/Query (and SELECT ... FOR UPDATE) when present; nil means the
// non-transactional path.
//
// Backends without transactions (memory) run fn directly with a nil tx.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
