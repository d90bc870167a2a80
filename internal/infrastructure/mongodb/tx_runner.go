package mongodb

import (
	"context"

	driver "go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/inventory-ledger-service/pkg/mongodb"
)

// TxRunner runs application work inside one MongoDB multi-document
// transaction. The session context it passes down is what makes the
// repositories' reads and writes part of the same transaction.
type TxRunner struct {
	client *mongodb.Client
}

// NewTxRunner creates a transaction runner on the shared client
func NewTxRunner(client *mongodb.Client) *TxRunner {
	return &TxRunner{client: client}
}

// WithinTransaction executes fn inside a transaction, committing on nil and
// aborting on error
func (r *TxRunner) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.client.WithTransaction(ctx, func(sessCtx driver.SessionContext) error {
		return fn(sessCtx)
	})
}
