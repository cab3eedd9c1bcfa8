package actions

import (
	"context"

	"github.com/carson-networks/finance-ledger/internal/storage"
)

// IAction is a single mutation run by an Operator against the store.
type IAction interface {
	Perform(ctx context.Context, store *storage.Storage) error
}
