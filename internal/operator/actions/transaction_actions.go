package actions

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-ledger/internal/ledger"
	"github.com/carson-networks/finance-ledger/internal/storage"
	"github.com/carson-networks/finance-ledger/internal/storage/sqlconfig"
)

// AddTransaction inserts a row into the user's partition. CreatedID holds the
// new id once Perform succeeds.
type AddTransaction struct {
	UserID string
	Create sqlconfig.TransactionCreate

	CreatedID uuid.UUID
}

func (a *AddTransaction) Perform(ctx context.Context, store *storage.Storage) error {
	id, err := store.Transactions.Insert(ctx, a.UserID, &a.Create)
	if err != nil {
		return err
	}

	a.CreatedID = id
	return nil
}

// UpdateTransaction changes the supplied columns of one row. When the update
// sets only one of type and category, the other comes from the stored row and
// the pair must still match, otherwise ledger.ErrCategoryMismatch is returned
// and nothing is written.
type UpdateTransaction struct {
	UserID string
	ID     uuid.UUID
	Update sqlconfig.TransactionUpdate
}

func (u *UpdateTransaction) Perform(ctx context.Context, store *storage.Storage) error {
	if err := u.checkCategory(ctx, store); err != nil {
		return err
	}
	return store.Transactions.Update(ctx, u.UserID, u.ID, &u.Update)
}

func (u *UpdateTransaction) checkCategory(ctx context.Context, store *storage.Storage) error {
	if u.Update.Type == nil && u.Update.Category == nil {
		return nil
	}

	var txType, category string
	if u.Update.Type == nil || u.Update.Category == nil {
		current, err := store.Transactions.Get(ctx, u.UserID, u.ID)
		if err != nil {
			return err
		}
		txType, category = current.Type, current.Category
	}
	if u.Update.Type != nil {
		txType = *u.Update.Type
	}
	if u.Update.Category != nil {
		category = *u.Update.Category
	}

	if !ledger.CategoryAllowed(ledger.Type(txType), ledger.Category(category)) {
		return ledger.ErrCategoryMismatch
	}
	return nil
}

type DeleteTransaction struct {
	UserID string
	ID     uuid.UUID
}

func (d *DeleteTransaction) Perform(ctx context.Context, store *storage.Storage) error {
	return store.Transactions.Delete(ctx, d.UserID, d.ID)
}
