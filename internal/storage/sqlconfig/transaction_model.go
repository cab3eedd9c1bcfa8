package sqlconfig

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Get and Update when the user has no transaction
// with the given id.
var ErrNotFound = errors.New("transaction not found")

// Transaction represents a transaction record.
type Transaction struct {
	ID          uuid.UUID
	UserID      string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Type        string
	Status      string
	CreatedAt   time.Time
}

// TransactionCreate is the input for creating a new transaction.
type TransactionCreate struct {
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	Category    string
	Type        string
	Status      string
}

// TransactionUpdate holds the columns to change. Nil fields are left as they are.
type TransactionUpdate struct {
	Description *string
	Amount      *decimal.Decimal
	Date        *time.Time
	Category    *string
	Type        *string
	Status      *string
}

// IsEmpty reports whether the update touches no column.
func (u *TransactionUpdate) IsEmpty() bool {
	return u == nil || (u.Description == nil &&
		u.Amount == nil &&
		u.Date == nil &&
		u.Category == nil &&
		u.Type == nil &&
		u.Status == nil)
}

// ITransactionTable defines the interface for transaction storage operations.
// Every call is scoped to one user; rows of other users are never visible.
//
//go:generate mockery --name ITransactionTable --inpackage --with-expecter --output . --filename mock_ITransactionTable.go
type ITransactionTable interface {
	Insert(ctx context.Context, userID string, create *TransactionCreate) (uuid.UUID, error)
	List(ctx context.Context, userID string) ([]*Transaction, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error)
	Update(ctx context.Context, userID string, id uuid.UUID, update *TransactionUpdate) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
