package sqlconfig

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"
)

const transactionsTableName = "transactions"

var transactionColumns = []string{
	"id",
	"user_id",
	"description",
	"amount",
	"date",
	"category",
	"type",
	"status",
	"created_at",
}

var _ ITransactionTable = (*TransactionsTable)(nil)

// TransactionsTable provides access to the transactions table.
type TransactionsTable struct {
	exec bob.Executor
}

func NewTransactionsTable(db *sql.DB) *TransactionsTable {
	return &TransactionsTable{exec: bob.NewDB(db)}
}

type transactionRow struct {
	ID          uuid.UUID       `db:"id"`
	UserID      string          `db:"user_id"`
	Description string          `db:"description"`
	Amount      decimal.Decimal `db:"amount"`
	Date        time.Time       `db:"date"`
	Category    string          `db:"category"`
	Type        string          `db:"type"`
	Status      string          `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Insert creates a new transaction for the user and returns its generated ID.
func (t *TransactionsTable) Insert(ctx context.Context, userID string, create *TransactionCreate) (uuid.UUID, error) {
	q := psql.Insert(
		im.Into(transactionsTableName, "user_id", "description", "amount", "date", "category", "type", "status"),
		im.Values(
			psql.Arg(userID),
			psql.Arg(create.Description),
			psql.Arg(create.Amount),
			psql.Arg(create.Date),
			psql.Arg(create.Category),
			psql.Arg(create.Type),
			psql.Arg(create.Status),
		),
		im.Returning("id"),
	)

	id, err := bob.One(ctx, t.exec, q, scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

// List returns the user's transactions, latest date first. Rows sharing a
// date come back in the order they were created.
func (t *TransactionsTable) List(ctx context.Context, userID string) ([]*Transaction, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(quotedColumns()...),
		sm.From(transactionsTableName),
		sm.Where(psql.Quote("user_id").EQ(psql.Arg(userID))),
		sm.OrderBy(psql.Quote("date")).Desc(),
		sm.OrderBy(psql.Quote("created_at")).Asc(),
	}

	rows, err := bob.All(ctx, t.exec, psql.Select(queryMods...), scan.StructMapper[transactionRow]())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	result := make([]*Transaction, len(rows))
	for i := range rows {
		result[i] = rowToTransaction(&rows[i])
	}
	return result, nil
}

// Get returns one of the user's transactions, or ErrNotFound.
func (t *TransactionsTable) Get(ctx context.Context, userID string, id uuid.UUID) (*Transaction, error) {
	q := psql.Select(
		sm.Columns(quotedColumns()...),
		sm.From(transactionsTableName),
		sm.Where(psql.And(
			psql.Quote("id").EQ(psql.Arg(id)),
			psql.Quote("user_id").EQ(psql.Arg(userID)),
		)),
	)

	row, err := bob.One(ctx, t.exec, q, scan.StructMapper[transactionRow]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return rowToTransaction(&row), nil
}

// Update changes the supplied columns of one of the user's transactions.
// ErrNotFound is returned when no row matched.
func (t *TransactionsTable) Update(ctx context.Context, userID string, id uuid.UUID, update *TransactionUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	var queryMods []bob.Mod[*dialect.UpdateQuery]
	queryMods = append(queryMods, um.Table(transactionsTableName))
	if update.Description != nil {
		queryMods = append(queryMods, um.SetCol("description").ToArg(*update.Description))
	}
	if update.Amount != nil {
		queryMods = append(queryMods, um.SetCol("amount").ToArg(*update.Amount))
	}
	if update.Date != nil {
		queryMods = append(queryMods, um.SetCol("date").ToArg(*update.Date))
	}
	if update.Category != nil {
		queryMods = append(queryMods, um.SetCol("category").ToArg(*update.Category))
	}
	if update.Type != nil {
		queryMods = append(queryMods, um.SetCol("type").ToArg(*update.Type))
	}
	if update.Status != nil {
		queryMods = append(queryMods, um.SetCol("status").ToArg(*update.Status))
	}
	queryMods = append(queryMods,
		um.Where(psql.And(
			psql.Quote("id").EQ(psql.Arg(id)),
			psql.Quote("user_id").EQ(psql.Arg(userID)),
		)),
		um.Returning("id"),
	)

	updated, err := bob.All(ctx, t.exec, psql.Update(queryMods...), scan.SingleColumnMapper[uuid.UUID])
	if err != nil {
		return fmt.Errorf("update transaction %s: %w", id, err)
	}
	if len(updated) == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one of the user's transactions. Deleting a row that does not
// exist is not an error.
func (t *TransactionsTable) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	q := psql.Delete(
		dm.From(transactionsTableName),
		dm.Where(psql.And(
			psql.Quote("id").EQ(psql.Arg(id)),
			psql.Quote("user_id").EQ(psql.Arg(userID)),
		)),
	)

	if _, err := bob.Exec(ctx, t.exec, q); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func quotedColumns() []any {
	columns := make([]any, len(transactionColumns))
	for i, column := range transactionColumns {
		columns[i] = psql.Quote(column)
	}
	return columns
}

func rowToTransaction(row *transactionRow) *Transaction {
	return &Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Amount:      row.Amount,
		Date:        row.Date,
		Category:    row.Category,
		Type:        row.Type,
		Status:      row.Status,
		CreatedAt:   row.CreatedAt,
	}
}
