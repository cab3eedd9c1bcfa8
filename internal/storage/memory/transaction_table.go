package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-ledger/internal/storage/sqlconfig"
)

var _ sqlconfig.ITransactionTable = (*TransactionsTable)(nil)

type entry struct {
	seq    uint64
	record sqlconfig.Transaction
}

// TransactionsTable keeps transactions in process memory, partitioned by user.
// Rows sharing a date are listed in insertion order.
type TransactionsTable struct {
	mu    sync.RWMutex
	seq   uint64
	users map[string]map[uuid.UUID]*entry
	now   func() time.Time
}

func NewTransactionsTable() *TransactionsTable {
	return &TransactionsTable{
		users: make(map[string]map[uuid.UUID]*entry),
		now:   time.Now,
	}
}

func (t *TransactionsTable) Insert(ctx context.Context, userID string, create *sqlconfig.TransactionCreate) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate id: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	partition, ok := t.users[userID]
	if !ok {
		partition = make(map[uuid.UUID]*entry)
		t.users[userID] = partition
	}

	t.seq++
	partition[id] = &entry{
		seq: t.seq,
		record: sqlconfig.Transaction{
			ID:          id,
			UserID:      userID,
			Description: create.Description,
			Amount:      create.Amount,
			Date:        create.Date,
			Category:    create.Category,
			Type:        create.Type,
			Status:      create.Status,
			CreatedAt:   t.now(),
		},
	}
	return id, nil
}

func (t *TransactionsTable) List(ctx context.Context, userID string) ([]*sqlconfig.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	entries := make([]*entry, 0, len(t.users[userID]))
	for _, e := range t.users[userID] {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].record.Date, entries[j].record.Date
		if !a.Equal(b) {
			return a.After(b)
		}
		return entries[i].seq < entries[j].seq
	})

	result := make([]*sqlconfig.Transaction, len(entries))
	for i, e := range entries {
		record := e.record
		result[i] = &record
	}
	return result, nil
}

func (t *TransactionsTable) Get(ctx context.Context, userID string, id uuid.UUID) (*sqlconfig.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.users[userID][id]
	if !ok {
		return nil, sqlconfig.ErrNotFound
	}
	record := e.record
	return &record, nil
}

func (t *TransactionsTable) Update(ctx context.Context, userID string, id uuid.UUID, update *sqlconfig.TransactionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.users[userID][id]
	if !ok {
		return sqlconfig.ErrNotFound
	}
	if update.IsEmpty() {
		return nil
	}

	if update.Description != nil {
		e.record.Description = *update.Description
	}
	if update.Amount != nil {
		e.record.Amount = *update.Amount
	}
	if update.Date != nil {
		e.record.Date = *update.Date
	}
	if update.Category != nil {
		e.record.Category = *update.Category
	}
	if update.Type != nil {
		e.record.Type = *update.Type
	}
	if update.Status != nil {
		e.record.Status = *update.Status
	}
	return nil
}

func (t *TransactionsTable) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.users[userID], id)
	return nil
}
