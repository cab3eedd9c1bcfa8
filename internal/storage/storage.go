package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/carson-networks/finance-ledger/internal/config"
	"github.com/carson-networks/finance-ledger/internal/storage/memory"
	"github.com/carson-networks/finance-ledger/internal/storage/sqlconfig"
)

type Storage struct {
	DB           *sql.DB
	Transactions sqlconfig.ITransactionTable
}

// NewStorage opens the backend selected by env.StoreBackend.
func NewStorage(env *config.Config) (*Storage, error) {
	if env.StoreBackend == config.StoreBackendMemory {
		return NewMemoryStorage(), nil
	}

	db, err := sql.Open("postgres", env.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &Storage{
		DB:           db,
		Transactions: sqlconfig.NewTransactionsTable(db),
	}, nil
}

// NewMemoryStorage returns a Storage whose data lives only in this process.
func NewMemoryStorage() *Storage {
	return &Storage{
		Transactions: memory.NewTransactionsTable(),
	}
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
