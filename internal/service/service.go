package service

import (
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-ledger/internal/storage"
)

// Service holds all business logic services.
type Service struct {
	Transaction *TransactionService
	Dashboard   *DashboardService
}

// NewService wires the services over one store. notifier and quotes may be
// nil.
func NewService(store *storage.Storage, operator ActionProcessor, notifier ChangeNotifier, quotes QuoteSource, logger *logrus.Logger) *Service {
	transactions := NewTransactionService(store, operator, notifier, logger)
	return &Service{
		Transaction: transactions,
		Dashboard:   NewDashboardService(transactions, quotes, logger),
	}
}
