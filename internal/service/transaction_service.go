package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/finance-ledger/internal/amqp"
	"github.com/carson-networks/finance-ledger/internal/ledger"
	"github.com/carson-networks/finance-ledger/internal/operator/actions"
	"github.com/carson-networks/finance-ledger/internal/storage"
	"github.com/carson-networks/finance-ledger/internal/storage/sqlconfig"
)

// ActionProcessor runs a mutation against the store, typically through the
// operator queue.
type ActionProcessor interface {
	Process(ctx context.Context, action actions.IAction) error
}

// ChangeNotifier is told about every successful mutation.
type ChangeNotifier interface {
	LedgerChanged(ctx context.Context, change amqp.LedgerChange) error
}

// TransactionService is the per-user transaction repository. Calendar dates
// are stored as midnight UTC and read back by their UTC date.
type TransactionService struct {
	storage  *storage.Storage
	operator ActionProcessor
	notifier ChangeNotifier
	logger   *logrus.Logger
}

func NewTransactionService(store *storage.Storage, operator ActionProcessor, notifier ChangeNotifier, logger *logrus.Logger) *TransactionService {
	if notifier == nil {
		notifier = amqp.NoopNotifier{}
	}
	return &TransactionService{
		storage:  store,
		operator: operator,
		notifier: notifier,
		logger:   logger,
	}
}

// Add stores tx in the user's partition and returns its new id.
func (s *TransactionService) Add(ctx context.Context, userID string, tx ledger.NewTransaction) Result[uuid.UUID] {
	if userID == "" {
		return failed[uuid.UUID](FailureUnauthenticated, MessageUnauthenticated)
	}

	action := &actions.AddTransaction{
		UserID: userID,
		Create: sqlconfig.TransactionCreate{
			Description: tx.Description,
			Amount:      tx.Amount,
			Date:        ledger.AnchorDate(tx.Date),
			Category:    string(tx.Category),
			Type:        string(tx.Type),
			Status:      string(tx.Status),
		},
	}
	if err := s.operator.Process(ctx, action); err != nil {
		s.logger.WithError(err).WithField("userId", userID).Error("TransactionService.Add.store")
		return failed[uuid.UUID](FailureStore, MessageAddFailed)
	}

	s.notify(ctx, userID, amqp.ActionCreated, action.CreatedID.String())
	return succeeded(MessageAdded, action.CreatedID)
}

// List returns the user's transactions, latest date first.
func (s *TransactionService) List(ctx context.Context, userID string) Result[[]ledger.Transaction] {
	if userID == "" {
		r := failed[[]ledger.Transaction](FailureUnauthenticated, MessageUnauthenticated)
		r.Data = []ledger.Transaction{}
		return r
	}

	rows, err := s.storage.Transactions.List(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("userId", userID).Error("TransactionService.List.store")
		r := failed[[]ledger.Transaction](FailureStore, MessageListFailed)
		r.Data = []ledger.Transaction{}
		return r
	}

	list := make([]ledger.Transaction, len(rows))
	for i, row := range rows {
		list[i] = recordToTransaction(row)
	}
	return succeeded(MessageListed, list)
}

// Update applies the supplied fields of patch to one of the user's
// transactions. An empty patch succeeds without touching the store. A patch
// that changes type or category alone is checked against the stored row and
// fails with FailureValidation when the resulting pair does not match.
func (s *TransactionService) Update(ctx context.Context, userID string, id string, patch ledger.Patch) Result[struct{}] {
	if userID == "" {
		return failed[struct{}](FailureUnauthenticated, MessageUnauthenticated)
	}
	if patch.IsEmpty() {
		return succeeded(MessageUpdated, struct{}{})
	}

	logger := s.logger.WithFields(logrus.Fields{"userId": userID, "transactionId": id})

	txID, err := uuid.FromString(id)
	if err != nil {
		// No stored row can carry an id that is not a UUID.
		logger.WithError(sqlconfig.ErrNotFound).Warn("TransactionService.Update.id")
		return failed[struct{}](FailureStore, MessageUpdateFailed)
	}

	action := &actions.UpdateTransaction{
		UserID: userID,
		ID:     txID,
		Update: patchToUpdate(patch),
	}
	err = s.operator.Process(ctx, action)
	if errors.Is(err, ledger.ErrCategoryMismatch) {
		logger.WithError(err).Info("TransactionService.Update.category")
		r := failed[struct{}](FailureValidation, MessageUpdateFailed)
		r.Errors = ledger.CategoryMismatchErrors()
		return r
	}
	if err != nil {
		logger.WithError(err).Error("TransactionService.Update.store")
		return failed[struct{}](FailureStore, MessageUpdateFailed)
	}

	s.notify(ctx, userID, amqp.ActionUpdated, txID.String())
	return succeeded(MessageUpdated, struct{}{})
}

// Remove deletes one of the user's transactions. Removing an id that does not
// exist succeeds.
func (s *TransactionService) Remove(ctx context.Context, userID string, id string) Result[struct{}] {
	if userID == "" {
		return failed[struct{}](FailureUnauthenticated, MessageUnauthenticated)
	}

	txID, err := uuid.FromString(id)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"userId": userID, "transactionId": id}).Info("TransactionService.Remove.unknownId")
		return succeeded(MessageRemoved, struct{}{})
	}

	action := &actions.DeleteTransaction{UserID: userID, ID: txID}
	if err := s.operator.Process(ctx, action); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"userId": userID, "transactionId": id}).Error("TransactionService.Remove.store")
		return failed[struct{}](FailureStore, MessageRemoveFailed)
	}

	s.notify(ctx, userID, amqp.ActionDeleted, txID.String())
	return succeeded(MessageRemoved, struct{}{})
}

func (s *TransactionService) notify(ctx context.Context, userID string, action amqp.Action, transactionID string) {
	err := s.notifier.LedgerChanged(ctx, amqp.NewLedgerChange(userID, action, transactionID))
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"userId":        userID,
			"action":        action,
			"transactionId": transactionID,
		}).Warn("TransactionService.notify")
	}
}

func recordToTransaction(row *sqlconfig.Transaction) ledger.Transaction {
	return ledger.Transaction{
		ID:          row.ID,
		Description: row.Description,
		Amount:      row.Amount,
		Date:        ledger.DateFromTimestamp(row.Date),
		Category:    ledger.Category(row.Category),
		Type:        ledger.Type(row.Type),
		Status:      ledger.Status(row.Status),
	}
}

func patchToUpdate(patch ledger.Patch) sqlconfig.TransactionUpdate {
	var update sqlconfig.TransactionUpdate
	update.Description = patch.Description
	update.Amount = patch.Amount
	if patch.Date != nil {
		anchored := ledger.AnchorDate(*patch.Date)
		update.Date = &anchored
	}
	if patch.Category != nil {
		category := string(*patch.Category)
		update.Category = &category
	}
	if patch.Type != nil {
		t := string(*patch.Type)
		update.Type = &t
	}
	if patch.Status != nil {
		status := string(*patch.Status)
		update.Status = &status
	}
	return update
}
