package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carson-networks/finance-ledger/internal/amqp"
	"github.com/carson-networks/finance-ledger/internal/ledger"
	"github.com/carson-networks/finance-ledger/internal/operator"
	"github.com/carson-networks/finance-ledger/internal/storage"
	"github.com/carson-networks/finance-ledger/internal/storage/sqlconfig"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) LedgerChanged(ctx context.Context, change amqp.LedgerChange) error {
	return m.Called(ctx, change).Error(0)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func startOperator(t *testing.T, store *storage.Storage) *operator.OperatorDelegator {
	t.Helper()
	op := operator.NewOperatorDelegator(store, 1)
	op.Start()
	t.Cleanup(op.Stop)
	return op
}

func newTestService(t *testing.T) (*TransactionService, *sqlconfig.MockITransactionTable, *mockNotifier) {
	t.Helper()
	mockTable := sqlconfig.NewMockITransactionTable(t)
	store := &storage.Storage{Transactions: mockTable}
	notifier := &mockNotifier{}
	t.Cleanup(func() { notifier.AssertExpectations(t) })
	svc := NewTransactionService(store, startOperator(t, store), notifier, quietLogger())
	return svc, mockTable, notifier
}

func newMemoryService(t *testing.T) *TransactionService {
	t.Helper()
	store := storage.NewMemoryStorage()
	return NewTransactionService(store, startOperator(t, store), nil, quietLogger())
}

func withLocal(t *testing.T, loc *time.Location) {
	t.Helper()
	previous := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = previous })
}

func contaDeLuz() ledger.NewTransaction {
	return ledger.NewTransaction{
		Description: "Conta de Luz",
		Amount:      decimal.RequireFromString("150"),
		Date:        civil.Date{Year: 2024, Month: time.May, Day: 10},
		Category:    "Moradia",
		Type:        ledger.TypeExpense,
		Status:      ledger.StatusPending,
	}
}

// -- Add tests --

func TestAdd_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.Add(context.Background(), "", contaDeLuz())

	assert.False(t, result.Success)
	assert.Equal(t, FailureUnauthenticated, result.Kind)
	assert.Equal(t, "Usuário não autenticado.", result.Message)
	assert.Equal(t, uuid.Nil, result.Data)
}

func TestAdd_AnchorsDateAtUTCMidnight(t *testing.T) {
	svc, mockTable, notifier := newTestService(t)
	withLocal(t, time.FixedZone("BRT", -3*60*60))
	expectedID := uuid.Must(uuid.NewV4())

	mockTable.EXPECT().Insert(mock.Anything, "user-1", mock.MatchedBy(func(c *sqlconfig.TransactionCreate) bool {
		return c.Date.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) &&
			c.Date.Location() == time.UTC &&
			c.Description == "Conta de Luz" &&
			c.Amount.Equal(decimal.NewFromInt(150)) &&
			c.Category == "Moradia" &&
			c.Type == "expense" &&
			c.Status == "Pending"
	})).Return(expectedID, nil)
	notifier.On("LedgerChanged", mock.Anything, mock.MatchedBy(func(c amqp.LedgerChange) bool {
		return c.UserID == "user-1" && c.Action == amqp.ActionCreated && c.TransactionID == expectedID.String()
	})).Return(nil)

	result := svc.Add(context.Background(), "user-1", contaDeLuz())

	assert.True(t, result.Success)
	assert.Equal(t, "Transação adicionada com sucesso!", result.Message)
	assert.Equal(t, expectedID, result.Data)
}

func TestAdd_StorageError(t *testing.T) {
	svc, mockTable, _ := newTestService(t)

	mockTable.EXPECT().Insert(mock.Anything, "user-1", mock.Anything).
		Return(uuid.Nil, errors.New("connection refused"))

	result := svc.Add(context.Background(), "user-1", contaDeLuz())

	assert.False(t, result.Success)
	assert.Equal(t, FailureStore, result.Kind)
	assert.Equal(t, "Erro ao adicionar transação.", result.Message)
}

func TestAdd_NotificationFailureIsIgnored(t *testing.T) {
	svc, mockTable, notifier := newTestService(t)
	expectedID := uuid.Must(uuid.NewV4())

	mockTable.EXPECT().Insert(mock.Anything, "user-1", mock.Anything).Return(expectedID, nil)
	notifier.On("LedgerChanged", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	result := svc.Add(context.Background(), "user-1", contaDeLuz())

	assert.True(t, result.Success)
	assert.Equal(t, expectedID, result.Data)
}

// -- List tests --

func TestList_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.List(context.Background(), "")

	assert.Equal(t, FailureUnauthenticated, result.Kind)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}

func TestList_RecoversUTCDateFromAnyZone(t *testing.T) {
	svc, mockTable, _ := newTestService(t)
	withLocal(t, time.FixedZone("HST", -10*60*60))

	stored := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC).In(time.FixedZone("BRT", -3*60*60))
	rows := []*sqlconfig.Transaction{{
		ID:          uuid.Must(uuid.NewV4()),
		UserID:      "user-1",
		Description: "Conta de Luz",
		Amount:      decimal.RequireFromString("150"),
		Date:        stored,
		Category:    "Moradia",
		Type:        "expense",
		Status:      "Pending",
	}}
	mockTable.EXPECT().List(mock.Anything, "user-1").Return(rows, nil)

	result := svc.List(context.Background(), "user-1")

	assert.True(t, result.Success)
	assert.Len(t, result.Data, 1)
	tx := result.Data[0]
	assert.Equal(t, rows[0].ID, tx.ID)
	assert.Equal(t, "2024-05-10", tx.Date.String())
	assert.Equal(t, ledger.Category("Moradia"), tx.Category)
	assert.Equal(t, ledger.TypeExpense, tx.Type)
	assert.Equal(t, ledger.StatusPending, tx.Status)
}

func TestList_StorageError(t *testing.T) {
	svc, mockTable, _ := newTestService(t)

	mockTable.EXPECT().List(mock.Anything, "user-1").Return(nil, errors.New("database unavailable"))

	result := svc.List(context.Background(), "user-1")

	assert.False(t, result.Success)
	assert.Equal(t, FailureStore, result.Kind)
	assert.Equal(t, "Erro ao buscar transações.", result.Message)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
}

// -- Update tests --

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.Update(context.Background(), "user-1", uuid.Must(uuid.NewV4()).String(), ledger.Patch{})

	assert.True(t, result.Success)
	assert.Equal(t, "Transação atualizada com sucesso!", result.Message)
}

func TestUpdate_ReanchorsDate(t *testing.T) {
	svc, mockTable, notifier := newTestService(t)
	id := uuid.Must(uuid.NewV4())
	date := civil.Date{Year: 2024, Month: time.December, Day: 31}

	mockTable.EXPECT().Update(mock.Anything, "user-1", id, mock.MatchedBy(func(u *sqlconfig.TransactionUpdate) bool {
		return u.Date != nil &&
			u.Date.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) &&
			u.Description == nil && u.Amount == nil && u.Status == nil
	})).Return(nil)
	notifier.On("LedgerChanged", mock.Anything, mock.Anything).Return(nil)

	result := svc.Update(context.Background(), "user-1", id.String(), ledger.Patch{Date: &date})

	assert.True(t, result.Success)
}

func TestUpdate_MissingDocument(t *testing.T) {
	svc, mockTable, _ := newTestService(t)
	id := uuid.Must(uuid.NewV4())
	paid := ledger.StatusPaid

	mockTable.EXPECT().Update(mock.Anything, "user-1", id, mock.Anything).Return(sqlconfig.ErrNotFound)

	result := svc.Update(context.Background(), "user-1", id.String(), ledger.Patch{Status: &paid})

	assert.False(t, result.Success)
	assert.Equal(t, FailureStore, result.Kind)
	assert.Equal(t, "Erro ao atualizar transação.", result.Message)
}

func TestUpdate_TypeAloneChecksStoredCategory(t *testing.T) {
	svc, mockTable, _ := newTestService(t)
	id := uuid.Must(uuid.NewV4())
	revenue := ledger.TypeRevenue

	mockTable.EXPECT().Get(mock.Anything, "user-1", id).Return(&sqlconfig.Transaction{
		ID:       id,
		UserID:   "user-1",
		Category: "Moradia",
		Type:     "expense",
	}, nil)

	result := svc.Update(context.Background(), "user-1", id.String(), ledger.Patch{Type: &revenue})

	assert.False(t, result.Success)
	assert.Equal(t, FailureValidation, result.Kind)
	assert.Equal(t, ledger.CategoryMismatchErrors(), result.Errors)
	mockTable.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_TypeAloneOnMissingRow(t *testing.T) {
	svc, mockTable, _ := newTestService(t)
	id := uuid.Must(uuid.NewV4())
	revenue := ledger.TypeRevenue

	mockTable.EXPECT().Get(mock.Anything, "user-1", id).Return(nil, sqlconfig.ErrNotFound)

	result := svc.Update(context.Background(), "user-1", id.String(), ledger.Patch{Type: &revenue})

	assert.Equal(t, FailureStore, result.Kind)
	assert.Equal(t, MessageUpdateFailed, result.Message)
}

func TestUpdate_MalformedIDNeverReachesStore(t *testing.T) {
	svc, _, _ := newTestService(t)
	paid := ledger.StatusPaid

	result := svc.Update(context.Background(), "user-1", "nonexistent-id", ledger.Patch{Status: &paid})

	assert.False(t, result.Success)
	assert.Equal(t, FailureStore, result.Kind)
}

func TestUpdate_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)
	paid := ledger.StatusPaid

	result := svc.Update(context.Background(), "", uuid.Must(uuid.NewV4()).String(), ledger.Patch{Status: &paid})

	assert.Equal(t, FailureUnauthenticated, result.Kind)
	assert.Equal(t, "Usuário não autenticado.", result.Message)
}

// -- Remove tests --

func TestRemove_NonexistentIDSucceeds(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.Remove(context.Background(), "user-1", "nonexistent-id")

	assert.True(t, result.Success)
	assert.Equal(t, "Transação excluída com sucesso!", result.Message)
}

func TestRemove_StorageError(t *testing.T) {
	svc, mockTable, _ := newTestService(t)
	id := uuid.Must(uuid.NewV4())

	mockTable.EXPECT().Delete(mock.Anything, "user-1", id).Return(errors.New("timeout"))

	result := svc.Remove(context.Background(), "user-1", id.String())

	assert.False(t, result.Success)
	assert.Equal(t, "Erro ao excluir transação.", result.Message)
}

func TestRemove_Unauthenticated(t *testing.T) {
	svc, _, _ := newTestService(t)

	result := svc.Remove(context.Background(), "", "anything")

	assert.Equal(t, FailureUnauthenticated, result.Kind)
}

// -- Scenarios against the in-memory store --

func TestScenario_AddThenListInNonUTCLocal(t *testing.T) {
	withLocal(t, time.FixedZone("BRT", -3*60*60))
	svc := newMemoryService(t)
	ctx := context.Background()

	added := svc.Add(ctx, "user-1", contaDeLuz())
	assert.True(t, added.Success)

	listed := svc.List(ctx, "user-1")

	assert.True(t, listed.Success)
	assert.Len(t, listed.Data, 1)
	tx := listed.Data[0]
	assert.Equal(t, added.Data, tx.ID)
	assert.Equal(t, "Conta de Luz", tx.Description)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "2024-05-10", tx.Date.String())
	assert.Equal(t, ledger.Category("Moradia"), tx.Category)
	assert.Equal(t, ledger.TypeExpense, tx.Type)
	assert.Equal(t, ledger.StatusPending, tx.Status)
}

func TestScenario_ListOrderedByDateDesc(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	for _, d := range []int{3, 20, 10} {
		tx := contaDeLuz()
		tx.Date = civil.Date{Year: 2024, Month: time.May, Day: d}
		assert.True(t, svc.Add(ctx, "user-1", tx).Success)
	}

	listed := svc.List(ctx, "user-1")

	dates := make([]string, len(listed.Data))
	for i, tx := range listed.Data {
		dates[i] = tx.Date.String()
	}
	assert.Equal(t, []string{"2024-05-20", "2024-05-10", "2024-05-03"}, dates)
}

func TestScenario_RemoveIsIdempotent(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	added := svc.Add(ctx, "user-1", contaDeLuz())

	first := svc.Remove(ctx, "user-1", "nonexistent-id")
	assert.True(t, first.Success)

	assert.True(t, svc.Remove(ctx, "user-1", added.Data.String()).Success)
	assert.True(t, svc.Remove(ctx, "user-1", added.Data.String()).Success)
	assert.Empty(t, svc.List(ctx, "user-1").Data)
}

func TestScenario_StatusUpdateKeepsOtherFields(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	added := svc.Add(ctx, "user-1", contaDeLuz())
	paid := ledger.StatusPaid

	updated := svc.Update(ctx, "user-1", added.Data.String(), ledger.Patch{Status: &paid})
	assert.True(t, updated.Success)

	tx := svc.List(ctx, "user-1").Data[0]
	assert.Equal(t, ledger.StatusPaid, tx.Status)
	assert.Equal(t, "Conta de Luz", tx.Description)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, "2024-05-10", tx.Date.String())
	assert.Equal(t, ledger.Category("Moradia"), tx.Category)
	assert.Equal(t, ledger.TypeExpense, tx.Type)
}

func TestScenario_TypeAloneCannotOrphanCategory(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	added := svc.Add(ctx, "user-1", contaDeLuz())
	revenue := ledger.TypeRevenue

	updated := svc.Update(ctx, "user-1", added.Data.String(), ledger.Patch{Type: &revenue})

	assert.False(t, updated.Success)
	assert.Equal(t, FailureValidation, updated.Kind)
	assert.Contains(t, updated.Errors, "category")
	tx := svc.List(ctx, "user-1").Data[0]
	assert.Equal(t, ledger.TypeExpense, tx.Type)
	assert.Equal(t, ledger.Category("Moradia"), tx.Category)
}

func TestScenario_CategoryAloneMustFitStoredType(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	added := svc.Add(ctx, "user-1", contaDeLuz())
	salario := ledger.Category("Salário")

	updated := svc.Update(ctx, "user-1", added.Data.String(), ledger.Patch{Category: &salario})

	assert.False(t, updated.Success)
	assert.Equal(t, FailureValidation, updated.Kind)
	assert.Equal(t, ledger.Category("Moradia"), svc.List(ctx, "user-1").Data[0].Category)

	saude := ledger.Category("Saúde")
	assert.True(t, svc.Update(ctx, "user-1", added.Data.String(), ledger.Patch{Category: &saude}).Success)
	assert.Equal(t, saude, svc.List(ctx, "user-1").Data[0].Category)
}

func TestScenario_TypeAloneKeepsSharedCategory(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	tx := contaDeLuz()
	tx.Category = "Outros"
	added := svc.Add(ctx, "user-1", tx)
	revenue := ledger.TypeRevenue

	assert.True(t, svc.Update(ctx, "user-1", added.Data.String(), ledger.Patch{Type: &revenue}).Success)

	stored := svc.List(ctx, "user-1").Data[0]
	assert.Equal(t, ledger.TypeRevenue, stored.Type)
	assert.Equal(t, ledger.Category("Outros"), stored.Category)
}

func TestScenario_UsersDoNotSeeEachOther(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()
	added := svc.Add(ctx, "alice", contaDeLuz())
	paid := ledger.StatusPaid

	assert.Empty(t, svc.List(ctx, "bob").Data)
	assert.False(t, svc.Update(ctx, "bob", added.Data.String(), ledger.Patch{Status: &paid}).Success)
	assert.True(t, svc.Remove(ctx, "bob", added.Data.String()).Success)
	assert.Len(t, svc.List(ctx, "alice").Data, 1)
}
