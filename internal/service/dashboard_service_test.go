package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carson-networks/finance-ledger/internal/ledger"
)

type stubQuotes struct {
	dollar      decimal.Decimal
	ibovespa    decimal.Decimal
	dollarErr   error
	ibovespaErr error
	calls       atomic.Int32
}

func (s *stubQuotes) DollarQuote(ctx context.Context) (decimal.Decimal, error) {
	s.calls.Add(1)
	return s.dollar, s.dollarErr
}

func (s *stubQuotes) IbovespaQuote(ctx context.Context) (decimal.Decimal, error) {
	s.calls.Add(1)
	return s.ibovespa, s.ibovespaErr
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time {
	return c.t
}

func newDashboardTest(t *testing.T, quotes QuoteSource) (*DashboardService, *TransactionService, *clock) {
	t.Helper()
	transactions := newMemoryService(t)
	c := &clock{t: time.Date(2024, 5, 10, 9, 30, 0, 0, time.Local)}
	return NewDashboardServiceWithClock(transactions, quotes, quietLogger(), c.now), transactions, c
}

func seed(t *testing.T, svc *TransactionService, userID string, txs ...ledger.NewTransaction) {
	t.Helper()
	for _, tx := range txs {
		assert.True(t, svc.Add(context.Background(), userID, tx).Success)
	}
}

func newTx(description, amount string, day int, category string, typ ledger.Type, status ledger.Status) ledger.NewTransaction {
	return ledger.NewTransaction{
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Date:        civil.Date{Year: 2024, Month: time.May, Day: day},
		Category:    ledger.Category(category),
		Type:        typ,
		Status:      status,
	}
}

func TestDashboard_Summary(t *testing.T) {
	quotes := &stubQuotes{dollar: decimal.RequireFromString("5.1234"), ibovespa: decimal.RequireFromString("128000")}
	dash, transactions, _ := newDashboardTest(t, quotes)
	seed(t, transactions, "user-1",
		newTx("Salário", "5000", 5, "Salário", ledger.TypeRevenue, ledger.StatusPaid),
		newTx("Aluguel", "100", 1, "Moradia", ledger.TypeExpense, ledger.StatusPending),
		newTx("Condomínio", "50", 2, "Moradia", ledger.TypeExpense, ledger.StatusPaid),
		newTx("Ônibus", "30", 12, "Transporte", ledger.TypeExpense, ledger.StatusPending),
	)

	result := dash.Dashboard(context.Background(), "user-1")

	assert.True(t, result.Success)
	d := result.Data
	assert.Equal(t, "2024-05-10", d.Today.String())
	assert.True(t, d.Balance.Equal(decimal.NewFromInt(4820)))
	assert.True(t, d.TotalRevenue.Equal(decimal.NewFromInt(5000)))
	assert.True(t, d.TotalExpense.Equal(decimal.NewFromInt(180)))
	assert.Len(t, d.Breakdown, 2)
	assert.Len(t, d.Alerts, 2)
	assert.Equal(t, -9, d.Alerts[0].DaysUntilDue)
	assert.Equal(t, 2, d.Alerts[1].DaysUntilDue)
	assert.Equal(t, "5.12", d.Dollar.String())
	assert.Equal(t, "128000.00", d.Ibovespa.String())
}

func TestDashboard_UnavailableQuoteDegradesToNA(t *testing.T) {
	quotes := &stubQuotes{dollar: decimal.RequireFromString("5.00"), ibovespaErr: errors.New("upstream 503")}
	dash, _, _ := newDashboardTest(t, quotes)

	result := dash.Dashboard(context.Background(), "user-1")

	assert.True(t, result.Success)
	assert.Equal(t, "5.00", result.Data.Dollar.String())
	assert.False(t, result.Data.Ibovespa.Available)
	assert.Equal(t, "N/A", result.Data.Ibovespa.String())
}

func TestDashboard_NoQuoteSource(t *testing.T) {
	dash, _, _ := newDashboardTest(t, nil)

	result := dash.Dashboard(context.Background(), "user-1")

	assert.True(t, result.Success)
	assert.Equal(t, "N/A", result.Data.Dollar.String())
	assert.Equal(t, "N/A", result.Data.Ibovespa.String())
	assert.True(t, result.Data.Balance.IsZero())
	assert.Empty(t, result.Data.Alerts)
}

func TestDashboard_QuotesCachedForTenMinutes(t *testing.T) {
	quotes := &stubQuotes{dollar: decimal.NewFromInt(5), ibovespa: decimal.NewFromInt(1)}
	dash, _, c := newDashboardTest(t, quotes)
	ctx := context.Background()

	dash.Dashboard(ctx, "user-1")
	dash.Dashboard(ctx, "user-1")
	assert.Equal(t, int32(2), quotes.calls.Load())

	c.t = c.t.Add(QuoteTTL)
	dash.Dashboard(ctx, "user-1")
	assert.Equal(t, int32(4), quotes.calls.Load())
}

func TestDashboard_FailedQuoteIsNotCached(t *testing.T) {
	quotes := &stubQuotes{dollarErr: errors.New("timeout"), ibovespa: decimal.NewFromInt(1)}
	dash, _, _ := newDashboardTest(t, quotes)
	ctx := context.Background()

	dash.Dashboard(ctx, "user-1")
	quotes.dollarErr = nil
	quotes.dollar = decimal.NewFromInt(6)

	result := dash.Dashboard(ctx, "user-1")

	assert.Equal(t, "6.00", result.Data.Dollar.String())
}

func TestDashboard_Unauthenticated(t *testing.T) {
	dash, _, _ := newDashboardTest(t, &stubQuotes{})

	result := dash.Dashboard(context.Background(), "")

	assert.False(t, result.Success)
	assert.Equal(t, FailureUnauthenticated, result.Kind)
}

func TestDashboard_ListFailureFailsDashboard(t *testing.T) {
	svc, mockTable, _ := newTestService(t)
	mockTable.EXPECT().List(mock.Anything, "user-1").Return(nil, errors.New("down"))
	dash := NewDashboardService(svc, &stubQuotes{}, quietLogger())

	result := dash.Dashboard(context.Background(), "user-1")

	assert.False(t, result.Success)
	assert.Equal(t, FailureStore, result.Kind)
	assert.Equal(t, "Erro ao buscar transações.", result.Message)
}

type waitingQuotes struct {
	cancelled chan struct{}
}

func (w *waitingQuotes) DollarQuote(ctx context.Context) (decimal.Decimal, error) {
	<-ctx.Done()
	w.cancelled <- struct{}{}
	return decimal.Zero, ctx.Err()
}

func (w *waitingQuotes) IbovespaQuote(ctx context.Context) (decimal.Decimal, error) {
	return w.DollarQuote(ctx)
}

func TestDashboard_ListFailureCancelsQuoteLookups(t *testing.T) {
	svc, mockTable, _ := newTestService(t)
	mockTable.EXPECT().List(mock.Anything, "user-1").Return(nil, errors.New("down"))
	quotes := &waitingQuotes{cancelled: make(chan struct{}, 2)}
	dash := NewDashboardService(svc, quotes, quietLogger())

	done := make(chan Result[Dashboard], 1)
	go func() { done <- dash.Dashboard(context.Background(), "user-1") }()

	select {
	case result := <-done:
		assert.False(t, result.Success)
		assert.Equal(t, FailureStore, result.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("dashboard kept waiting on quotes after the list failed")
	}
	assert.Len(t, quotes.cancelled, 2)
}

func TestQuote_String(t *testing.T) {
	assert.Equal(t, "N/A", Quote{}.String())
	assert.Equal(t, "5.10", Quote{Value: decimal.RequireFromString("5.1"), Available: true}.String())
}
