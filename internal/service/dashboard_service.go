package service

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/carson-networks/finance-ledger/internal/cache"
	"github.com/carson-networks/finance-ledger/internal/ledger"
)

const (
	QuoteTTL = 10 * time.Minute

	quoteKeyDollar   = "USD-BRL"
	quoteKeyIbovespa = "IBOVESPA"
)

// ErrNoQuoteSource is logged when the dashboard runs without a QuoteSource.
var ErrNoQuoteSource = errors.New("no quote source configured")

var errListFailed = errors.New("transaction list failed")

// QuoteSource fetches market figures shown next to the ledger.
type QuoteSource interface {
	DollarQuote(ctx context.Context) (decimal.Decimal, error)
	IbovespaQuote(ctx context.Context) (decimal.Decimal, error)
}

// Quote is a market figure that may be unavailable.
type Quote struct {
	Value     decimal.Decimal
	Available bool
}

// String renders the quote with two decimals, or "N/A" when unavailable.
func (q Quote) String() string {
	if !q.Available {
		return "N/A"
	}
	return q.Value.StringFixed(2)
}

type Dashboard struct {
	ledger.Summary
	Today    civil.Date
	Dollar   Quote
	Ibovespa Quote
}

// DashboardService joins the user's transactions with market quotes.
type DashboardService struct {
	transactions *TransactionService
	quotes       QuoteSource
	cache        *cache.TTLCache[decimal.Decimal]
	now          func() time.Time
	logger       *logrus.Logger
}

func NewDashboardService(transactions *TransactionService, quotes QuoteSource, logger *logrus.Logger) *DashboardService {
	return NewDashboardServiceWithClock(transactions, quotes, logger, time.Now)
}

// NewDashboardServiceWithClock is NewDashboardService with an explicit time
// source, used both for "today" and for quote expiry.
func NewDashboardServiceWithClock(transactions *TransactionService, quotes QuoteSource, logger *logrus.Logger, now func() time.Time) *DashboardService {
	return &DashboardService{
		transactions: transactions,
		quotes:       quotes,
		cache:        cache.NewTTLCache[decimal.Decimal](QuoteTTL, now),
		now:          now,
		logger:       logger,
	}
}

// Dashboard loads the transactions and both quotes concurrently. A failed
// quote shows as unavailable. A failed transaction load fails the dashboard
// and cancels the quote lookups still in flight.
func (s *DashboardService) Dashboard(ctx context.Context, userID string) Result[Dashboard] {
	if userID == "" {
		return failed[Dashboard](FailureUnauthenticated, MessageUnauthenticated)
	}

	var (
		listed   Result[[]ledger.Transaction]
		dollar   Quote
		ibovespa Quote
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		listed = s.transactions.List(gctx, userID)
		if !listed.Success {
			return errListFailed
		}
		return nil
	})
	g.Go(func() error {
		dollar = s.quote(gctx, quoteKeyDollar, s.dollar)
		return nil
	})
	g.Go(func() error {
		ibovespa = s.quote(gctx, quoteKeyIbovespa, s.ibovespa)
		return nil
	})
	if err := g.Wait(); err != nil {
		return failed[Dashboard](listed.Kind, listed.Message)
	}

	today := civil.DateOf(s.now())
	return succeeded(MessageDashboard, Dashboard{
		Summary:  ledger.Summarize(listed.Data, today),
		Today:    today,
		Dollar:   dollar,
		Ibovespa: ibovespa,
	})
}

func (s *DashboardService) dollar(ctx context.Context) (decimal.Decimal, error) {
	if s.quotes == nil {
		return decimal.Zero, ErrNoQuoteSource
	}
	return s.quotes.DollarQuote(ctx)
}

func (s *DashboardService) ibovespa(ctx context.Context) (decimal.Decimal, error) {
	if s.quotes == nil {
		return decimal.Zero, ErrNoQuoteSource
	}
	return s.quotes.IbovespaQuote(ctx)
}

func (s *DashboardService) quote(ctx context.Context, key string, fetch func(context.Context) (decimal.Decimal, error)) Quote {
	if value, ok := s.cache.Get(key); ok {
		return Quote{Value: value, Available: true}
	}

	value, err := fetch(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("quote", key).Warn("DashboardService.quote")
		return Quote{}
	}

	s.cache.Set(key, value)
	return Quote{Value: value, Available: true}
}
