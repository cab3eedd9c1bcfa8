package operator

import (
	"context"
	"sync/atomic"

	"github.com/carson-networks/finance-ledger/internal/operator/actions"
	"github.com/carson-networks/finance-ledger/internal/storage"
)

// Operator is the worker that processes items from the queue.
type Operator struct {
	storage *storage.Storage
	queue   chan ActionItem
}

func NewOperator(s *storage.Storage, queue chan ActionItem) *Operator {
	return &Operator{
		storage: s,
		queue:   queue,
	}
}

// Run listens to the queue and processes items. Exits when the queue is closed.
func (o *Operator) Run() {
	for item := range o.queue {
		o.processItem(item)
	}
}

func (o *Operator) processItem(item ActionItem) {
	// The caller gave up while the item was queued.
	if !item.claim(itemRunning) {
		return
	}

	err := item.action.Perform(item.ctx, o.storage)
	item.response <- ActionItemResponse{err: err}
}

const (
	itemQueued int32 = iota
	itemRunning
	itemAbandoned
)

type ActionItem struct {
	ctx      context.Context
	action   actions.IAction
	response chan ActionItemResponse
	state    *atomic.Int32
}

// claim moves a queued item to next. Only one of the worker and the waiting
// caller can succeed.
func (i ActionItem) claim(next int32) bool {
	return i.state.CompareAndSwap(itemQueued, next)
}

type ActionItemResponse struct {
	err error
}
