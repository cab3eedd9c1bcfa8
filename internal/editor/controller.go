package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-ledger/internal/ledger"
	"github.com/carson-networks/finance-ledger/internal/service"
)

type State int

const (
	StateClosed State = iota
	StateCreating
	StateEditing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateCreating:
		return "creating"
	case StateEditing:
		return "editing"
	}
	return "unknown"
}

var (
	ErrNotOpen          = errors.New("editor is not open")
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

// Repository is the part of the transaction service the editor writes through.
type Repository interface {
	Add(ctx context.Context, userID string, tx ledger.NewTransaction) service.Result[uuid.UUID]
	Update(ctx context.Context, userID string, id string, patch ledger.Patch) service.Result[struct{}]
}

// Outcome describes what a Submit did.
type Outcome struct {
	// Submitted is false when validation stopped the submission.
	Submitted bool
	Success   bool
	Message   string
	// Stale is set when the editor was closed or reopened while the write was
	// in flight. The write result is reported but the editor was left alone.
	Stale       bool
	FieldErrors ledger.FieldErrors
}

// Controller drives the create/edit transaction dialog. It is safe for
// concurrent use.
type Controller struct {
	repo        Repository
	currentUser func() string
	now         func() time.Time

	mu         sync.Mutex
	state      State
	editingID  uuid.UUID
	form       ledger.TransactionInput
	errs       ledger.FieldErrors
	message    string
	submitting bool
	generation uint64
}

// New returns a closed Controller. currentUser supplies the signed-in user's
// id at submit time; now is the clock used for the default date.
func New(repo Repository, currentUser func() string, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	if currentUser == nil {
		currentUser = func() string { return "" }
	}
	return &Controller{
		repo:        repo,
		currentUser: currentUser,
		now:         now,
	}
}

// OpenCreate opens the dialog with an empty expense dated today.
func (c *Controller) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset(StateCreating)
	c.editingID = uuid.Nil
	c.form = ledger.TransactionInput{
		Description: "",
		Amount:      "0",
		Date:        civil.DateOf(c.now()).String(),
		Category:    "",
		Type:        string(ledger.TypeExpense),
		Status:      string(ledger.StatusPending),
	}
}

// OpenEdit opens the dialog prefilled with tx.
func (c *Controller) OpenEdit(tx ledger.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset(StateEditing)
	c.editingID = tx.ID
	c.form = ledger.TransactionInput{
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		Date:        tx.Date.String(),
		Category:    string(tx.Category),
		Type:        string(tx.Type),
		Status:      string(tx.Status),
	}
}

// Cancel closes the dialog without saving.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset(StateClosed)
	c.editingID = uuid.Nil
	c.form = ledger.TransactionInput{}
}

// reset moves to state and invalidates any submission still in flight.
func (c *Controller) reset(state State) {
	c.state = state
	c.errs = nil
	c.message = ""
	c.submitting = false
	c.generation++
}

// SetType switches the transaction type. A category that is not offered for
// the new type is cleared.
func (c *Controller) SetType(t ledger.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.form.Type = string(t)
	if !ledger.CategoryAllowed(t, ledger.Category(c.form.Category)) {
		c.form.Category = ""
	}
}

// Submit validates form and saves it. Validation errors keep the dialog open
// and are returned in Outcome.FieldErrors. The dialog closes only when the
// write succeeds.
func (c *Controller) Submit(ctx context.Context, form ledger.TransactionInput) (Outcome, error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return Outcome{}, ErrNotOpen
	}
	if c.submitting {
		c.mu.Unlock()
		return Outcome{}, ErrSubmitInProgress
	}

	c.form = form
	tx, errs := ledger.Validate(form)
	if errs != nil {
		c.errs = errs
		c.message = ""
		c.mu.Unlock()
		return Outcome{FieldErrors: errs}, nil
	}

	c.errs = nil
	c.message = ""
	c.submitting = true
	generation := c.generation
	state := c.state
	editingID := c.editingID
	c.mu.Unlock()

	userID := c.currentUser()
	var success bool
	var message string
	if state == StateCreating {
		result := c.repo.Add(ctx, userID, tx)
		success, message = result.Success, result.Message
	} else {
		result := c.repo.Update(ctx, userID, editingID.String(), fullPatch(tx))
		success, message = result.Success, result.Message
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		return Outcome{Submitted: true, Success: success, Message: message, Stale: true}, nil
	}

	c.submitting = false
	if success {
		c.reset(StateClosed)
		c.editingID = uuid.Nil
		c.form = ledger.TransactionInput{}
	} else {
		c.message = message
	}
	return Outcome{Submitted: true, Success: success, Message: message}, nil
}

func fullPatch(tx ledger.NewTransaction) ledger.Patch {
	return ledger.Patch{
		Description: &tx.Description,
		Amount:      &tx.Amount,
		Date:        &tx.Date,
		Category:    &tx.Category,
		Type:        &tx.Type,
		Status:      &tx.Status,
	}
}

// State returns the editor's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Form returns the current form values.
func (c *Controller) Form() ledger.TransactionInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// FieldErrors returns the messages of the last rejected submission.
func (c *Controller) FieldErrors() ledger.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.errs == nil {
		return nil
	}
	out := make(ledger.FieldErrors, len(c.errs))
	for field, msg := range c.errs {
		out[field] = msg
	}
	return out
}

// Message returns the failure message of the last write, if any.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// CategoryOptions lists the categories offered for the form's current type.
func (c *Controller) CategoryOptions() []ledger.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ledger.CategoriesFor(ledger.Type(c.form.Type))
}

// StatusVisible reports whether the status field is shown, which is only for
// expenses.
func (c *Controller) StatusVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ledger.StatusApplies(ledger.Type(c.form.Type))
}

// SubmitDisabled reports whether a submit is in flight.
func (c *Controller) SubmitDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}
