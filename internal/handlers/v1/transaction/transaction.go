package transaction

import (
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-ledger/internal/ledger"
	"github.com/carson-networks/finance-ledger/internal/service"
)

// Transaction is the API response model for a transaction.
// It is used only for responses, not for request bodies.
type Transaction struct {
	ID          string `json:"id" doc:"Transaction UUID"`
	Description string `json:"description" doc:"What the entry is for"`
	Amount      string `json:"amount" doc:"Positive decimal amount"`
	Date        string `json:"date" format:"date" doc:"Calendar date as yyyy-mm-dd"`
	Category    string `json:"category" doc:"Category from the type's fixed set"`
	Type        string `json:"type" enum:"expense,revenue" doc:"Transaction type"`
	Status      string `json:"status" enum:"Pending,Paid" doc:"Payment status, meaningful only for expenses"`
}

// MessageResponse is the body of operations that only report an outcome.
type MessageResponse struct {
	Message string `json:"message" doc:"User-facing outcome message"`
}

// FromLedger converts a ledger transaction into its API model.
func FromLedger(tx ledger.Transaction) Transaction {
	return Transaction{
		ID:          tx.ID.String(),
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		Date:        tx.Date.String(),
		Category:    string(tx.Category),
		Type:        string(tx.Type),
		Status:      string(tx.Status),
	}
}

// ResultError maps a failed service result onto an HTTP error.
func ResultError(kind service.FailureKind, message string) error {
	if kind == service.FailureUnauthenticated {
		return huma.Error401Unauthorized(message)
	}
	return huma.Error500InternalServerError(message)
}

// validationError reports every rejected field as a body location.
func validationError(errs ledger.FieldErrors) error {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]error, len(fields))
	for i, field := range fields {
		details[i] = &huma.ErrorDetail{
			Location: "body." + field,
			Message:  errs[field],
		}
	}
	return huma.Error422UnprocessableEntity("validation failed", details...)
}
