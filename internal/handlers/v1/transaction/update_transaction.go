package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-ledger/internal/ledger"
	"github.com/carson-networks/finance-ledger/internal/logging"
	"github.com/carson-networks/finance-ledger/internal/service"
)

// UpdateTransactionBody carries the fields to change. Absent fields are left
// untouched.
type UpdateTransactionBody struct {
	Description *string `json:"description,omitempty" doc:"What the entry is for"`
	Amount      *string `json:"amount,omitempty" doc:"Positive decimal, '.' or ',' as separator"`
	Date        *string `json:"date,omitempty" doc:"Calendar date as yyyy-mm-dd"`
	Category    *string `json:"category,omitempty" doc:"Category from the type's fixed set"`
	Type        *string `json:"type,omitempty" doc:"expense or revenue"`
	Status      *string `json:"status,omitempty" doc:"Pending or Paid"`
}

// UpdateTransactionInput is the Huma input for updating a transaction.
type UpdateTransactionInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user id"`
	ID     string `path:"id" doc:"Transaction UUID"`
	Body   UpdateTransactionBody
}

// UpdateTransactionOutput is the Huma output for updating a transaction.
type UpdateTransactionOutput struct {
	Body MessageResponse
}

type transactionUpdater interface {
	Update(ctx context.Context, userID string, id string, patch ledger.Patch) service.Result[struct{}]
}

// UpdateTransactionHandler handles PATCH /v1/transaction/{id}.
type UpdateTransactionHandler struct {
	TransactionService transactionUpdater
}

// NewUpdateTransactionHandler creates a new UpdateTransactionHandler.
func NewUpdateTransactionHandler(svc transactionUpdater) *UpdateTransactionHandler {
	return &UpdateTransactionHandler{TransactionService: svc}
}

// Register registers the update transaction endpoint with the Huma API.
func (h *UpdateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "update-transaction",
		Method:      http.MethodPatch,
		Path:        "/v1/transaction/{id}",
		Summary:     "Update transaction",
		Description: "Changes the supplied fields of one of the calling user's transactions.",
		Tags:        []string{"Transactions"},
	}, h.handle)
}

func parseUpdateTransactionInput(input *UpdateTransactionInput) (ledger.Patch, error) {
	patch, errs := ledger.ValidatePatch(ledger.PatchInput{
		Description: input.Body.Description,
		Amount:      input.Body.Amount,
		Date:        input.Body.Date,
		Category:    input.Body.Category,
		Type:        input.Body.Type,
		Status:      input.Body.Status,
	})
	if errs != nil {
		return ledger.Patch{}, validationError(errs)
	}
	return patch, nil
}

func (h *UpdateTransactionHandler) handle(ctx context.Context, input *UpdateTransactionInput) (*UpdateTransactionOutput, error) {
	logData := logging.GetLogData(ctx)

	patch, err := parseUpdateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	if logData != nil {
		logData.AddData("transactionID", input.ID)
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("updateTransactionMs")
	}
	result := h.TransactionService.Update(ctx, input.UserID, input.ID, patch)
	if stopTimer != nil {
		stopTimer()
	}
	if result.Kind == service.FailureValidation {
		return nil, validationError(result.Errors)
	}
	if !result.Success {
		return nil, ResultError(result.Kind, result.Message)
	}

	return &UpdateTransactionOutput{Body: MessageResponse{Message: result.Message}}, nil
}
