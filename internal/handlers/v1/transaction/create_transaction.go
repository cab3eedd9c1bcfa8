package transaction

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-ledger/internal/ledger"
	"github.com/carson-networks/finance-ledger/internal/logging"
	"github.com/carson-networks/finance-ledger/internal/service"
)

// CreateTransactionBody is the request body for creating a transaction.
// Every field is optional at the schema level so that the ledger rules
// report each problem with its own message.
type CreateTransactionBody struct {
	Description string `json:"description,omitempty" doc:"What the entry is for"`
	Amount      string `json:"amount,omitempty" doc:"Positive decimal, '.' or ',' as separator"`
	Date        string `json:"date,omitempty" doc:"Calendar date as yyyy-mm-dd"`
	Category    string `json:"category,omitempty" doc:"Category from the type's fixed set"`
	Type        string `json:"type,omitempty" doc:"expense or revenue"`
	Status      string `json:"status,omitempty" doc:"Pending or Paid, defaults to Pending"`
}

// CreateTransactionInput is the Huma input for creating a transaction.
type CreateTransactionInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user id"`
	Body   CreateTransactionBody
}

// CreateTransactionResponse is the response body for creating a transaction.
type CreateTransactionResponse struct {
	ID      string `json:"id" doc:"Created transaction UUID"`
	Message string `json:"message" doc:"User-facing outcome message"`
}

// CreateTransactionOutput is the Huma output for creating a transaction.
type CreateTransactionOutput struct {
	Status int
	Body   CreateTransactionResponse
}

type transactionAdder interface {
	Add(ctx context.Context, userID string, tx ledger.NewTransaction) service.Result[uuid.UUID]
}

// CreateTransactionHandler handles POST /v1/transaction.
type CreateTransactionHandler struct {
	TransactionService transactionAdder
}

// NewCreateTransactionHandler creates a new CreateTransactionHandler.
func NewCreateTransactionHandler(svc transactionAdder) *CreateTransactionHandler {
	return &CreateTransactionHandler{TransactionService: svc}
}

// Register registers the create transaction endpoint with the Huma API.
func (h *CreateTransactionHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-transaction",
		Method:        http.MethodPost,
		Path:          "/v1/transaction",
		Summary:       "Create transaction",
		Description:   "Validates and stores a new transaction for the calling user.",
		Tags:          []string{"Transactions"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateTransactionInput(input *CreateTransactionInput) (ledger.NewTransaction, error) {
	tx, errs := ledger.Validate(ledger.TransactionInput{
		Description: input.Body.Description,
		Amount:      input.Body.Amount,
		Date:        input.Body.Date,
		Category:    input.Body.Category,
		Type:        input.Body.Type,
		Status:      input.Body.Status,
	})
	if errs != nil {
		return ledger.NewTransaction{}, validationError(errs)
	}
	return tx, nil
}

func (h *CreateTransactionHandler) handle(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
	logData := logging.GetLogData(ctx)

	tx, err := parseCreateTransactionInput(input)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("addTransactionMs")
	}
	result := h.TransactionService.Add(ctx, input.UserID, tx)
	if stopTimer != nil {
		stopTimer()
	}
	if !result.Success {
		return nil, ResultError(result.Kind, result.Message)
	}

	if logData != nil {
		logData.AddData("transactionID", result.Data.String())
	}

	return &CreateTransactionOutput{
		Status: http.StatusCreated,
		Body: CreateTransactionResponse{
			ID:      result.Data.String(),
			Message: result.Message,
		},
	}, nil
}
