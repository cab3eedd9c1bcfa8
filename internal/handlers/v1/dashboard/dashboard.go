package dashboard

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/finance-ledger/internal/handlers/v1/transaction"
	"github.com/carson-networks/finance-ledger/internal/logging"
	"github.com/carson-networks/finance-ledger/internal/service"
)

// DashboardInput is the Huma input for loading the dashboard.
type DashboardInput struct {
	UserID string `header:"X-User-ID" doc:"Authenticated user id"`
}

// CategoryTotal is the summed expense amount of one category.
type CategoryTotal struct {
	Category string `json:"category" doc:"Expense category"`
	Total    string `json:"total" doc:"Sum of the category's expenses"`
}

// DueAlert is a pending expense with the days left until its date.
type DueAlert struct {
	Transaction  transaction.Transaction `json:"transaction"`
	DaysUntilDue int                     `json:"daysUntilDue" doc:"Zero on the due day, negative once overdue"`
}

// DashboardResponse is the response body of the dashboard.
type DashboardResponse struct {
	Today        string          `json:"today" format:"date" doc:"The date the alerts are relative to"`
	Balance      string          `json:"balance" doc:"Revenue minus expenses"`
	TotalRevenue string          `json:"totalRevenue" doc:"Sum of every revenue"`
	TotalExpense string          `json:"totalExpense" doc:"Sum of every expense"`
	Breakdown    []CategoryTotal `json:"breakdown" doc:"Expense totals per category"`
	Alerts       []DueAlert      `json:"alerts" doc:"Closest pending expenses"`
	Dollar       string          `json:"dollar" doc:"USD-BRL quote with two decimals, or N/A"`
	Ibovespa     string          `json:"ibovespa" doc:"Ibovespa index with two decimals, or N/A"`
}

// DashboardOutput is the Huma output for the dashboard.
type DashboardOutput struct {
	Body DashboardResponse
}

type dashboardLoader interface {
	Dashboard(ctx context.Context, userID string) service.Result[service.Dashboard]
}

// Handler handles GET /v1/dashboard.
type Handler struct {
	DashboardService dashboardLoader
}

func NewHandler(svc dashboardLoader) *Handler {
	return &Handler{DashboardService: svc}
}

// Register registers the dashboard endpoint with the Huma API.
func (h *Handler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-dashboard",
		Method:      http.MethodGet,
		Path:        "/v1/dashboard",
		Summary:     "Get dashboard",
		Description: "Returns the calling user's balances, expense breakdown, due alerts and market quotes.",
		Tags:        []string{"Dashboard"},
	}, h.handle)
}

func (h *Handler) handle(ctx context.Context, input *DashboardInput) (*DashboardOutput, error) {
	logData := logging.GetLogData(ctx)

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("dashboardMs")
	}
	result := h.DashboardService.Dashboard(ctx, input.UserID)
	if stopTimer != nil {
		stopTimer()
	}
	if !result.Success {
		return nil, transaction.ResultError(result.Kind, result.Message)
	}

	d := result.Data
	if logData != nil {
		logData.AddData("alertCount", len(d.Alerts))
		logData.AddData("dollarAvailable", d.Dollar.Available)
		logData.AddData("ibovespaAvailable", d.Ibovespa.Available)
	}

	resp := DashboardResponse{
		Today:        d.Today.String(),
		Balance:      d.Balance.StringFixed(2),
		TotalRevenue: d.TotalRevenue.StringFixed(2),
		TotalExpense: d.TotalExpense.StringFixed(2),
		Breakdown:    make([]CategoryTotal, len(d.Breakdown)),
		Alerts:       make([]DueAlert, len(d.Alerts)),
		Dollar:       d.Dollar.String(),
		Ibovespa:     d.Ibovespa.String(),
	}
	for i, c := range d.Breakdown {
		resp.Breakdown[i] = CategoryTotal{Category: string(c.Category), Total: c.Total.StringFixed(2)}
	}
	for i, a := range d.Alerts {
		resp.Alerts[i] = DueAlert{Transaction: transaction.FromLedger(a.Transaction), DaysUntilDue: a.DaysUntilDue}
	}

	return &DashboardOutput{Body: resp}, nil
}
