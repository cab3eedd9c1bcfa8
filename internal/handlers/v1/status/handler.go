package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/carson-networks/finance-ledger/internal/logging"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	Store Pinger
}

// NewHandler returns a status handler. A nil store is always healthy.
func NewHandler(store Pinger) Handler {
	return Handler{Store: store}
}

func (h *Handler) Handler(w http.ResponseWriter, req *http.Request, logData *logging.LogData) error {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusBadRequest)
		return errors.New("status: method not GET")
	}

	if h.Store != nil {
		endTimer := logData.AddTiming("pingMs")
		err := h.Store.PingContext(req.Context())
		endTimer()
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return fmt.Errorf("status: store ping: %w", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	return nil
}
