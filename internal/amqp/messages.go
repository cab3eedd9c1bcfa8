package amqp

import (
	"encoding/json"
	"time"
)

// Action names the kind of mutation a LedgerChange reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// LedgerChange tells consumers that a user's transaction list changed and any
// cached view of it should be refreshed.
type LedgerChange struct {
	UserID        string    `json:"userId"`
	Action        Action    `json:"action"`
	TransactionID string    `json:"transactionId"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerChange(userID string, action Action, transactionID string) LedgerChange {
	return LedgerChange{
		UserID:        userID,
		Action:        action,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

func (m LedgerChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangeFromJSON(data []byte) (*LedgerChange, error) {
	var msg LedgerChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
