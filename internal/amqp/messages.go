package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EventKind names the ledger mutation that produced an event.
type EventKind string

const (
	EventExpenseAdded   EventKind = "expense_added"
	EventExpenseDeleted EventKind = "expense_deleted"
	EventFundsAdded     EventKind = "funds_added"
	EventMonthStarted   EventKind = "month_started"
	EventLedgerReplaced EventKind = "ledger_replaced"
)

// LedgerEvent announces that the stored ledger changed. It carries only
// identifiers; consumers reload the ledger from the store.
type LedgerEvent struct {
	Kind      EventKind `json:"kind"`
	Month     string    `json:"month"`
	EntryID   string    `json:"entry_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, month, entryID string) LedgerEvent {
	return LedgerEvent{
		Kind:      kind,
		Month:     month,
		EntryID:   entryID,
		Timestamp: time.Now().UTC(),
	}
}

func (m LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event, rejecting bodies without a kind.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return LedgerEvent{}, err
	}
	if msg.Kind == "" {
		return LedgerEvent{}, errors.New("ledger event without kind")
	}
	return msg, nil
}
