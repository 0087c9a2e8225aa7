package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	// FundType marks an entry as a contribution to the shared pool.
	FundType EntryType = "fund"

	// FundSpender is the spender label recorded on top-up entries.
	FundSpender = "Fund"

	// UnknownSpender is the bucket used for entries without a spender.
	UnknownSpender = "Unknown"
)

type (
	EntryType string

	// Item is one line of an itemized expense.
	Item struct {
		Name  string  `json:"name"`
		Qty   float64 `json:"qty"`
		Price Money   `json:"price"`
	}

	// Entry is one ledger record: either a spending event or a fund top-up.
	Entry struct {
		ID          string    `json:"id,omitempty"`
		Date        Date      `json:"date"`
		Spender     string    `json:"spender,omitempty"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description,omitempty"`
		Items       []Item    `json:"items,omitempty"`
		Category    string    `json:"category,omitempty"`
		Type        EntryType `json:"type,omitempty"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptySpender     = errors.New("empty spender")
	ErrEmptyItemName    = errors.New("empty item name")
	ErrInvalidQuantity  = errors.New("invalid item quantity")
	ErrInvalidLedger    = errors.New("invalid ledger")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrDescriptionLimit = errors.New("description too long (max 200 characters)")
)

// NewEntryID returns a fresh identifier for a ledger entry.
func NewEntryID() string {
	return uuid.NewString()
}

// IsFund reports whether the entry is a top-up rather than an expense.
func (e Entry) IsFund() bool {
	return e.Type == FundType
}

// SpenderOrUnknown returns the spender, or UnknownSpender when absent.
func (e Entry) SpenderOrUnknown() string {
	if strings.TrimSpace(e.Spender) == "" {
		return UnknownSpender
	}
	return e.Spender
}

// ItemNames returns the names of all items in their original order.
func (e Entry) ItemNames() []string {
	names := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		names = append(names, it.Name)
	}
	return names
}

// ItemsTotal sums qty*price over all items.
func (e Entry) ItemsTotal() Money {
	var total Money
	for _, it := range e.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Subtotal returns qty*price rounded to the nearest cent.
func (it Item) Subtotal() Money {
	return Money{Cents: roundHalfUp(it.Qty * float64(it.Price.Cents))}
}

func (it Item) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return ErrEmptyItemName
	}
	if it.Qty <= 0 {
		return ErrInvalidQuantity
	}
	return it.Price.Validate()
}

// Validate checks an expense before it is recorded. Fund entries only need
// a positive amount.
func (e Entry) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.IsFund() {
		return nil
	}
	if strings.TrimSpace(e.Spender) == "" {
		return ErrEmptySpender
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLimit
	}
	for _, it := range e.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}
