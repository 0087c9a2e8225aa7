package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Friend is a participant of the shared fund.
type Friend struct {
	Name  string `json:"name"`
	Spent Money  `json:"spent"`
}

// Ledger is the full state of one month of the shared fund.
type Ledger struct {
	Month     string   `json:"month"`
	Fund      Money    `json:"fund"`
	Remaining Money    `json:"remaining"`
	Friends   []Friend `json:"friends"`
	Entries   []Entry  `json:"expenses"`
}

// UnmarshalJSON keeps the sign of spent so refunds survive a reload.
func (f *Friend) UnmarshalJSON(data []byte) error {
	type plain Friend
	aux := struct {
		*plain
		Spent json.RawMessage `json:"spent"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Spent = decodeBalance(aux.Spent)
	return nil
}

// UnmarshalJSON keeps the sign of remaining; an overspent month is stored
// with a negative balance.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	type plain Ledger
	aux := struct {
		*plain
		Remaining json.RawMessage `json:"remaining"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	l.Remaining = decodeBalance(aux.Remaining)
	return nil
}

// NewLedger returns an empty ledger for month with the given fund.
func NewLedger(month string, fund Money, friends []string) Ledger {
	l := Ledger{
		Month:     month,
		Fund:      fund,
		Remaining: fund,
		Friends:   make([]Friend, 0, len(friends)),
		Entries:   []Entry{},
	}
	for _, name := range friends {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		l.Friends = append(l.Friends, Friend{Name: name})
	}
	return l
}

// Validate checks an imported ledger: the fund must be positive and the
// friends list must be present (it may be empty).
func (l Ledger) Validate() error {
	if l.Fund.Cents <= 0 {
		return fmt.Errorf("%w: fund must be positive", ErrInvalidLedger)
	}
	if l.Friends == nil {
		return fmt.Errorf("%w: friends list missing", ErrInvalidLedger)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate the result freely.
func (l Ledger) Clone() Ledger {
	out := l
	out.Friends = append([]Friend(nil), l.Friends...)
	if out.Friends == nil && l.Friends != nil {
		out.Friends = []Friend{}
	}
	out.Entries = make([]Entry, len(l.Entries))
	for i, e := range l.Entries {
		e.Items = append([]Item(nil), e.Items...)
		out.Entries[i] = e
	}
	return out
}

// FriendIndex returns the position of the named friend, or -1.
func (l Ledger) FriendIndex(name string) int {
	for i, f := range l.Friends {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// EntryIndex returns the position of the entry with the given ID, or -1.
func (l Ledger) EntryIndex(id string) int {
	for i, e := range l.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
