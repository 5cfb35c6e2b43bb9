package amqp

import (
	"encoding/json"
	"time"

	"despesas/internal/core"
)

const (
	EventEntryAdded   = "entry.added"
	EventEntryRemoved = "entry.removed"
)

// LedgerEventMessage announces a change to one ledger together with the
// summary that resulted from it.
type LedgerEventMessage struct {
	Type        string    `json:"type"`
	LedgerID    string    `json:"ledger_id"`
	EntryID     int64     `json:"entry_id"`
	CategoryID  string    `json:"category_id,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Count       int       `json:"count"`
	TotalCents  int64     `json:"total_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewEntryAddedMessage(ledgerID string, e core.Entry, sum core.Summary) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:        EventEntryAdded,
		LedgerID:    ledgerID,
		EntryID:     e.ID,
		CategoryID:  e.CategoryID,
		AmountCents: e.Amount.Cents,
		Count:       sum.Count,
		TotalCents:  sum.Total.Cents,
		Timestamp:   time.Now(),
	}
}

func NewEntryRemovedMessage(ledgerID string, entryID int64, sum core.Summary) *LedgerEventMessage {
	return &LedgerEventMessage{
		Type:       EventEntryRemoved,
		LedgerID:   ledgerID,
		EntryID:    entryID,
		Count:      sum.Count,
		TotalCents: sum.Total.Cents,
		Timestamp:  time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
