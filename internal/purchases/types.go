package purchases

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status of a ticket purchase as the ticketing backend reports it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
	StatusUnknown   Status = "unknown"
)

// NormalizeStatus folds backend status spellings into the known set.
// Anything unrecognized becomes StatusUnknown rather than an error so a
// new backend status doesn't break confirmation lookups.
func NormalizeStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return Status(strings.ToLower(strings.TrimSpace(raw)))
	default:
		return StatusUnknown
	}
}

// Record is one ticket purchase row from the backend.
type Record struct {
	ID              string          `json:"id"`
	StripeSessionID string          `json:"stripe_session_id"`
	TicketID        string          `json:"ticket_id"`
	EventID         string          `json:"event_id"`
	TicketName      string          `json:"ticket_name"`
	EventTitle      string          `json:"event_title"`
	Quantity        int             `json:"quantity"`
	Amount          decimal.Decimal `json:"amount"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// LookupState tags a reference lookup outcome so "no purchase yet" is a
// value, not an error or an empty slice the caller has to interpret.
type LookupState string

const (
	LookupFound    LookupState = "found"
	LookupNotFound LookupState = "not_found"
)

// LookupResult carries the tagged outcome of a provider-reference lookup.
// Record is set only when State is LookupFound.
type LookupResult struct {
	State  LookupState
	Record *Record
}

func (r LookupResult) Found() bool { return r.State == LookupFound }
