package providers

import (
	"context"

	"github.com/shopspring/decimal"
)

// Name identifies a payment provider.
type Name string

const (
	NameStripe      Name = "stripe"
	NameMercadoPago Name = "mercado_pago"
)

// PaymentStatus is the provider-side view of a checkout.
type PaymentStatus string

const (
	// PaymentCompleted means the provider collected the money.
	PaymentCompleted PaymentStatus = "completed"
	// PaymentFailed means the provider gave up on the checkout.
	PaymentFailed PaymentStatus = "failed"
	// PaymentOpen means the buyer may still finish paying.
	PaymentOpen PaymentStatus = "open"
	// PaymentUnknown means the provider knows the reference but reported a
	// status outside the known set.
	PaymentUnknown PaymentStatus = "unknown"
)

// StatusState tags whether the provider recognized the reference at all.
type StatusState string

const (
	StatusKnown        StatusState = "known"
	StatusUnrecognized StatusState = "unrecognized"
)

// StatusResult is a provider-status lookup outcome. Amount and Currency are
// populated when the provider reports them, so a confirmation can be shown
// even before the backend has recorded the purchase.
type StatusResult struct {
	State    StatusState
	Provider Name
	Status   PaymentStatus
	Amount   decimal.Decimal
	Currency string
}

func (r StatusResult) Known() bool { return r.State == StatusKnown }

// StatusLookup answers "what does the provider itself say about this
// checkout reference". It is the secondary confirmation source, consulted
// when the backend has no purchase on file yet.
type StatusLookup interface {
	Provider() Name
	PaymentStatus(ctx context.Context, referenceID string) (StatusResult, error)
}
