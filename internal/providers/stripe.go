package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	pkgstripe "github.com/boletera/admin-gateway/pkg/stripe"
)

// StripeSessionAPI is the subset of Stripe checkout operations the lookup
// needs, wrapped so the lookup can be tested without the network.
type StripeSessionAPI interface {
	Get(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

type stripeSessionWrapper struct{}

// NewStripeSessionAPI wraps the initialized Stripe client.
func NewStripeSessionAPI(api *pkgstripe.Client) StripeSessionAPI {
	if api == nil {
		return nil
	}
	return &stripeSessionWrapper{}
}

func (w *stripeSessionWrapper) Get(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	return session.Get(id, params)
}

// StripeLookup resolves checkout-session references against Stripe.
type StripeLookup struct {
	api StripeSessionAPI
}

func NewStripeLookup(api StripeSessionAPI) *StripeLookup {
	return &StripeLookup{api: api}
}

func (l *StripeLookup) Provider() Name { return NameStripe }

// PaymentStatus fetches the checkout session and folds Stripe's two status
// axes (session status, payment status) into one verdict. An unrecognized
// session id is a tagged result, not an error.
func (l *StripeLookup) PaymentStatus(ctx context.Context, referenceID string) (StatusResult, error) {
	referenceID = strings.TrimSpace(referenceID)
	if referenceID == "" {
		return StatusResult{}, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}
	if l.api == nil {
		return StatusResult{}, pkgerrors.New(pkgerrors.CodeInternal, "stripe lookup is not configured")
	}

	sess, err := l.api.Get(ctx, referenceID)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == 404 {
				return StatusResult{State: StatusUnrecognized, Provider: NameStripe}, nil
			}
		}
		return StatusResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe session lookup failed")
	}

	result := StatusResult{
		State:    StatusKnown,
		Provider: NameStripe,
		Status:   classifyStripeSession(sess),
		Currency: strings.ToUpper(string(sess.Currency)),
	}
	if sess.AmountTotal > 0 {
		// Stripe reports minor units; two decimal places covers the
		// currencies this platform sells in.
		result.Amount = decimal.New(sess.AmountTotal, -2)
	}
	return result, nil
}

func classifyStripeSession(sess *stripe.CheckoutSession) PaymentStatus {
	switch sess.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid, stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return PaymentCompleted
	}
	switch sess.Status {
	case stripe.CheckoutSessionStatusExpired:
		return PaymentFailed
	case stripe.CheckoutSessionStatusOpen:
		return PaymentOpen
	case stripe.CheckoutSessionStatusComplete:
		// Session closed but money not yet marked paid: async payment
		// methods land here. Treat as still in flight.
		return PaymentOpen
	}
	return PaymentUnknown
}
