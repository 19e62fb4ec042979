package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/boletera/admin-gateway/api/responses"
	"github.com/boletera/admin-gateway/api/validators"
	"github.com/boletera/admin-gateway/internal/confirmation"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/logger"
)

// ConfirmationResolver answers whether a payment reference settled.
type ConfirmationResolver interface {
	Resolve(ctx context.Context, referenceID string) (*confirmation.Outcome, error)
}

// TicketPurchaseConfirmation resolves the purchase behind a checkout
// session id. An exhausted run comes back 202 with the UNRESOLVED code and
// the outcome in the details, so the UI can hand the buyer to support
// without treating the wait as a failure.
func TicketPurchaseConfirmation(resolver ConfirmationResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "confirmation resolver unavailable"))
			return
		}

		sessionID, err := validators.RequiredQuery(r, "session_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := resolver.Resolve(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				// The buyer navigated away; nobody is reading the answer.
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if outcome.State == confirmation.StateUnresolved {
			unresolved := pkgerrors.
				New(pkgerrors.CodeUnresolved, "confirmation is not available yet, support will follow up").
				WithDetails(outcome)
			responses.WriteError(r.Context(), logg, w, unresolved)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}
