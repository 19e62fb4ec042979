package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/boletera/admin-gateway/api/responses"
	"github.com/boletera/admin-gateway/api/validators"
	"github.com/boletera/admin-gateway/internal/pricing"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/logger"
)

// PricingService is the calculator surface the pricing endpoints expose.
type PricingService interface {
	FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*pricing.Calculation, error)
	OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*pricing.Calculation, error)
	Constants(ctx context.Context) (pricing.Constants, error)
}

type finalPriceRequest struct {
	OrganizerAmount json.Number `json:"organizer_amount" validate:"required"`
}

type organizerAmountRequest struct {
	FinalPrice json.Number `json:"final_price" validate:"required"`
}

// PricingFinalPrice computes the buyer-facing price for an organizer payout.
func PricingFinalPrice(svc PricingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var req finalPriceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := parseAmount(req.OrganizerAmount, "organizer_amount")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		calc, err := svc.FinalPrice(r.Context(), amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, calc)
	}
}

// PricingOrganizerAmount computes the organizer payout for a buyer-facing price.
func PricingOrganizerAmount(svc PricingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var req organizerAmountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		price, err := parseAmount(req.FinalPrice, "final_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		calc, err := svc.OrganizerAmount(r.Context(), price)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, calc)
	}
}

// PricingConstants returns the fee-schedule constants for the calculator UI.
func PricingConstants(svc PricingService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		constants, err := svc.Constants(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, constants)
	}
}

func parseAmount(raw json.Number, field string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a decimal number")
	}
	return amount, nil
}
