package pricing

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/boletera/admin-gateway/pkg/backend"
)

// RemoteCalculator is the subset of the ticketing backend that owns the fee
// formula. Implementations never cache across distinct inputs; a fresh
// amount always makes a fresh round-trip so a stale fee schedule can't leak
// into a draft.
type RemoteCalculator interface {
	FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*Calculation, error)
	OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*Calculation, error)
	Constants(ctx context.Context) (Constants, error)
}

// HTTPCalculator talks to the backend's price-calculator endpoints.
type HTTPCalculator struct {
	backend *backend.Client
}

func NewHTTPCalculator(client *backend.Client) *HTTPCalculator {
	return &HTTPCalculator{backend: client}
}

type calculationEnvelope struct {
	Data Calculation `json:"data"`
}

type constantsEnvelope struct {
	Data Constants `json:"data"`
}

type finalPriceRequest struct {
	OrganizerAmount json.Number `json:"organizer_amount"`
}

type organizerAmountRequest struct {
	FinalPrice json.Number `json:"final_price"`
}

func (c *HTTPCalculator) FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*Calculation, error) {
	var envelope calculationEnvelope
	body := finalPriceRequest{OrganizerAmount: json.Number(organizerAmount.String())}
	if err := c.backend.PostJSON(ctx, "/price-calculator/final-price", body, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

func (c *HTTPCalculator) OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*Calculation, error) {
	var envelope calculationEnvelope
	body := organizerAmountRequest{FinalPrice: json.Number(finalPrice.String())}
	if err := c.backend.PostJSON(ctx, "/price-calculator/organizer-amount", body, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

func (c *HTTPCalculator) Constants(ctx context.Context) (Constants, error) {
	var envelope constantsEnvelope
	if err := c.backend.GetJSON(ctx, "/price-calculator/constants", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}
