package purchases

import (
	"context"
	"net/url"
	"strings"

	"github.com/boletera/admin-gateway/pkg/backend"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/logger"
)

// Finder looks up ticket purchases by the payment-provider reference the
// buyer came back with.
type Finder interface {
	FindByProviderReference(ctx context.Context, referenceID string) (LookupResult, error)
}

// Client queries the ticketing backend's purchase index.
type Client struct {
	backend *backend.Client
	logg    *logger.Logger
}

func NewClient(client *backend.Client, logg *logger.Logger) *Client {
	return &Client{backend: client, logg: logg}
}

type listEnvelope struct {
	Data []Record `json:"data"`
}

// FindByProviderReference asks the backend for purchases tied to the given
// checkout-session reference. An empty result set is a successful
// LookupNotFound, not an error; the confirmation flow decides whether to
// keep polling.
func (c *Client) FindByProviderReference(ctx context.Context, referenceID string) (LookupResult, error) {
	referenceID = strings.TrimSpace(referenceID)
	if referenceID == "" {
		return LookupResult{}, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}

	query := url.Values{}
	query.Set("stripe_session_id", referenceID)

	var envelope listEnvelope
	if err := c.backend.GetJSON(ctx, "/ticket-purchases", query, &envelope); err != nil {
		if pkgerrors.IsNotFound(err) {
			return LookupResult{State: LookupNotFound}, nil
		}
		return LookupResult{}, err
	}

	if len(envelope.Data) == 0 {
		return LookupResult{State: LookupNotFound}, nil
	}
	if len(envelope.Data) > 1 && c.logg != nil {
		c.logg.Warn(c.logg.WithReferenceID(ctx, referenceID),
			"multiple purchases share one provider reference, using the first")
	}

	record := envelope.Data[0]
	record.Status = NormalizeStatus(string(record.Status))
	return LookupResult{State: LookupFound, Record: &record}, nil
}
