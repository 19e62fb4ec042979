package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boletera/admin-gateway/pkg/config"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
)

// MercadoPagoLookup resolves checkout references against Mercado Pago's
// payment search API using the external_reference the checkout was created
// with.
type MercadoPagoLookup struct {
	base  *url.URL
	token string
	http  *http.Client
}

func NewMercadoPagoLookup(cfg config.MercadoPagoConfig) (*MercadoPagoLookup, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, fmt.Errorf("mercado pago access token is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing mercado pago base url: %w", err)
	}
	return &MercadoPagoLookup{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (l *MercadoPagoLookup) Provider() Name { return NameMercadoPago }

type mpSearchResponse struct {
	Results []mpPayment `json:"results"`
}

type mpPayment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
	DateCreated       time.Time       `json:"date_created"`
}

// PaymentStatus searches payments by external reference. Mercado Pago can
// report several payment attempts for one reference; the newest one wins.
func (l *MercadoPagoLookup) PaymentStatus(ctx context.Context, referenceID string) (StatusResult, error) {
	referenceID = strings.TrimSpace(referenceID)
	if referenceID == "" {
		return StatusResult{}, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}

	endpoint := *l.base
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/v1/payments/search"
	query := url.Values{}
	query.Set("external_reference", referenceID)
	query.Set("sort", "date_created")
	query.Set("criteria", "desc")
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return StatusResult{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building mercado pago request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.token)

	resp, err := l.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return StatusResult{}, ctx.Err()
		}
		return StatusResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mercado pago unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return StatusResult{State: StatusUnrecognized, Provider: NameMercadoPago}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return StatusResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "mercado pago rejected the access token")
	case resp.StatusCode >= http.StatusBadRequest:
		return StatusResult{}, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("mercado pago returned %s", resp.Status))
	}

	var search mpSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return StatusResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding mercado pago response")
	}
	if len(search.Results) == 0 {
		return StatusResult{State: StatusUnrecognized, Provider: NameMercadoPago}, nil
	}

	payment := search.Results[0]
	return StatusResult{
		State:    StatusKnown,
		Provider: NameMercadoPago,
		Status:   classifyMercadoPagoStatus(payment.Status),
		Amount:   payment.TransactionAmount,
		Currency: strings.ToUpper(payment.CurrencyID),
	}, nil
}

func classifyMercadoPagoStatus(raw string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "authorized":
		return PaymentCompleted
	case "rejected", "cancelled", "refunded", "charged_back":
		return PaymentFailed
	case "pending", "in_process", "in_mediation":
		return PaymentOpen
	default:
		return PaymentUnknown
	}
}
