package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boletera/admin-gateway/internal/confirmation"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/types"
)

type stubResolver struct {
	outcome *confirmation.Outcome
	err     error
	lastRef string
}

func (s *stubResolver) Resolve(ctx context.Context, referenceID string) (*confirmation.Outcome, error) {
	s.lastRef = referenceID
	return s.outcome, s.err
}

func TestTicketPurchaseConfirmationResolved(t *testing.T) {
	resolver := &stubResolver{outcome: &confirmation.Outcome{
		State:       confirmation.StateResolved,
		Verdict:     confirmation.VerdictConfirmed,
		ReferenceID: "cs_test_abc",
		Attempts:    1,
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ticket-purchases/confirmation?session_id=cs_test_abc", nil)
	rec := httptest.NewRecorder()

	TicketPurchaseConfirmation(resolver, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resolver.lastRef != "cs_test_abc" {
		t.Fatalf("resolver received %q", resolver.lastRef)
	}

	var envelope struct {
		Data confirmation.Outcome `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Verdict != confirmation.VerdictConfirmed {
		t.Fatalf("unexpected verdict %q", envelope.Data.Verdict)
	}
}

func TestTicketPurchaseConfirmationUnresolvedIsAccepted(t *testing.T) {
	resolver := &stubResolver{outcome: &confirmation.Outcome{
		State:       confirmation.StateUnresolved,
		Verdict:     confirmation.VerdictUnknown,
		ReferenceID: "cs_test_abc",
		Attempts:    4,
	}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ticket-purchases/confirmation?session_id=cs_test_abc", nil)
	rec := httptest.NewRecorder()

	TicketPurchaseConfirmation(resolver, nil)(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("an exhausted run is 202, got %d", rec.Code)
	}

	var envelope struct {
		Error struct {
			Code    string               `json:"code"`
			Details confirmation.Outcome `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeUnresolved) {
		t.Fatalf("expected the UNRESOLVED code, got %q", envelope.Error.Code)
	}
	if envelope.Error.Details.ReferenceID != "cs_test_abc" || envelope.Error.Details.Attempts != 4 {
		t.Fatalf("outcome must ride in the details, got %+v", envelope.Error.Details)
	}
}

func TestTicketPurchaseConfirmationRequiresSessionID(t *testing.T) {
	resolver := &stubResolver{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ticket-purchases/confirmation", nil)
	rec := httptest.NewRecorder()

	TicketPurchaseConfirmation(resolver, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resolver.lastRef != "" {
		t.Fatal("resolver must not run without a session id")
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestTicketPurchaseConfirmationDependencyFailure(t *testing.T) {
	resolver := &stubResolver{err: pkgerrors.New(pkgerrors.CodeDependency, "backend unreachable")}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ticket-purchases/confirmation?session_id=cs_test_abc", nil)
	rec := httptest.NewRecorder()

	TicketPurchaseConfirmation(resolver, nil)(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestTicketPurchaseConfirmationCancelledRequestWritesNothing(t *testing.T) {
	resolver := &stubResolver{err: context.Canceled}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ticket-purchases/confirmation?session_id=cs_test_abc", nil)
	rec := httptest.NewRecorder()

	TicketPurchaseConfirmation(resolver, nil)(rec, req)

	if rec.Body.Len() != 0 {
		t.Fatalf("cancelled requests get no body, got %q", rec.Body.String())
	}
}

func TestTicketPurchaseConfirmationNilResolverGuard(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ticket-purchases/confirmation?session_id=cs_test_abc", nil)
	rec := httptest.NewRecorder()

	TicketPurchaseConfirmation(nil, nil)(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
