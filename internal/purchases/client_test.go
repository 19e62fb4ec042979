package purchases

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boletera/admin-gateway/pkg/backend"
	"github.com/boletera/admin-gateway/pkg/config"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	backendClient, err := backend.New(config.BackendConfig{
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	}, backend.NewStaticTokenProvider("test-token"), nil)
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}
	return NewClient(backendClient, nil), server
}

func TestFindByProviderReferenceFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("stripe_session_id"); got != "cs_test_abc123" {
			t.Errorf("unexpected reference query %q", got)
		}
		fmt.Fprint(w, `{"data":[{
			"id":"11111111-1111-1111-1111-111111111111",
			"stripe_session_id":"cs_test_abc123",
			"ticket_id":"t-1",
			"event_id":"e-1",
			"ticket_name":"General",
			"event_title":"Summer Fest",
			"quantity":2,
			"amount":"223.80",
			"status":"COMPLETED",
			"created_at":"2026-08-01T12:00:00Z"
		}]}`)
	})

	result, err := client.FindByProviderReference(context.Background(), "cs_test_abc123")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !result.Found() {
		t.Fatalf("expected a found result, got state %q", result.State)
	}
	if result.Record.Status != StatusCompleted {
		t.Fatalf("expected normalized completed status, got %q", result.Record.Status)
	}
	if !result.Record.Amount.Equal(decimal.RequireFromString("223.80")) {
		t.Fatalf("unexpected amount %s", result.Record.Amount)
	}
}

func TestFindByProviderReferenceEmptyResultIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	result, err := client.FindByProviderReference(context.Background(), "cs_test_missing")
	if err != nil {
		t.Fatalf("an empty result set is not an error: %v", err)
	}
	if result.State != LookupNotFound {
		t.Fatalf("expected not-found state, got %q", result.State)
	}
	if result.Record != nil {
		t.Fatal("not-found results carry no record")
	}
}

func TestFindByProviderReferenceBackend404IsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"no purchases for session"}`)
	})

	result, err := client.FindByProviderReference(context.Background(), "cs_test_missing")
	if err != nil {
		t.Fatalf("a backend 404 folds into not-found: %v", err)
	}
	if result.State != LookupNotFound {
		t.Fatalf("expected not-found state, got %q", result.State)
	}
}

func TestFindByProviderReferenceUsesFirstOfMany(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[
			{"id":"first","stripe_session_id":"cs_dup","status":"completed","amount":"10"},
			{"id":"second","stripe_session_id":"cs_dup","status":"pending","amount":"10"}
		]}`)
	})

	result, err := client.FindByProviderReference(context.Background(), "cs_dup")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !result.Found() || result.Record.ID != "first" {
		t.Fatalf("expected the first record, got %+v", result.Record)
	}
}

func TestFindByProviderReferenceRejectsBlankReference(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("blank references must not reach the backend")
	})

	_, err := client.FindByProviderReference(context.Background(), "   ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFindByProviderReferenceBackendOutageIsRetryable(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.FindByProviderReference(context.Background(), "cs_test_abc123")
	if !pkgerrors.IsRetryable(err) {
		t.Fatalf("expected retryable dependency error, got %v", err)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]Status{
		"completed":  StatusCompleted,
		"COMPLETED":  StatusCompleted,
		" pending ":  StatusPending,
		"refunded":   StatusRefunded,
		"failed":     StatusFailed,
		"chargeback": StatusUnknown,
		"":           StatusUnknown,
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}
