package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boletera/admin-gateway/pkg/config"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(config.BackendConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	}, NewStaticTokenProvider("service-token"), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGetJSONAttachesBearerAndQuery(t *testing.T) {
	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("stripe_session_id")
		json.NewEncoder(w).Encode([]map[string]any{{"ticket_id": "t1"}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/api")
	var out []map[string]any
	query := url.Values{"stripe_session_id": {"sess_abc123"}}
	if err := client.GetJSON(context.Background(), "/ticket-purchases", query, &out); err != nil {
		t.Fatalf("get json: %v", err)
	}
	if gotAuth != "Bearer service-token" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotQuery != "sess_abc123" {
		t.Fatalf("expected session query param, got %q", gotQuery)
	}
	if len(out) != 1 {
		t.Fatalf("expected decoded body, got %v", out)
	}
}

func TestPostJSONMapsValidationMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "organizer_amount must be positive"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.PostJSON(context.Background(), "/price-calculator/final-price", map[string]any{"organizer_amount": -1}, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "organizer_amount must be positive" {
		t.Fatalf("expected backend message to propagate, got %q", typed.Message())
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeUnauthorized},
		{http.StatusBadGateway, pkgerrors.CodeDependency},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
		{http.StatusUnprocessableEntity, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := newTestClient(t, server.URL)
		err := client.GetJSON(context.Background(), "/ping", nil, nil)
		server.Close()
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != tc.code {
			t.Fatalf("status %d: expected %s, got %v", tc.status, tc.code, err)
		}
	}
}

func TestTransportErrorIsDependency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := newTestClient(t, server.URL)
	err := client.GetJSON(context.Background(), "/ping", nil, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if !pkgerrors.IsRetryable(err) {
		t.Fatal("transport errors must be retryable")
	}
}

func TestContextCancellationSurfacesContextError(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		server.Close()
	}()

	client := newTestClient(t, server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := client.GetJSON(ctx, "/slow", nil, nil)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStaticTokenProviderRejectsEmpty(t *testing.T) {
	_, err := NewStaticTokenProvider("   ").Token(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "gateway",
		"exp": exp.Unix(),
	})
	raw, err := token.SignedString([]byte("unit-test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestExpiryCheckedProviderRejectsExpiredJWT(t *testing.T) {
	provider := NewExpiryCheckedProvider(NewStaticTokenProvider(signedToken(t, time.Now().Add(-time.Hour))))
	_, err := provider.Token(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for expired token, got %v", err)
	}
}

func TestExpiryCheckedProviderAcceptsLiveJWT(t *testing.T) {
	raw := signedToken(t, time.Now().Add(time.Hour))
	provider := NewExpiryCheckedProvider(NewStaticTokenProvider(raw))
	got, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if got != raw {
		t.Fatal("expected token passthrough")
	}
}

func TestExpiryCheckedProviderPassesOpaqueTokens(t *testing.T) {
	provider := NewExpiryCheckedProvider(NewStaticTokenProvider("opaque-token"))
	got, err := provider.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if got != "opaque-token" {
		t.Fatalf("expected opaque passthrough, got %q", got)
	}
}
