package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boletera/admin-gateway/pkg/config"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/redis"
)

type fakeRemote struct {
	finalCalls     int
	inverseCalls   int
	constantsCalls int
	err            error
}

// scripted fee schedule: 10% commission + 19% VAT on the commission,
// rounded to cents.
func scriptedFinalPrice(organizerAmount decimal.Decimal) *Calculation {
	commission := organizerAmount.Mul(decimal.RequireFromString("0.10")).Round(2)
	vat := commission.Mul(decimal.RequireFromString("0.19")).Round(2)
	final := organizerAmount.Add(commission).Add(vat)
	return &Calculation{
		OrganizerAmount: organizerAmount,
		FinalPrice:      final,
		Breakdown: Breakdown{
			{Label: "organizer_amount", Amount: organizerAmount},
			{Label: "platform_commission", Amount: commission},
			{Label: "vat", Amount: vat},
			{Label: "final_price", Amount: final},
		},
	}
}

func scriptedOrganizerAmount(finalPrice decimal.Decimal) *Calculation {
	organizer := finalPrice.Div(decimal.RequireFromString("1.119")).Round(2)
	calc := scriptedFinalPrice(organizer)
	calc.FinalPrice = finalPrice
	return calc
}

func (f *fakeRemote) FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*Calculation, error) {
	f.finalCalls++
	if f.err != nil {
		return nil, f.err
	}
	return scriptedFinalPrice(organizerAmount), nil
}

func (f *fakeRemote) OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*Calculation, error) {
	f.inverseCalls++
	if f.err != nil {
		return nil, f.err
	}
	return scriptedOrganizerAmount(finalPrice), nil
}

func (f *fakeRemote) Constants(ctx context.Context) (Constants, error) {
	f.constantsCalls++
	if f.err != nil {
		return nil, f.err
	}
	return Constants{
		{Label: "commission_rate", Amount: decimal.RequireFromString("0.10")},
		{Label: "vat_rate", Amount: decimal.RequireFromString("0.19")},
	}, nil
}

func newTestService(remote RemoteCalculator, cache *fakeCache) *Service {
	var constantsCache redis.ConstantsCache
	if cache != nil {
		constantsCache = cache
	}
	return NewService(remote, constantsCache, config.PricingConfig{ConstantsTTL: 10 * time.Minute}, nil)
}

func TestFinalPriceRejectsNonPositiveWithoutNetworkCall(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, nil)

	for _, raw := range []string{"0", "-5"} {
		_, err := svc.FinalPrice(context.Background(), decimal.RequireFromString(raw))
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("amount %s: expected validation error, got %v", raw, err)
		}
	}
	if remote.finalCalls != 0 {
		t.Fatalf("validation failures must not reach the remote, got %d calls", remote.finalCalls)
	}
}

func TestOrganizerAmountRejectsNonPositive(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, nil)

	_, err := svc.OrganizerAmount(context.Background(), decimal.Zero)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if remote.inverseCalls != 0 {
		t.Fatal("validation failures must not reach the remote")
	}
}

func TestFinalPriceNeverBelowOrganizerAmount(t *testing.T) {
	svc := newTestService(&fakeRemote{}, nil)

	for _, raw := range []string{"0.01", "1", "150", "99999.99"} {
		amount := decimal.RequireFromString(raw)
		calc, err := svc.FinalPrice(context.Background(), amount)
		if err != nil {
			t.Fatalf("amount %s: %v", raw, err)
		}
		if calc.FinalPrice.LessThan(amount) {
			t.Fatalf("amount %s: final price %s below organizer amount", raw, calc.FinalPrice)
		}
	}
}

func TestFinalPriceMonotonicity(t *testing.T) {
	svc := newTestService(&fakeRemote{}, nil)

	previous := decimal.Zero
	for _, raw := range []string{"1", "10", "10.01", "500", "500.50", "10000"} {
		calc, err := svc.FinalPrice(context.Background(), decimal.RequireFromString(raw))
		if err != nil {
			t.Fatalf("amount %s: %v", raw, err)
		}
		if calc.FinalPrice.LessThan(previous) {
			t.Fatalf("final price regressed at amount %s: %s < %s", raw, calc.FinalPrice, previous)
		}
		previous = calc.FinalPrice
	}
}

func TestRoundTripWithinTolerance(t *testing.T) {
	svc := newTestService(&fakeRemote{}, nil)
	tolerance := decimal.RequireFromString("0.01")

	for _, raw := range []string{"100", "250.75", "1234.56"} {
		amount := decimal.RequireFromString(raw)
		forward, err := svc.FinalPrice(context.Background(), amount)
		if err != nil {
			t.Fatalf("forward %s: %v", raw, err)
		}
		inverse, err := svc.OrganizerAmount(context.Background(), forward.FinalPrice)
		if err != nil {
			t.Fatalf("inverse %s: %v", raw, err)
		}
		diff := inverse.OrganizerAmount.Sub(amount).Abs()
		if diff.GreaterThan(tolerance) {
			t.Fatalf("round trip for %s drifted by %s", raw, diff)
		}
	}
}

func TestRemoteFailureSurfacesRetryableError(t *testing.T) {
	remote := &fakeRemote{err: pkgerrors.New(pkgerrors.CodeDependency, "pricing service unavailable")}
	svc := newTestService(remote, nil)

	_, err := svc.FinalPrice(context.Background(), decimal.RequireFromString("100"))
	if !pkgerrors.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

type fakeCache struct {
	values map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	value, ok := f.values[key]
	if !ok {
		return "", errNotCached
	}
	return value, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeCache) PricingConstantsKey() string { return "test:pricing:constants" }

var errNotCached = errors.New("redis: nil")

func TestConstantsCachesRemoteResult(t *testing.T) {
	remote := &fakeRemote{}
	cache := newFakeCache()
	svc := newTestService(remote, cache)

	first, err := svc.Constants(context.Background())
	if err != nil {
		t.Fatalf("first constants read: %v", err)
	}
	second, err := svc.Constants(context.Background())
	if err != nil {
		t.Fatalf("second constants read: %v", err)
	}
	if remote.constantsCalls != 1 {
		t.Fatalf("expected one remote call with warm cache, got %d", remote.constantsCalls)
	}
	if len(first) != len(second) || first[0].Label != second[0].Label {
		t.Fatal("cached constants must match the remote result")
	}
	if !second[0].Amount.Equal(decimal.RequireFromString("0.10")) {
		t.Fatalf("unexpected cached value %s", second[0].Amount)
	}
}

func TestConstantsCacheFailuresAreNonFatal(t *testing.T) {
	remote := &fakeRemote{}
	cache := newFakeCache()
	cache.getErr = errors.New("connection reset")
	cache.setErr = errors.New("connection reset")
	svc := newTestService(remote, cache)

	constants, err := svc.Constants(context.Background())
	if err != nil {
		t.Fatalf("constants must survive a broken cache: %v", err)
	}
	if len(constants) != 2 {
		t.Fatalf("expected remote constants, got %v", constants)
	}
}

func TestConstantsRemoteFailurePropagates(t *testing.T) {
	remote := &fakeRemote{err: pkgerrors.New(pkgerrors.CodeDependency, "upstream down")}
	svc := newTestService(remote, nil)

	_, err := svc.Constants(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
