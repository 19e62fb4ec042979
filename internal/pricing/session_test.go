package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// blockingCalculator parks FinalPrice calls until released, so tests can
// interleave in-flight invocations deterministically.
type blockingCalculator struct {
	release chan struct{}
	block   map[string]bool
}

func newBlockingCalculator(blockAmounts ...string) *blockingCalculator {
	block := map[string]bool{}
	for _, amount := range blockAmounts {
		block[amount] = true
	}
	return &blockingCalculator{
		release: make(chan struct{}),
		block:   block,
	}
}

func (b *blockingCalculator) FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*Calculation, error) {
	if b.block[organizerAmount.String()] {
		select {
		case <-b.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return scriptedFinalPrice(organizerAmount), nil
}

func (b *blockingCalculator) OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*Calculation, error) {
	return scriptedOrganizerAmount(finalPrice), nil
}

func TestSessionDiscardsStaleResponse(t *testing.T) {
	calc := newBlockingCalculator("100")
	session := NewSession(calc)

	firstDone := make(chan error, 1)
	go func() {
		_, err := session.FinalPrice(context.Background(), decimal.RequireFromString("100"))
		firstDone <- err
	}()

	// Give invocation #1 time to park inside the calculator.
	time.Sleep(20 * time.Millisecond)

	second, err := session.FinalPrice(context.Background(), decimal.RequireFromString("200"))
	if err != nil {
		t.Fatalf("second invocation: %v", err)
	}

	// Now let #1's response arrive late.
	close(calc.release)
	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected first invocation to be superseded, got %v", err)
	}

	current := session.Current()
	if current == nil {
		t.Fatal("expected a current calculation")
	}
	if !current.OrganizerAmount.Equal(second.OrganizerAmount) {
		t.Fatalf("displayed result must reflect invocation #2, got organizer amount %s", current.OrganizerAmount)
	}
}

func TestSessionSequentialInvocationsAllApply(t *testing.T) {
	session := NewSession(newBlockingCalculator())

	for _, raw := range []string{"50", "75", "100"} {
		calc, err := session.FinalPrice(context.Background(), decimal.RequireFromString(raw))
		if err != nil {
			t.Fatalf("amount %s: %v", raw, err)
		}
		current := session.Current()
		if current == nil || !current.FinalPrice.Equal(calc.FinalPrice) {
			t.Fatalf("amount %s: current calculation out of date", raw)
		}
	}
}

func TestSessionSharesTokensAcrossDirections(t *testing.T) {
	calc := newBlockingCalculator("100")
	session := NewSession(calc)

	firstDone := make(chan error, 1)
	go func() {
		_, err := session.FinalPrice(context.Background(), decimal.RequireFromString("100"))
		firstDone <- err
	}()
	time.Sleep(20 * time.Millisecond)

	if _, err := session.OrganizerAmount(context.Background(), decimal.RequireFromString("223.80")); err != nil {
		t.Fatalf("inverse invocation: %v", err)
	}

	close(calc.release)
	if err := <-firstDone; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected forward invocation to be superseded by inverse, got %v", err)
	}
}

func TestSessionClear(t *testing.T) {
	session := NewSession(newBlockingCalculator())
	if _, err := session.FinalPrice(context.Background(), decimal.RequireFromString("10")); err != nil {
		t.Fatalf("final price: %v", err)
	}
	session.Clear()
	if session.Current() != nil {
		t.Fatal("expected cleared session")
	}
}
