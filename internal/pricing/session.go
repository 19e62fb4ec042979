package pricing

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrSuperseded reports that a newer calculation was requested before this
// one finished; its result was discarded.
var ErrSuperseded = errors.New("calculation superseded by a newer request")

// Calculator is the surface a Session guards.
type Calculator interface {
	FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*Calculation, error)
	OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*Calculation, error)
}

// Session serializes the "which answer is current" question for one
// interactive calculator. Every invocation takes a monotonically increasing
// token; a response only becomes the current calculation if no newer
// invocation has started in the meantime. Late responses from superseded
// invocations are discarded on arrival.
type Session struct {
	calc Calculator

	mu      sync.Mutex
	next    uint64
	applied uint64
	current *Calculation
}

func NewSession(calc Calculator) *Session {
	return &Session{calc: calc}
}

// FinalPrice runs the forward calculation under the stale-response guard.
func (s *Session) FinalPrice(ctx context.Context, organizerAmount decimal.Decimal) (*Calculation, error) {
	token := s.begin()
	calc, err := s.calc.FinalPrice(ctx, organizerAmount)
	if err != nil {
		return nil, err
	}
	if !s.commit(token, calc) {
		return nil, ErrSuperseded
	}
	return calc, nil
}

// OrganizerAmount runs the inverse calculation under the same guard; both
// directions share one token sequence because they feed the same display.
func (s *Session) OrganizerAmount(ctx context.Context, finalPrice decimal.Decimal) (*Calculation, error) {
	token := s.begin()
	calc, err := s.calc.OrganizerAmount(ctx, finalPrice)
	if err != nil {
		return nil, err
	}
	if !s.commit(token, calc) {
		return nil, ErrSuperseded
	}
	return calc, nil
}

// Current returns the newest committed calculation, or nil.
func (s *Session) Current() *Calculation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Clear forgets the current calculation.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

func (s *Session) commit(token uint64, calc *Calculation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.next {
		// A newer invocation began while this one was in flight.
		return false
	}
	if token <= s.applied {
		return false
	}
	s.applied = token
	s.current = calc
	return true
}
