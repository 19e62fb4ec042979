package confirmation

import (
	"context"
	"io"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/boletera/admin-gateway/internal/providers"
	"github.com/boletera/admin-gateway/internal/purchases"
	"github.com/boletera/admin-gateway/pkg/config"
	pkgerrors "github.com/boletera/admin-gateway/pkg/errors"
	"github.com/boletera/admin-gateway/pkg/logger"
	"github.com/boletera/admin-gateway/pkg/metrics"
)

// Policy bounds one resolution run: how many lookup attempts, and how long
// to wait between them. Delays happen between attempts only, so a run costs
// at most (Attempts-1) * RetryDelay of waiting.
type Policy struct {
	Attempts   int
	RetryDelay time.Duration
}

func PolicyFromConfig(cfg config.ConfirmationConfig) Policy {
	return Policy{
		Attempts:   cfg.Attempts,
		RetryDelay: cfg.RetryDelay,
	}
}

// Outcome is the result of a finished (or exhausted) resolution run.
type Outcome struct {
	State          State                   `json:"state"`
	Verdict        Verdict                 `json:"verdict"`
	ReferenceID    string                  `json:"reference_id"`
	Record         *purchases.Record       `json:"record,omitempty"`
	ProviderStatus *providers.StatusResult `json:"-"`
	Provider       providers.Name          `json:"provider,omitempty"`
	SyncPending    bool                    `json:"sync_pending"`
	Conflict       *Conflict               `json:"conflict,omitempty"`
	Attempts       int                     `json:"attempts"`
	Failures       error                   `json:"-"`
}

// UnresolvedEntry is what gets persisted when a run exhausts its attempts.
type UnresolvedEntry struct {
	ReferenceID string
	Provider    providers.Name
	Attempts    int
	Conflict    *Conflict
	LastError   error
}

// SupportLog persists unresolved runs for manual reconciliation.
type SupportLog interface {
	RecordUnresolved(ctx context.Context, entry UnresolvedEntry) error
}

// Resolver answers "did this payment go through" for a buyer returning from
// checkout. The backend's purchase index is the primary source; the payment
// provider itself is the secondary. Lookups retry on a fixed schedule until
// one source gives a terminal answer or the budget runs out.
type Resolver struct {
	purchases purchases.Finder
	lookup    providers.StatusLookup
	support   SupportLog
	sched     Scheduler
	policy    Policy
	metrics   *metrics.ConfirmationMetrics
	logg      *logger.Logger
}

func NewResolver(
	finder purchases.Finder,
	lookup providers.StatusLookup,
	support SupportLog,
	sched Scheduler,
	policy Policy,
	m *metrics.ConfirmationMetrics,
	logg *logger.Logger,
) *Resolver {
	if sched == nil {
		sched = NewTimerScheduler()
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "confirmation", Output: io.Discard})
	}
	return &Resolver{
		purchases: finder,
		lookup:    lookup,
		support:   support,
		sched:     sched,
		policy:    policy,
		metrics:   m,
		logg:      logg,
	}
}

// Resolve runs the confirmation state machine for one payment reference.
// Cancelling ctx stops the run where it stands; no terminal state is
// recorded and nothing is persisted for a cancelled run.
func (r *Resolver) Resolve(ctx context.Context, referenceID string) (*Outcome, error) {
	run := newMachine()
	if err := run.transition(StateAwaitingReference); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "starting confirmation run")
	}

	referenceID = strings.TrimSpace(referenceID)
	if referenceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if err := run.transition(StateResolving); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "starting confirmation run")
	}

	ctx = r.logg.WithReferenceID(ctx, referenceID)

	var failures error
	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		if attempt > 1 {
			if err := r.sched.Wait(ctx, r.policy.RetryDelay); err != nil {
				return nil, err
			}
		}

		outcome, err := r.attempt(ctx, referenceID, attempt)
		if err != nil {
			if ctx.Err() != nil {
				// The caller walked away mid-lookup. Leave no trace.
				return nil, ctx.Err()
			}
			if !pkgerrors.IsRetryable(err) {
				return nil, err
			}
			failures = multierr.Append(failures, err)
			r.logg.Warn(ctx, "confirmation lookup attempt failed")
			continue
		}
		if outcome == nil {
			// Both sources answered but neither is terminal yet.
			continue
		}

		if err := run.transition(StateResolved); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finishing confirmation run")
		}
		outcome.State = run.current()
		outcome.Failures = failures
		r.metrics.ObserveResolution(string(outcome.Verdict), attempt)
		if outcome.Conflict != nil {
			r.logg.Warn(ctx, "confirmation sources disagree: "+outcome.Conflict.Note)
		}
		return outcome, nil
	}

	if err := run.transition(StateUnresolved); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finishing confirmation run")
	}

	entry := UnresolvedEntry{
		ReferenceID: referenceID,
		Attempts:    r.policy.Attempts,
		LastError:   failures,
	}
	if r.lookup != nil {
		entry.Provider = r.lookup.Provider()
	}
	if r.support != nil {
		if err := r.support.RecordUnresolved(ctx, entry); err != nil {
			// The buyer still gets an answer; support just loses the row.
			r.logg.Error(ctx, "recording unresolved confirmation failed", err)
		}
	}
	r.metrics.ObserveResolution(string(StateUnresolved), r.policy.Attempts)

	return &Outcome{
		State:       StateUnresolved,
		Verdict:     VerdictUnknown,
		ReferenceID: referenceID,
		Provider:    entry.Provider,
		Attempts:    r.policy.Attempts,
		Failures:    failures,
	}, nil
}

// attempt performs one primary+secondary lookup round. A nil outcome with a
// nil error means "nothing terminal yet, keep polling".
func (r *Resolver) attempt(ctx context.Context, referenceID string, attempt int) (*Outcome, error) {
	result, err := r.purchases.FindByProviderReference(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	if result.Found() {
		// A record on file is a terminal answer; the buyer sees it as-is.
		// Settled records stand on their own word, anything else gets the
		// provider's view folded in before the verdict.
		record := result.Record
		var status *providers.StatusResult
		if record.Status != purchases.StatusCompleted {
			status = r.providerStatus(ctx, referenceID)
		}
		verdict, conflict := Reconcile(record, status)
		return r.resolved(referenceID, verdict, conflict, record, status, attempt), nil
	}

	if r.lookup == nil {
		return nil, nil
	}
	status, err := r.lookup.PaymentStatus(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if !status.Known() {
		return nil, nil
	}

	switch status.Status {
	case providers.PaymentCompleted, providers.PaymentFailed:
		verdict, conflict := Reconcile(nil, &status)
		outcome := r.resolved(referenceID, verdict, conflict, nil, &status, attempt)
		outcome.SyncPending = verdict == VerdictConfirmedPendingSync
		return outcome, nil
	default:
		// open or unknown: the buyer may still be mid-payment.
		return nil, nil
	}
}

// providerStatus fetches the secondary source without letting its failure
// block a verdict the primary source already supports.
func (r *Resolver) providerStatus(ctx context.Context, referenceID string) *providers.StatusResult {
	if r.lookup == nil {
		return nil
	}
	status, err := r.lookup.PaymentStatus(ctx, referenceID)
	if err != nil {
		r.logg.Warn(ctx, "provider status lookup failed during reconciliation")
		return nil
	}
	return &status
}

func (r *Resolver) resolved(
	referenceID string,
	verdict Verdict,
	conflict *Conflict,
	record *purchases.Record,
	status *providers.StatusResult,
	attempts int,
) *Outcome {
	outcome := &Outcome{
		Verdict:        verdict,
		ReferenceID:    referenceID,
		Record:         record,
		ProviderStatus: status,
		Conflict:       conflict,
		Attempts:       attempts,
	}
	if status != nil {
		outcome.Provider = status.Provider
	} else if r.lookup != nil {
		outcome.Provider = r.lookup.Provider()
	}
	return outcome
}
