package confirmation

import (
	"fmt"

	"github.com/boletera/admin-gateway/internal/providers"
	"github.com/boletera/admin-gateway/internal/purchases"
)

// Verdict is the answer a resolved confirmation gives the buyer-facing UI.
type Verdict string

const (
	// VerdictConfirmed means the backend has the purchase on file.
	VerdictConfirmed Verdict = "confirmed"
	// VerdictConfirmedPendingSync means the provider collected the money but
	// the backend has not recorded the purchase yet. The confirmation shows,
	// ticket delivery follows once the backend catches up.
	VerdictConfirmedPendingSync Verdict = "confirmed_pending_sync"
	// VerdictFailed means the payment did not go through.
	VerdictFailed Verdict = "failed"
	// VerdictUnknown means neither source could say either way.
	VerdictUnknown Verdict = "unknown"
)

// Conflict records a disagreement between the backend's purchase record and
// the provider's payment status. The provider's word decides the verdict;
// the disagreement is kept for support.
type Conflict struct {
	BackendStatus  string `json:"backend_status"`
	ProviderStatus string `json:"provider_status"`
	Note           string `json:"note"`
}

const backendStatusMissing = "missing"

// Reconcile folds the two confirmation sources into one verdict. The
// provider outranks the backend when they disagree, because the provider is
// the authority on whether money moved; the backend record only proves the
// sale was synced.
func Reconcile(record *purchases.Record, status *providers.StatusResult) (Verdict, *Conflict) {
	providerStatus := providers.PaymentUnknown
	providerKnown := status != nil && status.Known()
	if providerKnown {
		providerStatus = status.Status
	}

	if record != nil {
		backendFailed := record.Status == purchases.StatusFailed || record.Status == purchases.StatusRefunded
		switch {
		case providerKnown && providerStatus == providers.PaymentFailed && !backendFailed:
			return VerdictFailed, &Conflict{
				BackendStatus:  string(record.Status),
				ProviderStatus: string(providerStatus),
				Note:           fmt.Sprintf("%s reports the payment failed but the purchase record does not", status.Provider),
			}
		case providerKnown && providerStatus == providers.PaymentCompleted && backendFailed:
			return VerdictConfirmed, &Conflict{
				BackendStatus:  string(record.Status),
				ProviderStatus: string(providerStatus),
				Note:           fmt.Sprintf("%s reports payment collected but the purchase is marked %s", status.Provider, record.Status),
			}
		case backendFailed:
			return VerdictFailed, nil
		default:
			return VerdictConfirmed, nil
		}
	}

	if providerKnown {
		switch providerStatus {
		case providers.PaymentCompleted:
			return VerdictConfirmedPendingSync, nil
		case providers.PaymentFailed:
			return VerdictFailed, &Conflict{
				BackendStatus:  backendStatusMissing,
				ProviderStatus: string(providerStatus),
				Note:           fmt.Sprintf("%s reports the payment failed and no purchase was recorded", status.Provider),
			}
		}
	}

	return VerdictUnknown, nil
}
