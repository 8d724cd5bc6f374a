package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

const (
	KindLoanApplication   = "loan_application"
	KindStatusChanged     = "status_changed"
	KindFeeApplied        = "fee_applied"
	KindPaymentReceived   = "payment_received"
	KindLoanCompleted     = "loan_completed"
	KindMaturityNotice    = "maturity_notice"
	KindLatePayment       = "late_payment"
	KindNearingCompletion = "nearing_completion"
	KindInactiveLoan      = "inactive_loan"
	KindBranchReport      = "branch_report"
)

// Event is a queued notification. Mutating services enqueue events instead
// of calling the transport inline, so a slow or failing channel never
// affects the domain operation that produced it.
type Event struct {
	Kind        string
	Recipient   Recipient
	Subject     string
	EmailHTML   string
	SMSText     string
	Fingerprint []byte
}

type Enqueuer interface {
	Enqueue(ctx context.Context, ev Event) error
}

// EventFingerprint identifies an event for tracing. No uniqueness is
// enforced on it: the same scan running twice in a day produces duplicate
// notifications, matching current behavior.
func EventFingerprint(kind, subjectID string, at time.Time) []byte {
	input := fmt.Sprintf("%s:%s:%s", strings.TrimSpace(kind), strings.TrimSpace(subjectID), at.UTC().Format("2006-01-02"))
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(input))
	return h.Sum(nil)
}
