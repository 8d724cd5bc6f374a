package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFingerprintDeterministicPerDay(t *testing.T) {
	morning := time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 2, 10, 22, 30, 0, 0, time.UTC)

	f1 := EventFingerprint(KindLatePayment, "loan-1", morning)
	f2 := EventFingerprint(KindLatePayment, "loan-1", evening)
	require.Len(t, f1, 32)
	assert.Equal(t, f1, f2, "same kind, subject, and day must fingerprint identically")

	nextDay := EventFingerprint(KindLatePayment, "loan-1", morning.AddDate(0, 0, 1))
	assert.NotEqual(t, f1, nextDay)

	otherKind := EventFingerprint(KindMaturityNotice, "loan-1", morning)
	assert.NotEqual(t, f1, otherKind)

	otherSubject := EventFingerprint(KindLatePayment, "loan-2", morning)
	assert.NotEqual(t, f1, otherSubject)
}

func TestRecipientEmpty(t *testing.T) {
	assert.True(t, Recipient{}.Empty())
	assert.True(t, Recipient{Email: "  "}.Empty())
	assert.False(t, Recipient{Email: "b@x.test"}.Empty())
	assert.False(t, Recipient{Phone: "+100"}.Empty())
}
