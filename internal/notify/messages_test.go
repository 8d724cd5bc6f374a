package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestStatusChangedApprovedAndRejectedExtras(t *testing.T) {
	approved := StatusChanged("LN123", "approved")
	assert.Contains(t, approved.EmailHTML, "Congratulations")

	rejected := StatusChanged("LN123", "rejected")
	assert.Contains(t, rejected.EmailHTML, "rejected")

	plain := StatusChanged("LN123", "disbursed")
	assert.NotContains(t, plain.EmailHTML, "Congratulations")
}

func TestPaymentReceivedMentionsRemainingBalance(t *testing.T) {
	msg := PaymentReceived("LN123", decimal.NewFromInt(100), decimal.NewFromInt(400),
		time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Payment Received - LN123", msg.Subject)
	assert.Contains(t, msg.SMSText, "Remaining balance: 400")
	assert.Contains(t, msg.EmailHTML, "2026-02-10")
}

func TestBranchReportSummarizesBook(t *testing.T) {
	msg := BranchReport(BranchReportData{
		BranchID:     "br-1",
		TotalLoans:   3,
		TotalAmount:  decimal.NewFromInt(6000),
		TotalPaid:    decimal.NewFromInt(600),
		OverdueLoans: 1,
	})
	assert.Equal(t, "Daily Loan Status Report", msg.Subject)
	for _, want := range []string{"3", "6000", "600", "1"} {
		if !strings.Contains(msg.EmailHTML, want) {
			t.Fatalf("expected report to mention %q", want)
		}
	}
}

func TestGuarantorLatePaymentNamesBorrower(t *testing.T) {
	msg := GuarantorLatePayment("LN123", "Ama Mensah", decimal.NewFromInt(250))
	assert.Contains(t, msg.EmailHTML, "Ama Mensah")
	assert.Contains(t, msg.SMSText, "LN123")
}
