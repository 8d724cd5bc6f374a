package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Message builders. Content mirrors what the back office already sends;
// builders take primitives so domain packages can depend on this package
// without cycles.

type Message struct {
	Subject   string
	EmailHTML string
	SMSText   string
}

func LoanApplicationReceived(loanNumber string, principal decimal.Decimal, loanType, status string) Message {
	return Message{
		Subject: fmt.Sprintf("Loan Application Received - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>Loan Application Received</h2>"+
				"<p>Your loan application (%s) has been received and is being processed.</p>"+
				"<p>Amount: %s</p><p>Type: %s</p><p>Status: %s</p>",
			loanNumber, principal.String(), loanType, status),
		SMSText: fmt.Sprintf("Your loan application %s for %s has been received and is being processed.", loanNumber, principal.String()),
	}
}

func StatusChanged(loanNumber, status string) Message {
	extra := ""
	switch status {
	case "approved":
		extra = "<p>Congratulations! Your loan has been approved.</p>"
	case "rejected":
		extra = "<p>Unfortunately, your loan application has been rejected.</p>"
	}
	return Message{
		Subject: fmt.Sprintf("Loan Status Update - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>Loan Status Update</h2><p>Your loan (%s) status has been updated to: %s</p>%s",
			loanNumber, status, extra),
		SMSText: fmt.Sprintf("Your loan %s status has been updated to: %s", loanNumber, status),
	}
}

func FeeApplied(loanNumber, feeType string, amount decimal.Decimal) Message {
	return Message{
		Subject: fmt.Sprintf("New Fee Applied - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>New Fee Applied</h2><p>A new fee has been applied to your loan (%s):</p>"+
				"<p>Fee Type: %s</p><p>Amount: %s</p>",
			loanNumber, feeType, amount.String()),
		SMSText: fmt.Sprintf("A %s fee of %s has been applied to your loan %s.", feeType, amount.String(), loanNumber),
	}
}

func PaymentReceived(loanNumber string, amount, remaining decimal.Decimal, at time.Time) Message {
	return Message{
		Subject: fmt.Sprintf("Payment Received - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>Payment Received</h2><p>We have received your payment for loan %s:</p>"+
				"<p>Amount: %s</p><p>Date: %s</p><p>Remaining Balance: %s</p>",
			loanNumber, amount.String(), at.Format("2006-01-02"), remaining.String()),
		SMSText: fmt.Sprintf("Payment of %s received for loan %s. Remaining balance: %s", amount.String(), loanNumber, remaining.String()),
	}
}

func LoanCompleted(loanNumber string) Message {
	return Message{
		Subject: fmt.Sprintf("Loan Completed - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>Congratulations!</h2><p>Your loan (%s) has been fully repaid and marked as completed.</p>"+
				"<p>Thank you for your business!</p>", loanNumber),
		SMSText: fmt.Sprintf("Congratulations! Your loan %s has been fully repaid and completed.", loanNumber),
	}
}

func MaturityNotice(loanNumber string, maturityDate time.Time, outstanding decimal.Decimal) Message {
	date := maturityDate.Format("2006-01-02")
	return Message{
		Subject: fmt.Sprintf("Loan Maturity Notice - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>Loan Maturity Notice</h2><p>Your loan (%s) is reaching its maturity date on %s.</p>"+
				"<p>Outstanding Amount: %s</p>", loanNumber, date, outstanding.String()),
		SMSText: fmt.Sprintf("Your loan %s is maturing on %s. Outstanding amount: %s", loanNumber, date, outstanding.String()),
	}
}

func LatePayment(loanNumber string, outstanding decimal.Decimal) Message {
	return Message{
		Subject: fmt.Sprintf("Late Payment Notice - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>Late Payment Notice</h2><p>Your payment for loan %s is overdue.</p>"+
				"<p>Outstanding Amount: %s</p>"+
				"<p>Please make your payment as soon as possible to avoid additional fees.</p>",
			loanNumber, outstanding.String()),
		SMSText: fmt.Sprintf("Your payment for loan %s is overdue. Outstanding amount: %s", loanNumber, outstanding.String()),
	}
}

func GuarantorLatePayment(loanNumber, borrowerName string, outstanding decimal.Decimal) Message {
	return Message{
		Subject: fmt.Sprintf("Late Payment Notice (Guarantor) - %s", loanNumber),
		EmailHTML: fmt.Sprintf(
			"<h2>Late Payment Notice (Guarantor)</h2><p>The loan you guaranteed (%s) has an overdue payment.</p>"+
				"<p>Borrower: %s</p><p>Outstanding Amount: %s</p>",
			loanNumber, borrowerName, outstanding.String()),
		SMSText: fmt.Sprintf("Loan %s that you guaranteed has an overdue payment. Outstanding amount: %s", loanNumber, outstanding.String()),
	}
}

func NearingCompletion(loanNumber string, remaining decimal.Decimal) Message {
	return Message{
		Subject: "Loan Nearly Complete",
		EmailHTML: fmt.Sprintf(
			"<h2>Loan Nearly Complete</h2><p>Your loan (%s) is almost fully repaid!</p>"+
				"<p>Remaining Amount: %s</p><p>Keep up the good work!</p>",
			loanNumber, remaining.String()),
		SMSText: fmt.Sprintf("Your loan %s is almost complete! Remaining amount: %s", loanNumber, remaining.String()),
	}
}

func InactiveLoan(loanNumber string, outstanding decimal.Decimal) Message {
	return Message{
		Subject: "Inactive Loan Notice",
		EmailHTML: fmt.Sprintf(
			"<h2>Inactive Loan Notice</h2><p>Your loan (%s) has shown no payment activity for the past 30 days.</p>"+
				"<p>Outstanding Amount: %s</p>"+
				"<p>Please contact us if you are experiencing difficulties with payments.</p>",
			loanNumber, outstanding.String()),
		SMSText: fmt.Sprintf("No payment activity detected for loan %s in the past 30 days. Please contact us.", loanNumber),
	}
}

// BranchReport summarizes a branch's disbursed loan book for its manager.
type BranchReportData struct {
	BranchID     string
	TotalLoans   int
	TotalAmount  decimal.Decimal
	TotalPaid    decimal.Decimal
	OverdueLoans int
}

func BranchReport(data BranchReportData) Message {
	return Message{
		Subject: "Daily Loan Status Report",
		EmailHTML: fmt.Sprintf(
			"<h2>Daily Loan Status Report</h2><p>Branch ID: %s</p>"+
				"<p>Total Active Loans: %d</p><p>Total Loan Amount: %s</p>"+
				"<p>Total Amount Paid: %s</p><p>Overdue Loans: %d</p>",
			data.BranchID, data.TotalLoans, data.TotalAmount.String(), data.TotalPaid.String(), data.OverdueLoans),
		SMSText: fmt.Sprintf("Branch %s: %d active loans, %s paid of %s, %d overdue.",
			data.BranchID, data.TotalLoans, data.TotalPaid.String(), data.TotalAmount.String(), data.OverdueLoans),
	}
}
