package loan

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusDisbursed, true},
		{StatusDisbursed, StatusCompleted, true},
		{StatusDisbursed, StatusDefaulted, true},
		{StatusDefaulted, StatusDisbursed, true},
		{StatusCompleted, StatusPending, true},
		{StatusRejected, StatusPending, true},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusDisbursed, false},
		{StatusRejected, StatusCompleted, false},
		{StatusRejected, StatusDefaulted, false},
		{StatusRejected, StatusRejected, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusDisbursed, StatusCompleted, StatusRejected, StatusDefaulted} {
		if !IsValidStatus(s) {
			t.Fatalf("expected %s to be valid", s)
		}
	}
	if IsValidStatus(Status("frozen")) {
		t.Fatalf("expected unknown status to be invalid")
	}
}
