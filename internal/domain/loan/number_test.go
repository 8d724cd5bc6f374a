package loan

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateNumberFormat(t *testing.T) {
	now := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	n := GenerateNumber(now, "Main Branch")
	if !strings.HasPrefix(n, "LN") {
		t.Fatalf("expected LN prefix, got %s", n)
	}
	if !strings.HasSuffix(n, "MAI") {
		t.Fatalf("expected branch suffix MAI, got %s", n)
	}
	// LN + 6 time digits + 3 random digits + 3 branch letters
	if len(n) != 14 {
		t.Fatalf("expected 14 characters, got %d (%s)", len(n), n)
	}
}

func TestGenerateNumberShortBranchName(t *testing.T) {
	n := GenerateNumber(time.Now(), "hq")
	if !strings.HasSuffix(n, "HQ") {
		t.Fatalf("expected uppercased short branch suffix, got %s", n)
	}
}
