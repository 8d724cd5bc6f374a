package loan

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const numberPrefix = "LN"

// GenerateNumber builds a human-readable loan number: fixed prefix, the
// last six digits of the unix-milli clock, three random digits, and the
// first three letters of the branch name uppercased. Collisions are
// possible; callers retry against the unique index.
func GenerateNumber(now time.Time, branchName string) string {
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}

	branchPrefix := strings.ToUpper(branchName)
	if len(branchPrefix) > 3 {
		branchPrefix = branchPrefix[:3]
	}

	return fmt.Sprintf("%s%s%03d%s", numberPrefix, millis, rand.Intn(1000), branchPrefix)
}
