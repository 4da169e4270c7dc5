package durable

import (
	"fmt"
	"time"
)

// ResolveIdentity picks the effective instance id for a pipeline start, given
// the outcome of describing the logical id.
//
// A still-running instance keeps the logical id so the new process attaches
// to it. A never-seen id starts fresh under the logical id. A terminal
// instance, or an indeterminate lookup, gets a time-suffixed id: terminal ids
// are burned, and when the previous run's fate is unknown a fresh identity is
// the safe choice.
func ResolveIdentity(logicalID string, status Status, queryErr error, now time.Time) string {
	if queryErr == nil && status == StatusRunning {
		return logicalID
	}
	if IsNotFoundError(queryErr) {
		return logicalID
	}
	return fmt.Sprintf("%s-%d", logicalID, now.Unix())
}
