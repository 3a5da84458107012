// Consumers for the time-scored work queues. Each consumer owns one queue
// and exposes a Tick method the scheduler fires periodically; a tick drains
// due items under a wall-clock budget. Handlers own item lifecycle: remove
// on resolution, re-add to retry. Because queues deduplicate by key and
// terminal statuses short-circuit evaluation, overlapping or repeated ticks
// are harmless.
package queues

import (
	"fmt"
	"strings"
	"time"
)

const keySep = "~"

// Soft per-tick drain deadline when a consumer doesn't set one.
const DefaultDrainBudget = 30 * time.Second

// Retry delay for transient failures (network, rate limits).
const retryDelay = 5 * time.Minute

func joinKey(parts ...string) string {
	return strings.Join(parts, keySep)
}

func splitKey2(key string) (string, string, error) {
	a, b, ok := strings.Cut(key, keySep)
	if !ok {
		return "", "", fmt.Errorf("malformed queue key: %q", key)
	}
	return a, b, nil
}
