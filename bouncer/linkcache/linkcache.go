// Bounded-TTL cache of account social links, so evaluators never block on a
// live profile lookup. Misses are distinct from empty link lists: a miss
// means "not fetched yet", and the social-link queue owns refilling it.
package linkcache

import (
	"context"
)

type Store interface {
	// Get returns the cached links and whether the username was present.
	Get(ctx context.Context, username string) ([]string, bool, error)
	Set(ctx context.Context, username string, links []string) error
	Purge(ctx context.Context, username string) error
}
