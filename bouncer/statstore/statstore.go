package statstore

import (
	"context"
	"time"
)

// Hit statistics for one evaluator. HitCount is monotonically non-decreasing.
type HitStats struct {
	HitCount int64
	LastHit  time.Time
}

type StatStore interface {
	// Hit records a fresh positive verdict: one atomic increment-and-stamp.
	Hit(ctx context.Context, name string, at time.Time) error
	Get(ctx context.Context, name string) (HitStats, error)
	All(ctx context.Context) (map[string]HitStats, error)
}
