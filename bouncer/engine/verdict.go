package engine

import (
	"context"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
)

// The outcome of one classification run. At most one verdict is produced per
// run; the first matching evaluator in registry order wins.
type Verdict struct {
	Evaluator  string
	IsBot      bool
	CanAutoBan bool
	Reason     string
}

// ClassificationSink receives terminal classifications and review requests.
// It owns persistence of moderation artifacts and any resulting action
// (ban, flair, modmail); none of that happens in this package.
type ClassificationSink interface {
	Submit(ctx context.Context, username string, status statusstore.UserStatus, reason string) error
}

// NullSink discards all submissions. Useful for dry-run mode and tests.
type NullSink struct{}

func (NullSink) Submit(ctx context.Context, username string, status statusstore.UserStatus, reason string) error {
	return nil
}
