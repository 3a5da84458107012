package queues

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/engine"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/workqueue"
)

// PendingConsumer re-evaluates accounts that were promoted to candidates but
// haven't reached a terminal status yet. Keys are "postID~username"; the
// engine hands it new candidates through the RecheckScheduler interface.
//
// An account cycles through this queue until one of: a rule produces an
// auto-ban verdict, the account becomes unreachable (purged, or retired if
// already banned), operator feedback lands a terminal status, or the pending
// retention window runs out and the account is shelved inactive.
type PendingConsumer struct {
	Logger *slog.Logger
	Engine *engine.Engine
	Queue  workqueue.Queue
	// Zero means DefaultDrainBudget.
	Budget time.Duration
	// Accounts pending longer than this with no verdict are marked inactive
	// and dropped from the queue. Zero disables the sweep.
	MaxPendingAge time.Duration
}

var _ engine.RecheckScheduler = (*PendingConsumer)(nil)

func (c *PendingConsumer) ScheduleRecheck(ctx context.Context, postID, username string, dueAt time.Time) error {
	return c.Queue.Add(ctx, joinKey(postID, username), dueAt)
}

func (c *PendingConsumer) budget() time.Duration {
	if c.Budget > 0 {
		return c.Budget
	}
	return DefaultDrainBudget
}

// Tick drains all due rechecks and returns how many were handled.
func (c *PendingConsumer) Tick(ctx context.Context) (int, error) {
	n, err := workqueue.Drain(ctx, c.Logger, c.Queue, time.Now(), c.budget(), c.handle)
	queueProcessed.WithLabelValues("pending").Add(float64(n))
	return n, err
}

func (c *PendingConsumer) handle(ctx context.Context, key string) error {
	_, username, err := splitKey2(key)
	if err != nil {
		// nothing useful to retry; drop it
		c.Logger.Warn("dropping malformed pending item", "key", key)
		return c.Queue.Remove(ctx, key)
	}
	logger := c.Logger.With("username", username)

	rec, err := c.Engine.Statuses.Get(ctx, username)
	if err != nil {
		// store hiccup; item stays queued and the next tick retries
		return err
	}
	if rec != nil && rec.Status.Terminal() {
		// banned accounts get one last reachability check on their way out of
		// the queue, so site-level removal is recorded as retired
		if rec.Status == statusstore.StatusBanned {
			if _, err := c.Engine.Accounts.GetAccount(ctx, username); errors.Is(err, reddit.ErrNotFound) {
				if err := c.Engine.ExpireAccount(ctx, username); err != nil {
					return err
				}
			}
		}
		return c.Queue.Remove(ctx, key)
	}
	if rec != nil && c.MaxPendingAge > 0 && time.Since(rec.ReportedAt) > c.MaxPendingAge {
		logger.Info("shelving long-pending account", "pendingSince", rec.ReportedAt)
		if err := c.Engine.Statuses.Set(ctx, username, statusstore.StatusInactive, "no verdict within retention window", ""); err != nil {
			return err
		}
		return c.Queue.Remove(ctx, key)
	}

	verdict, err := c.Engine.EvaluateAccount(ctx, username)
	if errors.Is(err, reddit.ErrNotFound) {
		if err := c.Engine.ExpireAccount(ctx, username); err != nil {
			return err
		}
		return c.Queue.Remove(ctx, key)
	} else if err != nil {
		queueRetries.WithLabelValues("pending").Inc()
		if qerr := c.Queue.Add(ctx, key, time.Now().Add(retryDelay)); qerr != nil {
			return qerr
		}
		return err
	}
	if verdict != nil && verdict.CanAutoBan {
		return c.Queue.Remove(ctx, key)
	}
	// no verdict (or report-only): still pending, look again later
	return c.Queue.Add(ctx, key, time.Now().Add(engine.RecheckDelay))
}
