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

// ExternalSubmissionConsumer handles accounts reported from outside the
// event stream (moderators of other subreddits, manual submissions). Keys
// are bare usernames. Unlike the pending queue these are one-shot: the
// account gets exactly one evaluation pass and leaves the queue regardless
// of outcome, though a promoted account then lives on in the pending queue
// like any other candidate.
type ExternalSubmissionConsumer struct {
	Logger *slog.Logger
	Engine *engine.Engine
	Queue  workqueue.Queue
	// Zero means DefaultDrainBudget.
	Budget time.Duration
}

// Submit enqueues an externally reported account for evaluation.
func (c *ExternalSubmissionConsumer) Submit(ctx context.Context, username string) error {
	return c.Queue.Add(ctx, username, time.Now())
}

func (c *ExternalSubmissionConsumer) budget() time.Duration {
	if c.Budget > 0 {
		return c.Budget
	}
	return DefaultDrainBudget
}

func (c *ExternalSubmissionConsumer) Tick(ctx context.Context) (int, error) {
	n, err := workqueue.Drain(ctx, c.Logger, c.Queue, time.Now(), c.budget(), c.handle)
	queueProcessed.WithLabelValues("external").Add(float64(n))
	return n, err
}

func (c *ExternalSubmissionConsumer) handle(ctx context.Context, username string) error {
	rec, err := c.Engine.Statuses.Get(ctx, username)
	if err != nil {
		return err
	}
	if rec == nil {
		if err := c.Engine.Statuses.Set(ctx, username, statusstore.StatusPending, "external submission", ""); err != nil {
			return err
		}
		if c.Engine.Scheduler != nil {
			if err := c.Engine.Scheduler.ScheduleRecheck(ctx, "external", username, time.Now().Add(engine.RecheckDelay)); err != nil {
				c.Logger.Error("scheduling recheck for external submission failed", "username", username, "err", err)
			}
		}
	}

	_, err = c.Engine.EvaluateAccount(ctx, username)
	if errors.Is(err, reddit.ErrNotFound) {
		if err := c.Engine.ExpireAccount(ctx, username); err != nil {
			return err
		}
	} else if err != nil {
		c.Logger.Error("evaluating external submission failed", "username", username, "err", err)
	}
	return c.Queue.Remove(ctx, username)
}
