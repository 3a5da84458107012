package queues

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/workqueue"
)

// FeedbackConsumer applies operator verdicts on tracked accounts. Keys are
// "username~status", so the queue's dedup-by-key means repeated feedback on
// the same account with the same verdict collapses to one application.
// Feedback outranks the normal state machine: it writes through Override,
// which is how a mistaken ban becomes organic again.
type FeedbackConsumer struct {
	Logger   *slog.Logger
	Statuses statusstore.StatusStore
	Queue    workqueue.Queue
	// Zero means DefaultDrainBudget.
	Budget time.Duration
}

// Statuses an operator may assign. Anything else in the queue is rejected
// at apply time.
var feedbackStatuses = map[statusstore.UserStatus]bool{
	statusstore.StatusBanned:   true,
	statusstore.StatusOrganic:  true,
	statusstore.StatusService:  true,
	statusstore.StatusDeclined: true,
}

// SubmitFeedback enqueues an operator verdict for an account.
func (c *FeedbackConsumer) SubmitFeedback(ctx context.Context, username string, status statusstore.UserStatus) error {
	if !feedbackStatuses[status] {
		return fmt.Errorf("status %q is not a valid feedback verdict", status)
	}
	return c.Queue.Add(ctx, joinKey(username, string(status)), time.Now())
}

func (c *FeedbackConsumer) budget() time.Duration {
	if c.Budget > 0 {
		return c.Budget
	}
	return DefaultDrainBudget
}

func (c *FeedbackConsumer) Tick(ctx context.Context) (int, error) {
	n, err := workqueue.Drain(ctx, c.Logger, c.Queue, time.Now(), c.budget(), c.handle)
	queueProcessed.WithLabelValues("feedback").Add(float64(n))
	return n, err
}

func (c *FeedbackConsumer) handle(ctx context.Context, key string) error {
	username, raw, err := splitKey2(key)
	if err != nil {
		c.Logger.Warn("dropping malformed feedback item", "key", key)
		return c.Queue.Remove(ctx, key)
	}
	status := statusstore.UserStatus(raw)
	if !feedbackStatuses[status] {
		c.Logger.Warn("dropping feedback with invalid status", "key", key)
		return c.Queue.Remove(ctx, key)
	}
	if err := c.Statuses.Override(ctx, username, status, "operator feedback"); err != nil {
		// store hiccup; leave queued for the next tick
		return err
	}
	c.Logger.Info("operator feedback applied", "username", username, "status", status)
	return c.Queue.Remove(ctx, key)
}
