package queues

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/engine"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/linkcache"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/workqueue"
)

// SocialLinkConsumer refreshes the social-link cache in the background so
// evaluator pre-filters never block on a profile lookup. Keys are bare
// usernames; the social-link rule schedules a fetch whenever it sees a cache
// miss.
type SocialLinkConsumer struct {
	Logger  *slog.Logger
	Fetcher reddit.SocialLinkFetcher
	Cache   linkcache.Store
	Queue   workqueue.Queue
	// Zero means DefaultDrainBudget.
	Budget time.Duration
}

var _ engine.LinkFetchScheduler = (*SocialLinkConsumer)(nil)

func (c *SocialLinkConsumer) ScheduleLinkFetch(ctx context.Context, username string) error {
	return c.Queue.Add(ctx, username, time.Now())
}

func (c *SocialLinkConsumer) budget() time.Duration {
	if c.Budget > 0 {
		return c.Budget
	}
	return DefaultDrainBudget
}

func (c *SocialLinkConsumer) Tick(ctx context.Context) (int, error) {
	n, err := workqueue.Drain(ctx, c.Logger, c.Queue, time.Now(), c.budget(), c.handle)
	queueProcessed.WithLabelValues("sociallinks").Add(float64(n))
	return n, err
}

func (c *SocialLinkConsumer) handle(ctx context.Context, username string) error {
	links, err := c.Fetcher.GetSocialLinks(ctx, username)
	if errors.Is(err, reddit.ErrNotFound) {
		// account gone; cache the empty answer so nothing re-schedules it
		links = nil
	} else if err != nil {
		queueRetries.WithLabelValues("sociallinks").Inc()
		if qerr := c.Queue.Add(ctx, username, time.Now().Add(retryDelay)); qerr != nil {
			return qerr
		}
		return err
	}
	if err := c.Cache.Set(ctx, username, links); err != nil {
		return err
	}
	return c.Queue.Remove(ctx, username)
}
