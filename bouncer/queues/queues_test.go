package queues

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/engine"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/linkcache"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/workqueue"

	"github.com/stretchr/testify/assert"
	tassert "github.com/stretchr/testify/assert"
)

func pendingFixture() (*PendingConsumer, *engine.Engine, *reddit.MockClient, *engine.RecordingSink, *workqueue.MemQueue) {
	eng, mock, sink := engine.EngineTestFixture()
	q := workqueue.NewMemQueue()
	pc := &PendingConsumer{
		Logger: slog.Default(),
		Engine: eng,
		Queue:  q,
	}
	eng.Scheduler = pc
	return pc, eng, mock, sink, q
}

func TestPendingUnreachableBecomesPurged(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	pc, eng, _, sink, q := pendingFixture()

	// tracked but never seeded in the mock: unreachable on recheck
	assert.NoError(eng.Statuses.Set(ctx, "ghost", statusstore.StatusPending, "pre-filter match", ""))
	assert.NoError(pc.ScheduleRecheck(ctx, "p1", "ghost", time.Now().Add(-time.Minute)))

	n, err := pc.Tick(ctx)
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Equal(0, q.Len())

	rec, err := eng.Statuses.Get(ctx, "ghost")
	assert.NoError(err)
	assert.Equal(statusstore.StatusPurged, rec.Status)
	assert.Len(sink.ByStatus(statusstore.StatusPurged), 1)
}

func TestPendingBannedThenDeletedBecomesRetired(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	pc, eng, mock, sink, q := pendingFixture()

	engine.TestAccount(mock, "spammer", "beep", "filler")
	assert.NoError(pc.ScheduleRecheck(ctx, "p1", "spammer", time.Now().Add(-time.Minute)))

	// first tick: keyword rule hits, auto-ban, item leaves the queue
	_, err := pc.Tick(ctx)
	assert.NoError(err)
	rec, _ := eng.Statuses.Get(ctx, "spammer")
	assert.Equal(statusstore.StatusBanned, rec.Status)
	assert.Equal(0, q.Len())

	// account later deleted site-side; a fresh queue entry notices
	mock.RemoveAccount("spammer")
	assert.NoError(pc.ScheduleRecheck(ctx, "p2", "spammer", time.Now().Add(-time.Minute)))
	_, err = pc.Tick(ctx)
	assert.NoError(err)

	rec, _ = eng.Statuses.Get(ctx, "spammer")
	assert.Equal(statusstore.StatusRetired, rec.Status)
	assert.Len(sink.ByStatus(statusstore.StatusRetired), 1)
	assert.Equal(0, q.Len())
}

func TestPendingRequeueNeverBansTwice(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	pc, _, mock, sink, q := pendingFixture()

	engine.TestAccount(mock, "spammer", "beep")
	assert.NoError(pc.ScheduleRecheck(ctx, "p1", "spammer", time.Now().Add(-time.Minute)))
	_, err := pc.Tick(ctx)
	assert.NoError(err)
	assert.Len(sink.ByStatus(statusstore.StatusBanned), 1)

	// a stale duplicate entry: terminal status short-circuits, no second ban
	assert.NoError(pc.ScheduleRecheck(ctx, "p1", "spammer", time.Now().Add(-time.Minute)))
	_, err = pc.Tick(ctx)
	assert.NoError(err)
	assert.Len(sink.ByStatus(statusstore.StatusBanned), 1)
	assert.Equal(0, q.Len())
}

func TestPendingNoVerdictRequeues(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	pc, eng, mock, _, q := pendingFixture()

	engine.TestAccount(mock, "quiet", "nothing to see")
	assert.NoError(eng.Statuses.Set(ctx, "quiet", statusstore.StatusPending, "pre-filter match", ""))
	assert.NoError(pc.ScheduleRecheck(ctx, "p1", "quiet", time.Now().Add(-time.Minute)))

	n, err := pc.Tick(ctx)
	assert.NoError(err)
	assert.Equal(1, n)

	// still queued, but not due yet
	assert.Equal(1, q.Len())
	due, err := q.Due(ctx, time.Now())
	assert.NoError(err)
	assert.Empty(due)
}

func TestPendingRetentionSweep(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	pc, eng, mock, _, q := pendingFixture()
	pc.MaxPendingAge = time.Millisecond

	engine.TestAccount(mock, "lurker", "nothing to see")
	assert.NoError(eng.Statuses.Set(ctx, "lurker", statusstore.StatusPending, "pre-filter match", ""))
	time.Sleep(5 * time.Millisecond)
	assert.NoError(pc.ScheduleRecheck(ctx, "p1", "lurker", time.Now().Add(-time.Minute)))

	_, err := pc.Tick(ctx)
	assert.NoError(err)

	rec, _ := eng.Statuses.Get(ctx, "lurker")
	assert.Equal(statusstore.StatusInactive, rec.Status)
	assert.Equal(0, q.Len())
}

func TestExternalSubmissionOneShot(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	_, eng, mock, _, pendingQ := pendingFixture()

	extQ := workqueue.NewMemQueue()
	ec := &ExternalSubmissionConsumer{
		Logger: slog.Default(),
		Engine: eng,
		Queue:  extQ,
	}

	engine.TestAccount(mock, "reported", "nothing suspicious")
	assert.NoError(ec.Submit(ctx, "reported"))

	n, err := ec.Tick(ctx)
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Equal(0, extQ.Len())

	// tracked pending and handed to the recheck queue like any candidate
	rec, err := eng.Statuses.Get(ctx, "reported")
	assert.NoError(err)
	assert.Equal(statusstore.StatusPending, rec.Status)
	assert.Equal(1, pendingQ.Len())
}

func TestExternalSubmissionUnreachable(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	_, eng, _, sink, _ := pendingFixture()

	extQ := workqueue.NewMemQueue()
	ec := &ExternalSubmissionConsumer{
		Logger: slog.Default(),
		Engine: eng,
		Queue:  extQ,
	}

	assert.NoError(ec.Submit(ctx, "vanished"))
	_, err := ec.Tick(ctx)
	assert.NoError(err)
	assert.Equal(0, extQ.Len())

	rec, _ := eng.Statuses.Get(ctx, "vanished")
	assert.Equal(statusstore.StatusPurged, rec.Status)
	assert.Len(sink.ByStatus(statusstore.StatusPurged), 1)
}

func TestSocialLinkConsumer(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mock := reddit.NewMockClient()
	mock.Links["promo"] = []string{"https://onlyfans.com/promo"}

	cache := linkcache.NewMemStore(100, time.Hour)
	q := workqueue.NewMemQueue()
	sc := &SocialLinkConsumer{
		Logger:  slog.Default(),
		Fetcher: mock,
		Cache:   cache,
		Queue:   q,
	}

	assert.NoError(sc.ScheduleLinkFetch(ctx, "promo"))
	n, err := sc.Tick(ctx)
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Equal(0, q.Len())

	links, ok, err := cache.Get(ctx, "promo")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal([]string{"https://onlyfans.com/promo"}, links)
}

func TestSocialLinkConsumerRetriesOnFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	mock := reddit.NewMockClient()
	mock.LinkErr = tassert.AnError

	cache := linkcache.NewMemStore(100, time.Hour)
	q := workqueue.NewMemQueue()
	sc := &SocialLinkConsumer{
		Logger:  slog.Default(),
		Fetcher: mock,
		Cache:   cache,
		Queue:   q,
	}

	assert.NoError(sc.ScheduleLinkFetch(ctx, "flaky"))
	_, err := sc.Tick(ctx)
	assert.NoError(err)

	// still queued with a future due time; nothing cached
	assert.Equal(1, q.Len())
	due, err := q.Due(ctx, time.Now())
	assert.NoError(err)
	assert.Empty(due)
	_, ok, err := cache.Get(ctx, "flaky")
	assert.NoError(err)
	assert.False(ok)
}

func TestFeedbackOverridesStateMachine(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	statuses := statusstore.NewMemStatusStore()
	q := workqueue.NewMemQueue()
	fc := &FeedbackConsumer{
		Logger:   slog.Default(),
		Statuses: statuses,
		Queue:    q,
	}

	// banned in error; the normal state machine forbids banned -> organic
	assert.NoError(statuses.Set(ctx, "falsepositive", statusstore.StatusBanned, "rule hit", "some-rule"))
	assert.Error(statuses.Set(ctx, "falsepositive", statusstore.StatusOrganic, "", ""))

	assert.NoError(fc.SubmitFeedback(ctx, "falsepositive", statusstore.StatusOrganic))
	// duplicate verdicts collapse to one queue entry
	assert.NoError(fc.SubmitFeedback(ctx, "falsepositive", statusstore.StatusOrganic))
	assert.Equal(1, q.Len())

	n, err := fc.Tick(ctx)
	assert.NoError(err)
	assert.Equal(1, n)
	assert.Equal(0, q.Len())

	rec, err := statuses.Get(ctx, "falsepositive")
	assert.NoError(err)
	assert.Equal(statusstore.StatusOrganic, rec.Status)
}

func TestFeedbackRejectsInvalidStatus(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	fc := &FeedbackConsumer{
		Logger:   slog.Default(),
		Statuses: statusstore.NewMemStatusStore(),
		Queue:    workqueue.NewMemQueue(),
	}
	assert.Error(fc.SubmitFeedback(ctx, "someone", statusstore.StatusPurged))
	assert.Error(fc.SubmitFeedback(ctx, "someone", statusstore.UserStatus("nonsense")))
}
