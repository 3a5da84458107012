package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/engine"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/evaluators"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/linkcache"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/queues"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/workqueue"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// Accounts pending longer than this without a verdict get shelved inactive.
const maxPendingAge = 28 * 24 * time.Hour

const linkCacheTTL = 7 * 24 * time.Hour

type Server struct {
	logger    *slog.Logger
	engine    *engine.Engine
	client    *reddit.Client
	rdb       *redis.Client
	subreddit string
	pollLimit int

	pending  *queues.PendingConsumer
	external *queues.ExternalSubmissionConsumer
	social   *queues.SocialLinkConsumer
	feedback *queues.FeedbackConsumer

	tickInterval time.Duration

	// poll cursors; only touched from the tick goroutine
	lastCommentID string
	lastPostID    string
}

type Config struct {
	Logger          *slog.Logger
	RedisURL        string
	DatabaseURL     string
	RedditEndpoint  string
	RedditRateLimit int
	Subreddit       string
	TickInterval    time.Duration
	DrainBudget     time.Duration
	SetsFileJSON    string
	PollLimit       int
}

// logSink records classification outcomes to the structured log, where
// downstream tooling (ban executors, report builders) picks them up.
type logSink struct {
	logger *slog.Logger
}

var _ engine.ClassificationSink = (*logSink)(nil)

func (s *logSink) Submit(ctx context.Context, username string, status statusstore.UserStatus, reason string) error {
	s.logger.Info("classification outcome", "username", username, "status", status, "reason", reason)
	return nil
}

func NewServer(config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	client := reddit.NewClient(config.RedditEndpoint, config.RedditRateLimit)

	statuses, err := statusstore.NewGormStatusStore(strings.TrimPrefix(config.DatabaseURL, "sqlite://"), logger)
	if err != nil {
		return nil, fmt.Errorf("initializing status store: %w", err)
	}

	var vars varstore.Store
	var stats statstore.StatStore
	var links linkcache.Store
	var pendingQ, externalQ, socialQ, feedbackQ workqueue.Queue
	var rdb *redis.Client
	if config.RedisURL != "" {
		// generic client, for poll cursor state
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %w", err)
		}
		rdb = redis.NewClient(opt)
		// check redis connection
		_, err = rdb.Ping(context.TODO()).Result()
		if err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}

		rvars, err := varstore.NewRedisVarStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis varstore: %w", err)
		}
		vars = rvars

		rstats, err := statstore.NewRedisStatStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis statstore: %w", err)
		}
		stats = rstats

		rlinks, err := linkcache.NewRedisStore(config.RedisURL, linkCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis linkcache: %w", err)
		}
		links = rlinks

		pendingQ = workqueue.NewRedisQueue(rdb, "pending")
		externalQ = workqueue.NewRedisQueue(rdb, "external")
		socialQ = workqueue.NewRedisQueue(rdb, "sociallinks")
		feedbackQ = workqueue.NewRedisQueue(rdb, "feedback")
	} else {
		mvars := varstore.NewMemVarStore()
		vars = mvars
		stats = statstore.NewMemStatStore()
		links = linkcache.NewMemStore(5_000, linkCacheTTL)
		pendingQ = workqueue.NewMemQueue()
		externalQ = workqueue.NewMemQueue()
		socialQ = workqueue.NewMemQueue()
		feedbackQ = workqueue.NewMemQueue()
	}

	if config.SetsFileJSON != "" {
		mvars, ok := vars.(*varstore.MemVarStore)
		if !ok {
			return nil, fmt.Errorf("sets-file-json requires in-memory stores (no redis-url)")
		}
		if err := mvars.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("initializing in-process varstore: %w", err)
		}
		logger.Info("loaded rule settings from JSON", "path", config.SetsFileJSON)
	}

	social := &queues.SocialLinkConsumer{
		Logger:  logger,
		Fetcher: client,
		Cache:   links,
		Queue:   socialQ,
		Budget:  config.DrainBudget,
	}

	eng := &engine.Engine{
		Logger:   logger,
		Accounts: client,
		History:  client,
		Vars:     vars,
		Stats:    stats,
		Statuses: statuses,
		Sink:     &logSink{logger: logger},
		Registry: evaluators.DefaultRegistry(),
		EvalDeps: engine.Deps{
			Logger:      logger,
			Vars:        vars,
			Links:       links,
			LinkFetches: social,
		},
	}

	pending := &queues.PendingConsumer{
		Logger:        logger,
		Engine:        eng,
		Queue:         pendingQ,
		Budget:        config.DrainBudget,
		MaxPendingAge: maxPendingAge,
	}
	eng.Scheduler = pending

	s := &Server{
		logger:       logger,
		engine:       eng,
		client:       client,
		rdb:          rdb,
		subreddit:    config.Subreddit,
		pollLimit:    config.PollLimit,
		pending:      pending,
		external:     &queues.ExternalSubmissionConsumer{Logger: logger, Engine: eng, Queue: externalQ, Budget: config.DrainBudget},
		social:       social,
		feedback:     &queues.FeedbackConsumer{Logger: logger, Statuses: statuses, Queue: feedbackQ, Budget: config.DrainBudget},
		tickInterval: config.TickInterval,
	}
	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// Run polls events and drains queues on a cron schedule until the context is
// cancelled or a termination signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.readCursors(ctx); err != nil {
		s.logger.Warn("reading poll cursors failed, starting fresh", "err", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.tickInterval), func() {
		s.tick(ctx)
	}); err != nil {
		return err
	}
	if _, err := c.AddFunc("@daily", func() {
		s.logDailySummary(ctx)
	}); err != nil {
		return err
	}
	c.Start()
	s.logger.Info("scheduler running", "subreddit", s.subreddit, "interval", s.tickInterval)

	<-ctx.Done()
	s.logger.Info("shutdown signal received")
	// let an in-flight tick finish
	<-c.Stop().Done()
	if err := s.persistCursors(context.Background()); err != nil {
		s.logger.Error("persisting poll cursors failed", "err", err)
	}
	return nil
}

// tick settles everything that is due: new events enter the pre-filter gate,
// then all four consumers drain concurrently. One consumer failing never
// stops the others.
func (s *Server) tick(ctx context.Context) {
	start := time.Now()
	tickCount.Inc()
	defer func() {
		tickDuration.Observe(time.Since(start).Seconds())
	}()

	s.pollEvents(ctx)

	type namedConsumer struct {
		name string
		tick func(context.Context) (int, error)
	}
	consumers := []namedConsumer{
		{"pending", s.pending.Tick},
		{"external", s.external.Tick},
		{"sociallinks", s.social.Tick},
		{"feedback", s.feedback.Tick},
	}

	var wg sync.WaitGroup
	for _, con := range consumers {
		wg.Add(1)
		go func(con namedConsumer) {
			defer wg.Done()
			n, err := con.tick(ctx)
			if err != nil {
				s.logger.Error("queue drain failed", "queue", con.name, "err", err)
				return
			}
			if n > 0 {
				s.logger.Info("queue drained", "queue", con.name, "processed", n)
			}
		}(con)
	}
	wg.Wait()

	if err := s.persistCursors(ctx); err != nil {
		s.logger.Error("persisting poll cursors failed", "err", err)
	}
}

// pollEvents fetches the newest subreddit content and feeds anything not yet
// seen through the engine, oldest first.
func (s *Server) pollEvents(ctx context.Context) {
	comments, err := s.client.GetNewComments(ctx, s.subreddit, s.pollLimit)
	if err != nil {
		s.logger.Error("polling comments failed", "err", err)
	} else {
		fresh := 0
		for i := len(comments) - 1; i >= 0; i-- {
			c := comments[i]
			if s.lastCommentID != "" && c.ID <= s.lastCommentID {
				continue
			}
			fresh++
			if err := s.engine.ProcessComment(ctx, &c); err != nil {
				s.logger.Error("processing comment failed", "commentID", c.ID, "err", err)
			}
		}
		if len(comments) > 0 {
			s.lastCommentID = comments[0].ID
		}
		if fresh > 0 {
			s.logger.Debug("polled comments", "fresh", fresh)
		}
	}

	posts, err := s.client.GetNewPosts(ctx, s.subreddit, s.pollLimit)
	if err != nil {
		s.logger.Error("polling posts failed", "err", err)
		return
	}
	for i := len(posts) - 1; i >= 0; i-- {
		p := posts[i]
		if s.lastPostID != "" && p.ID <= s.lastPostID {
			continue
		}
		if err := s.engine.ProcessPost(ctx, &p); err != nil {
			s.logger.Error("processing post failed", "postID", p.ID, "err", err)
		}
	}
	if len(posts) > 0 {
		s.lastPostID = posts[0].ID
	}
}

var commentCursorKey = "bouncer/comment-cursor"
var postCursorKey = "bouncer/post-cursor"

func (s *Server) readCursors(ctx context.Context) error {
	// if redis isn't configured, just skip
	if s.rdb == nil {
		s.logger.Info("redis not configured, skipping cursor read")
		return nil
	}
	val, err := s.rdb.Get(ctx, commentCursorKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	s.lastCommentID = val
	val, err = s.rdb.Get(ctx, postCursorKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	s.lastPostID = val
	if s.lastCommentID != "" || s.lastPostID != "" {
		s.logger.Info("resuming from persisted poll cursors", "comment", s.lastCommentID, "post", s.lastPostID)
	}
	return nil
}

func (s *Server) persistCursors(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	if s.lastCommentID != "" {
		if err := s.rdb.Set(ctx, commentCursorKey, s.lastCommentID, 14*24*time.Hour).Err(); err != nil {
			return err
		}
	}
	if s.lastPostID != "" {
		if err := s.rdb.Set(ctx, postCursorKey, s.lastPostID, 14*24*time.Hour).Err(); err != nil {
			return err
		}
	}
	return nil
}

// logDailySummary reports which evaluators produced verdicts in the last day.
// An evaluator with no recorded last hit counts as aged out.
func (s *Server) logDailySummary(ctx context.Context) {
	cutoff := time.Now().Add(-24 * time.Hour)
	all, err := s.engine.Stats.All(ctx)
	if err != nil {
		s.logger.Error("reading evaluator stats failed", "err", err)
		return
	}
	var active, agedOut int
	for name, hs := range all {
		if hs.LastHit.Before(cutoff) {
			agedOut++
			continue
		}
		active++
		s.logger.Info("evaluator active in last day", "evaluator", name, "hits", hs.HitCount, "lastHit", hs.LastHit)
	}
	s.logger.Info("daily evaluator summary", "active", active, "agedOut", agedOut)
}
