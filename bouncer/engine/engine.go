package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

// How much recent history one classification run looks at.
const DefaultHistoryLimit = 100

// How long until a still-pending account gets rechecked.
const RecheckDelay = 30 * time.Minute

// RecheckScheduler enqueues a pending account for delayed re-evaluation.
// Implemented by the pending queue consumer.
type RecheckScheduler interface {
	ScheduleRecheck(ctx context.Context, postID, username string, dueAt time.Time) error
}

// runtime for executing evaluators, managing candidate state, and recording
// classification outcomes.
//
// NOTE: fields are expected to be non-nil unless marked optional.
type Engine struct {
	Logger   *slog.Logger
	Accounts reddit.AccountFetcher
	History  reddit.HistoryFetcher
	Vars     varstore.Store
	Stats    statstore.StatStore
	Statuses statusstore.StatusStore
	Sink     ClassificationSink
	// Ordered rule registry; registration order is the tie-break when
	// multiple rules would match.
	Registry []EvaluatorFactory
	// Handed to every fresh evaluator instance.
	EvalDeps Deps
	// Optional; nil disables delayed rechecks (candidates are still
	// evaluated immediately).
	Scheduler RecheckScheduler
	// Zero means DefaultHistoryLimit.
	HistoryLimit int
}

// fresh instances, one classification run each
func (eng *Engine) evaluators() []Evaluator {
	out := make([]Evaluator, 0, len(eng.Registry))
	for _, f := range eng.Registry {
		out = append(out, f(eng.EvalDeps))
	}
	return out
}

func (eng *Engine) historyLimit() int {
	if eng.HistoryLimit > 0 {
		return eng.HistoryLimit
	}
	return DefaultHistoryLimit
}

// ProcessComment runs the cheap pre-filter gate on a new comment and, if any
// evaluator finds the author worth tracking, promotes the author to a
// classification candidate: pending status, a scheduled recheck, and one
// immediate evaluation.
func (eng *Engine) ProcessComment(ctx context.Context, c *reddit.Comment) error {
	defer eng.recoverRun("comment", c.Username)
	eventsReceived.WithLabelValues("comment").Inc()
	accepted := func(ev Evaluator) bool { return ev.PreEvaluateComment(c) }
	return eng.maybePromote(ctx, "comment", c.PostID, c.Username, accepted)
}

// ProcessPost is ProcessComment for new posts.
func (eng *Engine) ProcessPost(ctx context.Context, p *reddit.Post) error {
	defer eng.recoverRun("post", p.Username)
	eventsReceived.WithLabelValues("post").Inc()
	accepted := func(ev Evaluator) bool { return ev.PreEvaluatePost(p) }
	return eng.maybePromote(ctx, "post", p.ID, p.Username, accepted)
}

func (eng *Engine) maybePromote(ctx context.Context, eventType, postID, username string, accepted func(Evaluator) bool) error {
	rec, err := eng.Statuses.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("reading status for %s: %w", username, err)
	}
	if rec != nil && rec.Status.Terminal() {
		return nil
	}

	evs := eng.evaluators()
	var eventHits []Evaluator
	for _, ev := range evs {
		if accepted(ev) {
			eventHits = append(eventHits, ev)
		}
	}
	if len(eventHits) == 0 {
		return nil
	}

	// account metadata gate, before any history I/O
	am, err := eng.Accounts.GetAccount(ctx, username)
	if err == reddit.ErrNotFound {
		// author vanished between event and lookup; nothing to track
		return nil
	} else if err != nil {
		return fmt.Errorf("fetching account %s: %w", username, err)
	}
	accountFetches.Inc()

	eligible := false
	for _, ev := range eventHits {
		if ev.PreEvaluateUser(ctx, am) {
			eligible = true
			break
		}
	}
	if !eligible {
		return nil
	}

	candidatesPromoted.WithLabelValues(eventType).Inc()
	eng.Logger.Info("new classification candidate", "username", username, "source", eventType)

	if err := eng.Statuses.Set(ctx, username, statusstore.StatusPending, "pre-filter match", ""); err != nil {
		return err
	}
	if eng.Scheduler != nil {
		if err := eng.Scheduler.ScheduleRecheck(ctx, postID, username, time.Now().Add(RecheckDelay)); err != nil {
			eng.Logger.Error("scheduling recheck failed", "username", username, "err", err)
		}
	}
	_, err = eng.EvaluateAccount(ctx, username)
	return err
}

// EvaluateAccount runs the full ordered registry against one account: one
// history fetch, first positive non-killswitched verdict wins. A rule that
// fails (error or panic) counts as a negative verdict for that rule only.
// Returns nil verdict when no rule matched (the account stays pending).
// Accounts already terminally classified are skipped, which is what makes
// overlapping ticks safe.
func (eng *Engine) EvaluateAccount(ctx context.Context, username string) (*Verdict, error) {
	defer eng.recoverRun("evaluate", username)
	start := time.Now()
	defer func() {
		evalDuration.Observe(time.Since(start).Seconds())
	}()

	rec, err := eng.Statuses.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("reading status for %s: %w", username, err)
	}
	if rec != nil && rec.Status.Terminal() {
		return nil, nil
	}

	// known-legitimate bots are classified service before any rule runs
	if eng.isServiceAccount(ctx, username) {
		if err := eng.Statuses.Set(ctx, username, statusstore.StatusService, "listed service account", ""); err != nil {
			return nil, err
		}
		return nil, nil
	}

	am, err := eng.Accounts.GetAccount(ctx, username)
	if err != nil {
		// including ErrNotFound; callers map unreachable to purged/retired
		return nil, err
	}
	accountFetches.Inc()

	history, err := eng.History.GetHistory(ctx, username, eng.historyLimit())
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", username, err)
	}

	logger := eng.Logger.With("username", username)
	for _, ev := range eng.evaluators() {
		if varstore.KillSwitched(ctx, eng.Vars, ev.KillSwitchKey()) {
			logger.Debug("evaluator killswitched", "evaluator", ev.Name())
			continue
		}
		if !eng.safeEvaluate(ctx, logger, ev, am, history) {
			continue
		}
		verdict := &Verdict{
			Evaluator:  ev.Name(),
			IsBot:      true,
			CanAutoBan: ev.CanAutoBan(),
			Reason:     ev.Reason(),
		}
		verdictCount.WithLabelValues(ev.Name()).Inc()
		if err := eng.Stats.Hit(ctx, ev.Name(), time.Now().UTC()); err != nil {
			logger.Error("recording evaluator hit failed", "evaluator", ev.Name(), "err", err)
		}
		if err := eng.applyVerdict(ctx, username, verdict); err != nil {
			return verdict, err
		}
		logger.Info("account classified", "evaluator", verdict.Evaluator, "autoban", verdict.CanAutoBan, "reason", verdict.Reason)
		return verdict, nil
	}
	return nil, nil
}

// one rule failing never blocks the rest of the pipeline
func (eng *Engine) safeEvaluate(ctx context.Context, logger *slog.Logger, ev Evaluator, am *reddit.AccountMeta, history []reddit.HistoryItem) (hit bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("evaluator panicked", "evaluator", ev.Name(), "err", r)
			ruleErrorCount.WithLabelValues(ev.Name()).Inc()
			hit = false
		}
	}()
	return ev.Evaluate(ctx, am, history)
}

func (eng *Engine) applyVerdict(ctx context.Context, username string, v *Verdict) error {
	if v.CanAutoBan {
		if err := eng.Statuses.Set(ctx, username, statusstore.StatusBanned, v.Reason, v.Evaluator); err != nil {
			return err
		}
		return eng.Sink.Submit(ctx, username, statusstore.StatusBanned, v.Reason)
	}
	// report-only: stays pending, flagged for human review
	return eng.Sink.Submit(ctx, username, statusstore.StatusPending, v.Reason)
}

// ExpireAccount records that a tracked account has become unreachable:
// purged if it never got a verdict, retired if it had already been banned.
func (eng *Engine) ExpireAccount(ctx context.Context, username string) error {
	rec, err := eng.Statuses.Get(ctx, username)
	if err != nil {
		return err
	}
	status := statusstore.StatusPurged
	if rec != nil && rec.Status == statusstore.StatusBanned {
		status = statusstore.StatusRetired
	}
	if rec != nil && rec.Status.Terminal() && rec.Status != statusstore.StatusBanned {
		return nil
	}
	if err := eng.Statuses.Set(ctx, username, status, "account unreachable", ""); err != nil {
		return err
	}
	return eng.Sink.Submit(ctx, username, status, "account unreachable")
}

func (eng *Engine) isServiceAccount(ctx context.Context, username string) bool {
	for _, name := range varstore.StringListOr(ctx, eng.Vars, "service:accounts", nil) {
		if name == username {
			return true
		}
	}
	return false
}

// similar to an HTTP server, we want to recover any panics from rule execution
func (eng *Engine) recoverRun(eventType, username string) {
	if r := recover(); r != nil {
		eng.Logger.Error("classification run exception", "err", r, "username", username, "type", eventType)
	}
}
