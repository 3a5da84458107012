package engine

import (
	"context"
	"log/slog"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/linkcache"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

// One heuristic bot-detection rule. Implementations are cheap to construct
// and carry per-run state (reason, auto-ban downgrade), so an instance is
// used for exactly one candidate's classification and then discarded.
type Evaluator interface {
	// Unique rule name; the stats and verdict identity.
	Name() string
	// Variable store key of this rule's kill switch.
	KillSwitchKey() string
	// Whether a hit may trigger an automatic ban rather than only a report.
	// May be downgraded during Evaluate.
	CanAutoBan() bool
	// Free-text explanation set during Evaluate on a hit.
	Reason() string
	// Minimum count of matching evidence items for a hit.
	BanContentThreshold() int

	// Pre-filters: pure, in-memory checks deciding whether an event makes
	// its author worth tracking. Returning false is the common case.
	PreEvaluateComment(c *reddit.Comment) bool
	PreEvaluatePost(p *reddit.Post) bool
	// PreEvaluateUser may do at most one lightweight lookup (eg cached
	// social links) and must fail closed: lookup failure means ineligible.
	PreEvaluateUser(ctx context.Context, am *reddit.AccountMeta) bool

	// The expensive step: scans the history snapshot and reports a verdict.
	Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool
}

// Constructs a fresh Evaluator for one classification run.
type EvaluatorFactory func(d Deps) Evaluator

// Schedules a background refresh of an account's cached social links.
type LinkFetchScheduler interface {
	ScheduleLinkFetch(ctx context.Context, username string) error
}

// Shared collaborators handed to every evaluator instance.
type Deps struct {
	Logger *slog.Logger
	Vars   varstore.Store
	Links  linkcache.Store
	// nil when no social-link queue is wired (eg some tests)
	LinkFetches LinkFetchScheduler
}

// Base carries the static identity and per-run verdict state common to all
// evaluators. Concrete rules embed it and override the hooks they care about.
type Base struct {
	Deps Deps

	name      string
	prefix    string
	autoBan   bool
	threshold int
	reason    string
}

func NewBase(d Deps, name, prefix string, autoBan bool, threshold int) Base {
	return Base{
		Deps:      d,
		name:      name,
		prefix:    prefix,
		autoBan:   autoBan,
		threshold: threshold,
	}
}

func (b *Base) Name() string          { return b.name }
func (b *Base) KillSwitchKey() string { return b.prefix + ":killswitch" }
func (b *Base) CanAutoBan() bool      { return b.autoBan }
func (b *Base) Reason() string        { return b.reason }

// BanContentThreshold returns the compiled-in default; rules that honor a
// live override read ThresholdVar instead.
func (b *Base) BanContentThreshold() int { return b.threshold }

// ThresholdVar reads "{prefix}:threshold" from the variable store, falling
// back to the compiled-in threshold.
func (b *Base) ThresholdVar(ctx context.Context) int {
	return int(varstore.IntOr(ctx, b.Deps.Vars, b.VarKey("threshold"), int64(b.threshold)))
}

// VarKey builds "{prefix}:{setting}".
func (b *Base) VarKey(setting string) string { return b.prefix + ":" + setting }

// Hit records the verdict reason and returns true, for use as the tail of
// a successful Evaluate.
func (b *Base) Hit(reason string) bool {
	b.reason = reason
	return true
}

// DowngradeToReport clears auto-ban for this run, eg when evidence suggests
// a shared or borderline-legitimate account.
func (b *Base) DowngradeToReport() { b.autoBan = false }

// default no-op hooks

func (b *Base) PreEvaluateComment(c *reddit.Comment) bool { return false }
func (b *Base) PreEvaluatePost(p *reddit.Post) bool       { return false }
func (b *Base) PreEvaluateUser(ctx context.Context, am *reddit.AccountMeta) bool {
	return true
}
