package evaluators

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

func sortedTimes(history []reddit.HistoryItem, kind reddit.ItemKind) []time.Time {
	var out []time.Time
	for _, item := range history {
		if kind == "" || item.Kind == kind {
			out = append(out, item.CreatedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Posting on a metronome. Humans are bursty; schedulers are not.
type intervalPoster struct {
	bouncer.Base
}

func NewIntervalPoster(d bouncer.Deps) bouncer.Evaluator {
	e := &intervalPoster{}
	e.Base = bouncer.NewBase(d, "interval-poster", "interval", true, 8)
	return e
}

func (e *intervalPoster) PreEvaluatePost(p *reddit.Post) bool { return true }

func (e *intervalPoster) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	times := sortedTimes(history, reddit.KindPost)
	if len(times) < e.ThresholdVar(ctx) {
		return false
	}
	tolerance := time.Duration(varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("tolerancesecs"), 90)) * time.Second

	gaps := make([]time.Duration, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		gaps = append(gaps, times[i].Sub(times[i-1]))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	median := gaps[len(gaps)/2]
	if median < time.Minute {
		// sub-minute medians belong to the sprint rule
		return false
	}
	uniform := 0
	for _, g := range gaps {
		if g > median-tolerance && g < median+tolerance {
			uniform++
		}
	}
	if uniform < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d posts spaced %s apart (+/- %s)", uniform+1, median.Round(time.Second), tolerance))
}

// Very young account producing content at volume.
type youngBurst struct {
	bouncer.Base
}

func NewYoungBurst(d bouncer.Deps) bouncer.Evaluator {
	e := &youngBurst{}
	e.Base = bouncer.NewBase(d, "young-account-burst", "youngburst", false, 20)
	return e
}

func (e *youngBurst) PreEvaluateComment(c *reddit.Comment) bool { return true }
func (e *youngBurst) PreEvaluatePost(p *reddit.Post) bool       { return true }

func (e *youngBurst) PreEvaluateUser(ctx context.Context, am *reddit.AccountMeta) bool {
	minAgeDays := varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("minagedays"), 7)
	return am.Age(time.Now()) < time.Duration(minAgeDays)*24*time.Hour
}

func (e *youngBurst) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	age := am.Age(time.Now())
	if age > 7*24*time.Hour || age < time.Hour {
		return false
	}
	perHour := float64(len(history)) / age.Hours()
	maxPerHour := float64(varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("maxperhour"), 4))
	if len(history) < e.ThresholdVar(ctx) || perHour <= maxPerHour {
		return false
	}
	return e.Hit(fmt.Sprintf("account %s old with %d items (%.1f/hour)", age.Round(time.Hour), len(history), perHour))
}

// More comments per minute than a human can type.
type commentSprint struct {
	bouncer.Base
}

func NewCommentSprint(d bouncer.Deps) bouncer.Evaluator {
	e := &commentSprint{}
	e.Base = bouncer.NewBase(d, "comment-sprint", "sprint", true, 6)
	return e
}

func (e *commentSprint) PreEvaluateComment(c *reddit.Comment) bool { return true }

func (e *commentSprint) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	times := sortedTimes(history, reddit.KindComment)
	window := time.Duration(varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("windowsecs"), 300)) * time.Second
	need := e.ThresholdVar(ctx)

	// longest run of comments inside any sliding window
	best := 0
	for i := range times {
		j := i
		for j < len(times) && times[j].Sub(times[i]) <= window {
			j++
		}
		if j-i > best {
			best = j - i
		}
	}
	if best < need {
		return false
	}
	return e.Hit(fmt.Sprintf("%d comments within %s", best, window))
}
