package evaluators

import (
	"context"
	"fmt"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

// Compromised or purchased accounts: years old, dormant, then abruptly
// revived to pump out NSFW promo content.
type zombieNSFW struct {
	bouncer.Base
}

func NewZombieNSFW(d bouncer.Deps) bouncer.Evaluator {
	e := &zombieNSFW{}
	e.Base = bouncer.NewBase(d, "zombie-nsfw", "zombiensfw", true, 10)
	return e
}

func (e *zombieNSFW) PreEvaluatePost(p *reddit.Post) bool {
	return p.NSFW
}

func (e *zombieNSFW) PreEvaluateUser(ctx context.Context, am *reddit.AccountMeta) bool {
	minAgeDays := varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("minagedays"), 365)
	return am.Age(time.Now()) > time.Duration(minAgeDays)*24*time.Hour
}

func (e *zombieNSFW) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	dormantDays := varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("dormantdays"), 365)
	if dormantGap(am, history) < time.Duration(dormantDays)*24*time.Hour {
		return false
	}
	minPosts := int(varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("minposts"), int64(e.BanContentThreshold())))
	nsfwPosts := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindPost && item.NSFW
	})
	if nsfwPosts < minPosts {
		return false
	}
	return e.Hit(fmt.Sprintf("dormant account revived with %d NSFW posts", nsfwPosts))
}

// Same revival pattern without the NSFW tell: long-dead account suddenly
// posting at volume. Lower confidence, so a human reviews it.
type zombie struct {
	bouncer.Base
}

func NewZombie(d bouncer.Deps) bouncer.Evaluator {
	e := &zombie{}
	e.Base = bouncer.NewBase(d, "zombie", "zombie", false, 15)
	return e
}

func (e *zombie) PreEvaluatePost(p *reddit.Post) bool {
	return true
}

func (e *zombie) PreEvaluateUser(ctx context.Context, am *reddit.AccountMeta) bool {
	minAgeDays := varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("minagedays"), 730)
	return am.Age(time.Now()) > time.Duration(minAgeDays)*24*time.Hour
}

func (e *zombie) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	dormantDays := varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("dormantdays"), 545)
	gap := dormantGap(am, history)
	if gap < time.Duration(dormantDays)*24*time.Hour {
		return false
	}
	recent := countMatching(history, func(item *reddit.HistoryItem) bool {
		return time.Since(item.CreatedAt) < 7*24*time.Hour
	})
	if recent < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("account dormant %d days then %d items in a week", int(gap.Hours()/24), recent))
}
