package evaluators

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

var defaultFarmSubreddits = []string{"aww", "pics", "funny", "mildlyinteresting", "interestingasfuck"}

func isImageURL(raw string) bool {
	host := hostOf(raw)
	if host == "i.redd.it" || host == "i.imgur.com" {
		return true
	}
	lower := strings.ToLower(raw)
	return strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".gif")
}

// Karma farming: image-only posting into high-traffic default subs, no
// comments anywhere. Farmed accounts get sold, so worth a report before
// they turn into something worse.
type mediaFarm struct {
	bouncer.Base
}

func NewMediaFarm(d bouncer.Deps) bouncer.Evaluator {
	e := &mediaFarm{}
	e.Base = bouncer.NewBase(d, "mixed-media-farm", "mediafarm", false, 10)
	return e
}

func (e *mediaFarm) PreEvaluatePost(p *reddit.Post) bool {
	return isImageURL(p.URL)
}

func (e *mediaFarm) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	farmSubs := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("subreddits"), defaultFarmSubreddits)
	comments := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindComment
	})
	if comments > 0 {
		return false
	}
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		if item.Kind != reddit.KindPost || !isImageURL(item.URL) {
			return false
		}
		for _, sub := range farmSubs {
			if strings.EqualFold(item.Subreddit, sub) {
				return true
			}
		}
		return false
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d image posts to farm subreddits and zero comments", matching))
}

// A pinned profile post funneling off-site, with history that only steers
// readers to the profile.
type pinnedPromo struct {
	bouncer.Base
}

func NewPinnedPromo(d bouncer.Deps) bouncer.Evaluator {
	e := &pinnedPromo{}
	e.Base = bouncer.NewBase(d, "pinned-promo", "pinnedpromo", false, 5)
	return e
}

var defaultProfileSteerPhrases = []string{"check my profile", "link in my profile", "see my pinned post", "pinned on my profile"}

func (e *pinnedPromo) PreEvaluateComment(c *reddit.Comment) bool {
	return containsAnyFold(c.Body, defaultProfileSteerPhrases)
}

func (e *pinnedPromo) PreEvaluatePost(p *reddit.Post) bool {
	return p.Pinned
}

func (e *pinnedPromo) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	hasPinnedFunnel := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindPost && item.Pinned && len(itemURLs(item)) > 0
	}) > 0
	if !hasPinnedFunnel {
		return false
	}
	phrases := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("phrases"), defaultProfileSteerPhrases)
	steering := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindComment && containsAnyFold(item.Body, phrases)
	})
	if steering < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("pinned off-site funnel with %d comments steering to profile", steering))
}
