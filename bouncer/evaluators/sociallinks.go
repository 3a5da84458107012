package evaluators

import (
	"context"
	"fmt"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

var defaultFlaggedLinkDomains = []string{"onlyfans.com", "fansly.com", "throne.com", "t.me"}

// Flagged domains in the account's profile social links. The only evaluator
// doing a network-adjacent lookup in its user pre-filter: it reads the
// social-link cache, and on a miss schedules a background fetch and treats
// the account as ineligible for this run (fail closed).
type socialLinkSpam struct {
	bouncer.Base
	links []string
}

func NewSocialLinkSpam(d bouncer.Deps) bouncer.Evaluator {
	e := &socialLinkSpam{}
	e.Base = bouncer.NewBase(d, "social-link-spam", "sociallinks", false, 1)
	return e
}

func (e *socialLinkSpam) PreEvaluateComment(c *reddit.Comment) bool { return true }
func (e *socialLinkSpam) PreEvaluatePost(p *reddit.Post) bool       { return true }

func (e *socialLinkSpam) PreEvaluateUser(ctx context.Context, am *reddit.AccountMeta) bool {
	links, ok, err := e.Deps.Links.Get(ctx, am.Username)
	if err != nil {
		e.Deps.Logger.Warn("social link cache read failed", "username", am.Username, "err", err)
		return false
	}
	if !ok {
		if e.Deps.LinkFetches != nil {
			if err := e.Deps.LinkFetches.ScheduleLinkFetch(ctx, am.Username); err != nil {
				e.Deps.Logger.Warn("scheduling social link fetch failed", "username", am.Username, "err", err)
			}
		}
		return false
	}
	e.links = links
	return len(links) > 0
}

func (e *socialLinkSpam) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	links := e.links
	if links == nil {
		// direct evaluation path (queues) skips the pre-filter
		cached, ok, err := e.Deps.Links.Get(ctx, am.Username)
		if err != nil || !ok {
			return false
		}
		links = cached
	}
	domains := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("domains"), defaultFlaggedLinkDomains)
	for _, link := range links {
		if matchesDomain(hostOf(link), domains) {
			// needs history corroboration before anything stronger than a report
			promo := countMatching(history, func(item *reddit.HistoryItem) bool {
				return item.NSFW || len(itemURLs(item)) > 0
			})
			if promo >= e.ThresholdVar(ctx) {
				return e.Hit(fmt.Sprintf("flagged social link %s with %d promo items", hostOf(link), promo))
			}
		}
	}
	return false
}
