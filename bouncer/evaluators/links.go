package evaluators

import (
	"context"
	"fmt"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

var defaultAffiliateDomains = []string{"amzn.to", "amzn.com", "shareasale.com", "go.magik.ly", "howl.me"}

// Accounts seeded into product threads to drop affiliate/referral links.
type affiliateSpam struct {
	bouncer.Base
}

func NewAffiliateSpam(d bouncer.Deps) bouncer.Evaluator {
	e := &affiliateSpam{}
	e.Base = bouncer.NewBase(d, "affiliate-spam", "affiliate", true, 3)
	return e
}

func (e *affiliateSpam) domains(ctx context.Context) []string {
	return varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("domains"), defaultAffiliateDomains)
}

func (e *affiliateSpam) PreEvaluateComment(c *reddit.Comment) bool {
	return len(extractURLs(c.Body)) > 0
}

func (e *affiliateSpam) PreEvaluatePost(p *reddit.Post) bool {
	return p.URL != "" || len(extractURLs(p.Selftext)) > 0
}

func (e *affiliateSpam) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	domains := e.domains(ctx)
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		for _, u := range itemURLs(item) {
			if matchesDomain(hostOf(u), domains) {
				return true
			}
		}
		return false
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d items containing affiliate links", matching))
}

var defaultShortenerDomains = []string{"bit.ly", "tinyurl.com", "t.co", "goo.gl", "cutt.ly", "rb.gy", "is.gd"}

// Link shorteners in comments hide the destination from both users and
// domain filters. Humans occasionally do this too, so report-only.
type obfuscatedLinks struct {
	bouncer.Base
}

func NewObfuscatedLinks(d bouncer.Deps) bouncer.Evaluator {
	e := &obfuscatedLinks{}
	e.Base = bouncer.NewBase(d, "obfuscated-links", "obflinks", false, 4)
	return e
}

func (e *obfuscatedLinks) PreEvaluateComment(c *reddit.Comment) bool {
	return len(extractURLs(c.Body)) > 0
}

func (e *obfuscatedLinks) PreEvaluatePost(p *reddit.Post) bool {
	return p.URL != ""
}

func (e *obfuscatedLinks) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	domains := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("shorteners"), defaultShortenerDomains)
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		for _, u := range itemURLs(item) {
			if matchesDomain(hostOf(u), domains) {
				return true
			}
		}
		return false
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d items containing shortened links", matching))
}

var defaultPromoFunnelDomains = []string{"onlyfans.com", "fansly.com", "linktr.ee", "beacons.ai", "allmylinks.com"}

// NSFW promo funnels: history dominated by posts steering to subscription
// or link-hub sites.
type nsfwPromo struct {
	bouncer.Base
}

func NewNSFWPromo(d bouncer.Deps) bouncer.Evaluator {
	e := &nsfwPromo{}
	e.Base = bouncer.NewBase(d, "nsfw-promo-funnel", "nsfwpromo", true, 5)
	return e
}

func (e *nsfwPromo) PreEvaluatePost(p *reddit.Post) bool {
	return p.NSFW
}

func (e *nsfwPromo) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	domains := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("domains"), defaultPromoFunnelDomains)
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		for _, u := range itemURLs(item) {
			if matchesDomain(hostOf(u), domains) {
				return true
			}
		}
		return false
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	// verified accounts funneling to their own page are promo, not bots
	if am.Verified {
		e.DowngradeToReport()
	}
	return e.Hit(fmt.Sprintf("%d items funneling to promo sites", matching))
}
