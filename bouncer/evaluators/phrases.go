package evaluators

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

var defaultGPTPhrases = []string{
	"as an ai language model",
	"i cannot fulfill",
	"it's important to note that",
	"i hope this helps!",
	"certainly! here",
	"in conclusion, it is clear that",
}

// Stock LLM-assistant phrasing pasted straight into comments.
type gptPhrasing struct {
	bouncer.Base
}

func NewGPTPhrasing(d bouncer.Deps) bouncer.Evaluator {
	e := &gptPhrasing{}
	e.Base = bouncer.NewBase(d, "gpt-phrasing", "gptphrase", true, 3)
	return e
}

func (e *gptPhrasing) PreEvaluateComment(c *reddit.Comment) bool {
	return containsAnyFold(c.Body, defaultGPTPhrases)
}

func (e *gptPhrasing) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	phrases := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("phrases"), defaultGPTPhrases)
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindComment && containsAnyFold(item.Body, phrases)
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d comments with assistant-style phrasing", matching))
}

// Heavy em-dash use with uniform comment length is a weak LLM tell; always
// report-only.
type emDash struct {
	bouncer.Base
}

func NewEmDash(d bouncer.Deps) bouncer.Evaluator {
	e := &emDash{}
	e.Base = bouncer.NewBase(d, "em-dash-style", "emdash", false, 10)
	return e
}

func (e *emDash) PreEvaluateComment(c *reddit.Comment) bool {
	return strings.Count(c.Body, "—") >= 2
}

func (e *emDash) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindComment && strings.Count(item.Body, "—") >= 2
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d comments with repeated em-dash styling", matching))
}

var defaultMessengerPhrases = []string{"message me on telegram", "dm me on whatsapp", "text me on telegram", "t.me/"}

// Comments steering users to off-platform messengers.
type telegramHandle struct {
	bouncer.Base
}

func NewTelegramHandle(d bouncer.Deps) bouncer.Evaluator {
	e := &telegramHandle{}
	e.Base = bouncer.NewBase(d, "telegram-handle", "telegram", true, 3)
	return e
}

func (e *telegramHandle) PreEvaluateComment(c *reddit.Comment) bool {
	return containsAnyFold(c.Body, defaultMessengerPhrases)
}

func (e *telegramHandle) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	phrases := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("phrases"), defaultMessengerPhrases)
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		return containsAnyFold(item.Body, phrases)
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d items pushing off-platform messengers", matching))
}

var defaultCryptoPhrases = []string{"dm me for signals", "crypto signals", "guaranteed profit", "forex mentor", "binary options trader"}

// Crypto/forex DM-bait.
type cryptoDM struct {
	bouncer.Base
}

func NewCryptoDM(d bouncer.Deps) bouncer.Evaluator {
	e := &cryptoDM{}
	e.Base = bouncer.NewBase(d, "crypto-dm-bait", "cryptodm", true, 3)
	return e
}

func (e *cryptoDM) PreEvaluateComment(c *reddit.Comment) bool {
	return containsAnyFold(c.Body, defaultCryptoPhrases)
}

func (e *cryptoDM) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	phrases := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("phrases"), defaultCryptoPhrases)
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		return containsAnyFold(item.Body, phrases)
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d crypto DM-bait items", matching))
}

var defaultCommissionPhrases = []string{"commissions open", "dm me for a commission", "i can draw your", "check my profile for prices"}

// Art-commission spam blasted into unrelated threads.
type artCommission struct {
	bouncer.Base
}

func NewArtCommission(d bouncer.Deps) bouncer.Evaluator {
	e := &artCommission{}
	e.Base = bouncer.NewBase(d, "art-commission-spam", "artspam", false, 5)
	return e
}

func (e *artCommission) PreEvaluateComment(c *reddit.Comment) bool {
	return containsAnyFold(c.Body, defaultCommissionPhrases)
}

func (e *artCommission) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	phrases := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("phrases"), defaultCommissionPhrases)
	subreddits := make(map[string]bool)
	matching := 0
	for i := range history {
		if containsAnyFold(history[i].Body, phrases) {
			matching++
			subreddits[history[i].Subreddit] = true
		}
	}
	if matching < e.ThresholdVar(ctx) || len(subreddits) < 3 {
		return false
	}
	return e.Hit(fmt.Sprintf("commission spam across %d subreddits", len(subreddits)))
}

var defaultVoteBegPhrases = []string{"please upvote", "upvote this so", "updoots to the left", "karma please"}

// Upvote-begging templates.
type voteBegging struct {
	bouncer.Base
}

func NewVoteBegging(d bouncer.Deps) bouncer.Evaluator {
	e := &voteBegging{}
	e.Base = bouncer.NewBase(d, "vote-begging", "votebeg", false, 5)
	return e
}

func (e *voteBegging) PreEvaluateComment(c *reddit.Comment) bool {
	return containsAnyFold(c.Body, defaultVoteBegPhrases)
}

func (e *voteBegging) PreEvaluatePost(p *reddit.Post) bool {
	return containsAnyFold(p.Title, defaultVoteBegPhrases)
}

func (e *voteBegging) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	phrases := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("phrases"), defaultVoteBegPhrases)
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		return containsAnyFold(item.Body, phrases) || containsAnyFold(item.Title, phrases)
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d vote-begging items", matching))
}
