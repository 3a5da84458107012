package evaluators

import (
	"context"
	"fmt"
	"strings"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

// The same comment text pasted over and over.
type repeatedPhrase struct {
	bouncer.Base
}

func NewRepeatedPhrase(d bouncer.Deps) bouncer.Evaluator {
	e := &repeatedPhrase{}
	e.Base = bouncer.NewBase(d, "repeated-phrase", "repeatedphrase", true, 5)
	return e
}

func (e *repeatedPhrase) PreEvaluateComment(c *reddit.Comment) bool {
	return len(c.Body) >= 20
}

func (e *repeatedPhrase) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	minLen := int(varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("minlength"), 20))
	counts := make(map[string]int)
	subsByText := make(map[string]map[string]bool)
	for _, item := range history {
		if item.Kind != reddit.KindComment || len(item.Body) < minLen {
			continue
		}
		norm := normalizeText(item.Body)
		counts[norm]++
		if subsByText[norm] == nil {
			subsByText[norm] = make(map[string]bool)
		}
		subsByText[norm][item.Subreddit] = true
	}
	for norm, n := range counts {
		if n >= e.ThresholdVar(ctx) {
			// identical text confined to one subreddit smells like a shared
			// human in-joke, not a bot; keep it but don't auto-ban
			if len(subsByText[norm]) < 2 {
				e.DowngradeToReport()
			}
			return e.Hit(fmt.Sprintf("comment text repeated %d times across %d subreddits", n, len(subsByText[norm])))
		}
	}
	return false
}

// Comments which just echo the post title back.
type copiedComment struct {
	bouncer.Base
}

func NewCopiedComment(d bouncer.Deps) bouncer.Evaluator {
	e := &copiedComment{}
	e.Base = bouncer.NewBase(d, "copied-comment", "copiedcomment", true, 4)
	return e
}

func (e *copiedComment) PreEvaluateComment(c *reddit.Comment) bool {
	return c.PostTitle != "" && normalizeText(c.Body) == normalizeText(c.PostTitle)
}

func (e *copiedComment) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindComment && item.Title != "" &&
			normalizeText(item.Body) == normalizeText(item.Title)
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d comments echoing the post title", matching))
}

// The same post title blasted across many subreddits.
type titleRepeat struct {
	bouncer.Base
}

func NewTitleRepeat(d bouncer.Deps) bouncer.Evaluator {
	e := &titleRepeat{}
	e.Base = bouncer.NewBase(d, "title-repeat", "titlerepeat", true, 4)
	return e
}

func (e *titleRepeat) PreEvaluatePost(p *reddit.Post) bool {
	return len(p.Title) >= 15
}

func (e *titleRepeat) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	subsByTitle := make(map[string]map[string]bool)
	for _, item := range history {
		if item.Kind != reddit.KindPost || len(item.Title) < 15 {
			continue
		}
		norm := normalizeText(item.Title)
		if subsByTitle[norm] == nil {
			subsByTitle[norm] = make(map[string]bool)
		}
		subsByTitle[norm][item.Subreddit] = true
	}
	for _, subs := range subsByTitle {
		if len(subs) >= e.ThresholdVar(ctx) {
			return e.Hit(fmt.Sprintf("same title posted to %d subreddits", len(subs)))
		}
	}
	return false
}

// Reposting its own removed content verbatim.
type resurrectedRepost struct {
	bouncer.Base
}

func NewResurrectedRepost(d bouncer.Deps) bouncer.Evaluator {
	e := &resurrectedRepost{}
	e.Base = bouncer.NewBase(d, "resurrected-repost", "rerepost", false, 3)
	return e
}

func (e *resurrectedRepost) PreEvaluatePost(p *reddit.Post) bool { return true }

func (e *resurrectedRepost) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	removed := make(map[string]bool)
	for _, item := range history {
		if item.Kind == reddit.KindPost && item.Removed {
			removed[normalizeText(item.Title)] = true
		}
	}
	if len(removed) == 0 {
		return false
	}
	matching := countMatching(history, func(item *reddit.HistoryItem) bool {
		return item.Kind == reddit.KindPost && !item.Removed && removed[normalizeText(item.Title)]
	})
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit(fmt.Sprintf("%d reposts of previously removed content", matching))
}

// Young account mass-producing short low-effort top-level comments.
type shortTLC struct {
	bouncer.Base
}

func NewShortTLC(d bouncer.Deps) bouncer.Evaluator {
	e := &shortTLC{}
	e.Base = bouncer.NewBase(d, "short-tlc", "shorttlc", false, 15)
	return e
}

func (e *shortTLC) PreEvaluateComment(c *reddit.Comment) bool {
	return c.TopLevel && len(strings.TrimSpace(c.Body)) <= 40
}

func (e *shortTLC) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	maxLen := int(varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("maxlen"), 40))
	comments := 0
	short := 0
	for _, item := range history {
		if item.Kind != reddit.KindComment {
			continue
		}
		comments++
		if item.TopLevel && len(strings.TrimSpace(item.Body)) <= maxLen {
			short++
		}
	}
	if short < e.ThresholdVar(ctx) || comments == 0 {
		return false
	}
	if float64(short)/float64(comments) < 0.8 {
		return false
	}
	return e.Hit(fmt.Sprintf("%d of %d comments are short top-level filler", short, comments))
}
