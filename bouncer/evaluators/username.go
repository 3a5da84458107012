package evaluators

import (
	"context"
	"fmt"
	"regexp"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

// generated-username shapes: Word-Word-4digits, FirstnameLastname digits, etc
var defaultUsernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][a-z]+[-_][A-Z][a-z]+[-_]?\d{2,4}$`),
	regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4,}$`),
	regexp.MustCompile(`^[a-z]+_[a-z]+_\d{3,}$`),
}

// A generated username alone is weak evidence (reddit suggests these shapes
// to humans), so a hit needs corroborating account signals and still only
// files a report.
type badUsername struct {
	bouncer.Base
}

func NewBadUsername(d bouncer.Deps) bouncer.Evaluator {
	e := &badUsername{}
	e.Base = bouncer.NewBase(d, "bad-username", "badusername", false, 1)
	return e
}

func (e *badUsername) patterns(ctx context.Context) []*regexp.Regexp {
	if live := varstore.RegexpList(ctx, e.Deps.Vars, e.VarKey("patterns"), e.Deps.Logger); len(live) > 0 {
		return live
	}
	return defaultUsernamePatterns
}

func (e *badUsername) PreEvaluateComment(c *reddit.Comment) bool {
	return matchesAny(c.Username, defaultUsernamePatterns)
}

func (e *badUsername) PreEvaluatePost(p *reddit.Post) bool {
	return matchesAny(p.Username, defaultUsernamePatterns)
}

func (e *badUsername) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	if !matchesAny(am.Username, e.patterns(ctx)) {
		return false
	}
	// corroboration: empty profile and near-zero karma
	if am.HasProfileImage || am.Bio != "" {
		return false
	}
	if am.CommentKarma+am.LinkKarma > varstore.IntOr(ctx, e.Deps.Vars, e.VarKey("maxkarma"), 25) {
		return false
	}
	return e.Hit(fmt.Sprintf("generated username %q with empty low-karma profile", am.Username))
}

// Promo keywords in the profile bio, eg "check my links", cashapp handles.
type bioKeyword struct {
	bouncer.Base
}

func NewBioKeyword(d bouncer.Deps) bouncer.Evaluator {
	e := &bioKeyword{}
	e.Base = bouncer.NewBase(d, "bio-keyword", "biokeyword", false, 1)
	return e
}

var defaultBioPhrases = []string{"check my links", "dm for promo", "cashapp", "top 1%", "free trial sub"}

func (e *bioKeyword) PreEvaluateComment(c *reddit.Comment) bool { return true }
func (e *bioKeyword) PreEvaluatePost(p *reddit.Post) bool       { return true }

func (e *bioKeyword) PreEvaluateUser(ctx context.Context, am *reddit.AccountMeta) bool {
	return am.Bio != ""
}

func (e *bioKeyword) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	phrases := varstore.StringListOr(ctx, e.Deps.Vars, e.VarKey("phrases"), defaultBioPhrases)
	patterns := varstore.RegexpList(ctx, e.Deps.Vars, e.VarKey("patterns"), e.Deps.Logger)
	if !containsAnyFold(am.Bio, phrases) && !matchesAny(am.Bio, patterns) {
		return false
	}
	return e.Hit("promo keywords in profile bio")
}
