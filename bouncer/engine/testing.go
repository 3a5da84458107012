package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/linkcache"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"
)

// RecordingSink captures sink submissions for assertions.
type RecordingSink struct {
	mu          sync.Mutex
	Submissions []SinkSubmission
}

type SinkSubmission struct {
	Username string
	Status   statusstore.UserStatus
	Reason   string
}

var _ ClassificationSink = (*RecordingSink)(nil)

func (s *RecordingSink) Submit(ctx context.Context, username string, status statusstore.UserStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Submissions = append(s.Submissions, SinkSubmission{Username: username, Status: status, Reason: reason})
	return nil
}

func (s *RecordingSink) ByStatus(status statusstore.UserStatus) []SinkSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []SinkSubmission
	for _, sub := range s.Submissions {
		if sub.Status == status {
			out = append(out, sub)
		}
	}
	return out
}

// keywordEvaluator is a simple test rule: any history item containing the
// keyword is a matching evidence item, and the rule hits when at least
// threshold items match.
type keywordEvaluator struct {
	Base
	keyword string
}

func newKeywordEvaluator(d Deps, name, prefix, keyword string, autoBan bool, threshold int) *keywordEvaluator {
	return &keywordEvaluator{
		Base:    NewBase(d, name, prefix, autoBan, threshold),
		keyword: keyword,
	}
}

func (e *keywordEvaluator) PreEvaluateComment(c *reddit.Comment) bool {
	return strings.Contains(c.Body, e.keyword)
}

func (e *keywordEvaluator) PreEvaluatePost(p *reddit.Post) bool {
	return strings.Contains(p.Title, e.keyword) || strings.Contains(p.Selftext, e.keyword)
}

func (e *keywordEvaluator) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	matching := 0
	for _, item := range history {
		if strings.Contains(item.Body, e.keyword) || strings.Contains(item.Title, e.keyword) {
			matching++
		}
	}
	if matching < e.ThresholdVar(ctx) {
		return false
	}
	return e.Hit("keyword match: " + e.keyword)
}

// panicEvaluator always panics during Evaluate, for fail-open tests.
type panicEvaluator struct {
	Base
}

func (e *panicEvaluator) Evaluate(ctx context.Context, am *reddit.AccountMeta, history []reddit.HistoryItem) bool {
	panic("broken rule")
}

// EngineTestFixture builds an engine wired entirely to in-memory stores and
// a mock account provider, with a two-rule registry: "first-keyword" (hits
// on "beep", auto-ban, threshold 1) then "second-keyword" (hits on "boop").
func EngineTestFixture() (*Engine, *reddit.MockClient, *RecordingSink) {
	mock := reddit.NewMockClient()
	sink := &RecordingSink{}
	vars := varstore.NewMemVarStore()
	deps := Deps{
		Logger: slog.Default(),
		Vars:   vars,
		Links:  linkcache.NewMemStore(100, time.Hour),
	}
	eng := &Engine{
		Logger:   slog.Default(),
		Accounts: mock,
		History:  mock,
		Vars:     vars,
		Stats:    statstore.NewMemStatStore(),
		Statuses: statusstore.NewMemStatusStore(),
		Sink:     sink,
		EvalDeps: deps,
		Registry: []EvaluatorFactory{
			func(d Deps) Evaluator {
				return newKeywordEvaluator(d, "first-keyword", "firstkw", "beep", true, 1)
			},
			func(d Deps) Evaluator {
				return newKeywordEvaluator(d, "second-keyword", "secondkw", "boop", true, 1)
			},
		},
	}
	return eng, mock, sink
}

// TestAccount seeds the mock with a plain account and history made of the
// given comment bodies.
func TestAccount(mock *reddit.MockClient, username string, bodies ...string) {
	now := time.Now().UTC()
	mock.Accounts[username] = &reddit.AccountMeta{
		Username:     username,
		CreatedAt:    now.Add(-90 * 24 * time.Hour),
		LinkKarma:    50,
		CommentKarma: 200,
	}
	var items []reddit.HistoryItem
	for i, body := range bodies {
		items = append(items, reddit.HistoryItem{
			Kind:      reddit.KindComment,
			ID:        username + "-c" + string(rune('a'+i)),
			Subreddit: "testsub",
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
			Body:      body,
		})
	}
	mock.History[username] = items
}
