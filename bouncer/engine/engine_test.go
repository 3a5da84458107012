package engine

import (
	"context"
	"testing"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/statusstore"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"

	"github.com/stretchr/testify/assert"
)

func TestEngineBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, sink := EngineTestFixture()
	TestAccount(mock, "botacct", "beep one", "nothing", "beep two")

	verdict, err := eng.EvaluateAccount(ctx, "botacct")
	assert.NoError(err)
	assert.NotNil(verdict)
	assert.Equal("first-keyword", verdict.Evaluator)
	assert.True(verdict.IsBot)
	assert.True(verdict.CanAutoBan)

	rec, err := eng.Statuses.Get(ctx, "botacct")
	assert.NoError(err)
	assert.Equal(statusstore.StatusBanned, rec.Status)
	assert.Len(sink.ByStatus(statusstore.StatusBanned), 1)
}

func TestEngineNoMatchStaysPending(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, sink := EngineTestFixture()
	TestAccount(mock, "human", "hello", "how are you")
	assert.NoError(eng.Statuses.Set(ctx, "human", statusstore.StatusPending, "", ""))

	verdict, err := eng.EvaluateAccount(ctx, "human")
	assert.NoError(err)
	assert.Nil(verdict)

	rec, _ := eng.Statuses.Get(ctx, "human")
	assert.Equal(statusstore.StatusPending, rec.Status)
	assert.Empty(sink.Submissions)
}

func TestKillSwitchSkipsEvaluator(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture()
	TestAccount(mock, "botacct", "beep", "boop")

	// killswitch the first rule: the second must win instead
	eng.Vars.(*varstore.MemVarStore).Set("firstkw:killswitch", true)

	verdict, err := eng.EvaluateAccount(ctx, "botacct")
	assert.NoError(err)
	assert.NotNil(verdict)
	assert.Equal("second-keyword", verdict.Evaluator)

	// no stats recorded for the killswitched rule
	st, err := eng.Stats.Get(ctx, "first-keyword")
	assert.NoError(err)
	assert.EqualValues(0, st.HitCount)
}

func TestFirstMatchWins(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture()
	// both rules would match; registration order breaks the tie
	TestAccount(mock, "botacct", "beep boop")

	verdict, err := eng.EvaluateAccount(ctx, "botacct")
	assert.NoError(err)
	assert.NotNil(verdict)
	assert.Equal("first-keyword", verdict.Evaluator)

	st, _ := eng.Stats.Get(ctx, "second-keyword")
	assert.EqualValues(0, st.HitCount)
}

func TestBrokenRuleFailsOpen(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture()
	TestAccount(mock, "botacct", "boop")

	// a panicking rule ahead of the rest never blocks classification
	eng.Registry = append([]EvaluatorFactory{
		func(d Deps) Evaluator {
			return &panicEvaluator{Base: NewBase(d, "broken", "broken", true, 1)}
		},
	}, eng.Registry...)

	verdict, err := eng.EvaluateAccount(ctx, "botacct")
	assert.NoError(err)
	assert.NotNil(verdict)
	assert.Equal("second-keyword", verdict.Evaluator)
}

func TestBanContentThreshold(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture()
	eng.Registry = []EvaluatorFactory{
		func(d Deps) Evaluator {
			return newKeywordEvaluator(d, "threshold-rule", "threshrule", "spam", true, 5)
		},
	}

	TestAccount(mock, "fouracct", "spam", "spam", "spam", "spam")
	verdict, err := eng.EvaluateAccount(ctx, "fouracct")
	assert.NoError(err)
	assert.Nil(verdict)

	TestAccount(mock, "fiveacct", "spam", "spam", "spam", "spam", "spam")
	verdict, err = eng.EvaluateAccount(ctx, "fiveacct")
	assert.NoError(err)
	assert.NotNil(verdict)
	assert.True(verdict.CanAutoBan)
}

func TestStatsMonotonicity(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture()
	for _, name := range []string{"bot1", "bot2", "bot3"} {
		TestAccount(mock, name, "beep")
		verdict, err := eng.EvaluateAccount(ctx, name)
		assert.NoError(err)
		assert.NotNil(verdict)
	}

	st, err := eng.Stats.Get(ctx, "first-keyword")
	assert.NoError(err)
	assert.EqualValues(3, st.HitCount)
	assert.WithinDuration(time.Now(), st.LastHit, 5*time.Second)
}

func TestTerminalAccountNeverReEvaluated(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, sink := EngineTestFixture()
	TestAccount(mock, "botacct", "beep")

	verdict, err := eng.EvaluateAccount(ctx, "botacct")
	assert.NoError(err)
	assert.NotNil(verdict)

	// second run (overlapping tick) is a no-op: no double ban, no stat bump
	verdict, err = eng.EvaluateAccount(ctx, "botacct")
	assert.NoError(err)
	assert.Nil(verdict)

	st, _ := eng.Stats.Get(ctx, "first-keyword")
	assert.EqualValues(1, st.HitCount)
	assert.Len(sink.ByStatus(statusstore.StatusBanned), 1)
}

func TestServiceAccountShortCircuit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture()
	TestAccount(mock, "AutoModerator", "beep")
	eng.Vars.(*varstore.MemVarStore).Set("service:accounts", []string{"AutoModerator"})

	verdict, err := eng.EvaluateAccount(ctx, "AutoModerator")
	assert.NoError(err)
	assert.Nil(verdict)

	rec, _ := eng.Statuses.Get(ctx, "AutoModerator")
	assert.Equal(statusstore.StatusService, rec.Status)
}

func TestProcessCommentPreFilterGate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, mock, _ := EngineTestFixture()
	TestAccount(mock, "lurker", "hello")
	TestAccount(mock, "botacct", "beep")

	// comment matching no pre-filter: author never becomes a candidate
	assert.NoError(eng.ProcessComment(ctx, &reddit.Comment{
		ID: "c1", PostID: "p1", Username: "lurker", Body: "just lurking", CreatedAt: time.Now(),
	}))
	rec, _ := eng.Statuses.Get(ctx, "lurker")
	assert.Nil(rec)

	// matching comment promotes and classifies
	assert.NoError(eng.ProcessComment(ctx, &reddit.Comment{
		ID: "c2", PostID: "p2", Username: "botacct", Body: "beep beep", CreatedAt: time.Now(),
	}))
	rec, _ = eng.Statuses.Get(ctx, "botacct")
	assert.NotNil(rec)
	assert.Equal(statusstore.StatusBanned, rec.Status)
}

func TestExpireAccount(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	eng, _, _ := EngineTestFixture()

	// pending account that vanishes is purged
	assert.NoError(eng.Statuses.Set(ctx, "pendacct", statusstore.StatusPending, "", ""))
	assert.NoError(eng.ExpireAccount(ctx, "pendacct"))
	rec, _ := eng.Statuses.Get(ctx, "pendacct")
	assert.Equal(statusstore.StatusPurged, rec.Status)

	// banned account that vanishes is retired
	assert.NoError(eng.Statuses.Set(ctx, "banacct", statusstore.StatusBanned, "", "zombie"))
	assert.NoError(eng.ExpireAccount(ctx, "banacct"))
	rec, _ = eng.Statuses.Get(ctx, "banacct")
	assert.Equal(statusstore.StatusRetired, rec.Status)
}
