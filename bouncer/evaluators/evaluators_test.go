package evaluators

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/linkcache"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/varstore"

	"github.com/stretchr/testify/assert"
)

func testDeps() (bouncer.Deps, *varstore.MemVarStore, linkcache.MemStore) {
	vars := varstore.NewMemVarStore()
	links := linkcache.NewMemStore(100, time.Hour)
	return bouncer.Deps{
		Logger: slog.Default(),
		Vars:   vars,
		Links:  links,
	}, vars, links
}

func nsfwPostHistory(n int, createdAt time.Time) []reddit.HistoryItem {
	var out []reddit.HistoryItem
	for i := 0; i < n; i++ {
		out = append(out, reddit.HistoryItem{
			Kind:      reddit.KindPost,
			ID:        "p" + string(rune('a'+i)),
			Subreddit: "nsfwsub",
			CreatedAt: createdAt.Add(time.Duration(i) * time.Hour),
			Title:     "post",
			NSFW:      true,
		})
	}
	return out
}

func TestZombieNSFW(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, vars, _ := testDeps()

	now := time.Now().UTC()
	am := &reddit.AccountMeta{
		Username:  "old_timer",
		CreatedAt: now.Add(-5 * 365 * 24 * time.Hour),
	}

	vars.Set("zombiensfw:minposts", 5)

	// dormant four years, then a burst of NSFW posts
	ev := NewZombieNSFW(deps)
	assert.True(ev.PreEvaluateUser(ctx, am))
	hit := ev.Evaluate(ctx, am, nsfwPostHistory(6, now.Add(-24*time.Hour)))
	assert.True(hit)
	assert.True(ev.CanAutoBan())
	assert.NotEmpty(ev.Reason())

	// below the configured minimum: no hit
	ev = NewZombieNSFW(deps)
	assert.False(ev.Evaluate(ctx, am, nsfwPostHistory(4, now.Add(-24*time.Hour))))

	// history contiguous with account age: not a zombie
	ev = NewZombieNSFW(deps)
	assert.False(ev.Evaluate(ctx, am, nsfwPostHistory(6, am.CreatedAt.Add(24*time.Hour))))

	// young accounts never pass the user pre-filter
	young := &reddit.AccountMeta{Username: "newbie", CreatedAt: now.Add(-30 * 24 * time.Hour)}
	ev = NewZombieNSFW(deps)
	assert.False(ev.PreEvaluateUser(ctx, young))
}

func TestRepeatedPhraseDowngrade(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := testDeps()

	now := time.Now().UTC()
	am := &reddit.AccountMeta{Username: "parrot", CreatedAt: now.Add(-90 * 24 * time.Hour)}

	mkHistory := func(subs []string) []reddit.HistoryItem {
		var out []reddit.HistoryItem
		for i, sub := range subs {
			out = append(out, reddit.HistoryItem{
				Kind:      reddit.KindComment,
				ID:        "c" + string(rune('a'+i)),
				Subreddit: sub,
				CreatedAt: now.Add(-time.Duration(i) * time.Hour),
				Body:      "This is a great deal, check it out now!",
			})
		}
		return out
	}

	// spread across subreddits: full auto-ban hit
	ev := NewRepeatedPhrase(deps)
	assert.True(ev.Evaluate(ctx, am, mkHistory([]string{"a", "b", "c", "d", "e"})))
	assert.True(ev.CanAutoBan())

	// confined to one subreddit: hit is downgraded to report-only
	ev = NewRepeatedPhrase(deps)
	assert.True(ev.Evaluate(ctx, am, mkHistory([]string{"a", "a", "a", "a", "a"})))
	assert.False(ev.CanAutoBan())

	// four repeats is under the threshold
	ev = NewRepeatedPhrase(deps)
	assert.False(ev.Evaluate(ctx, am, mkHistory([]string{"a", "b", "c", "d"})))
}

func TestBadUsername(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := testDeps()

	am := &reddit.AccountMeta{
		Username:  "Quiet_Breeze_8472",
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}

	ev := NewBadUsername(deps)
	assert.True(ev.Evaluate(ctx, am, nil))
	assert.False(ev.CanAutoBan())

	// a filled-out profile clears the account
	withBio := *am
	withBio.Bio = "hi, I'm a real person"
	ev = NewBadUsername(deps)
	assert.False(ev.Evaluate(ctx, &withBio, nil))

	// normal username shapes never match
	human := &reddit.AccountMeta{Username: "spez", CreatedAt: time.Now().Add(-24 * time.Hour)}
	ev = NewBadUsername(deps)
	assert.False(ev.Evaluate(ctx, human, nil))
}

type fetchRecorder struct {
	scheduled []string
}

func (f *fetchRecorder) ScheduleLinkFetch(ctx context.Context, username string) error {
	f.scheduled = append(f.scheduled, username)
	return nil
}

func TestSocialLinkSpamFailsClosed(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, links := testDeps()

	rec := &fetchRecorder{}
	deps.LinkFetches = rec

	am := &reddit.AccountMeta{Username: "promoacct", CreatedAt: time.Now().Add(-60 * 24 * time.Hour)}

	// cache miss: ineligible this run, but a fetch gets scheduled
	ev := NewSocialLinkSpam(deps)
	assert.False(ev.PreEvaluateUser(ctx, am))
	assert.Equal([]string{"promoacct"}, rec.scheduled)

	// once cached, the pre-filter passes and evaluation can hit
	assert.NoError(links.Set(ctx, "promoacct", []string{"https://onlyfans.com/promoacct"}))
	history := []reddit.HistoryItem{{
		Kind: reddit.KindPost, ID: "p1", Subreddit: "x", NSFW: true,
		CreatedAt: time.Now().Add(-time.Hour),
	}}
	ev = NewSocialLinkSpam(deps)
	assert.True(ev.PreEvaluateUser(ctx, am))
	assert.True(ev.Evaluate(ctx, am, history))
}

func TestCommentSprint(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	deps, _, _ := testDeps()

	now := time.Now().UTC()
	am := &reddit.AccountMeta{Username: "fastfingers", CreatedAt: now.Add(-30 * 24 * time.Hour)}

	var sprint []reddit.HistoryItem
	for i := 0; i < 8; i++ {
		sprint = append(sprint, reddit.HistoryItem{
			Kind:      reddit.KindComment,
			ID:        "c" + string(rune('a'+i)),
			CreatedAt: now.Add(time.Duration(i*20) * time.Second),
			Body:      "some comment",
		})
	}
	ev := NewCommentSprint(deps)
	assert.True(ev.Evaluate(ctx, am, sprint))

	var relaxed []reddit.HistoryItem
	for i := 0; i < 8; i++ {
		relaxed = append(relaxed, reddit.HistoryItem{
			Kind:      reddit.KindComment,
			ID:        "c" + string(rune('a'+i)),
			CreatedAt: now.Add(time.Duration(i) * time.Hour),
			Body:      "some comment",
		})
	}
	ev = NewCommentSprint(deps)
	assert.False(ev.Evaluate(ctx, am, relaxed))
}

func TestRegistryNamesUnique(t *testing.T) {
	assert := assert.New(t)
	deps, _, _ := testDeps()

	names := make(map[string]bool)
	killKeys := make(map[string]bool)
	for _, f := range DefaultRegistry() {
		ev := f(deps)
		assert.False(names[ev.Name()], "duplicate evaluator name: %s", ev.Name())
		assert.False(killKeys[ev.KillSwitchKey()], "duplicate kill switch key: %s", ev.KillSwitchKey())
		names[ev.Name()] = true
		killKeys[ev.KillSwitchKey()] = true
	}
	assert.Len(names, 24)
}
