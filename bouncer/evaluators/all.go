package evaluators

import (
	"github.com/fsvreddit/bot-bouncer-sub001/bouncer"
)

// DefaultRegistry is the fixed, ordered evaluator list. Order matters: the
// orchestrator stops at the first positive verdict, so higher-precision
// rules come first.
func DefaultRegistry() []bouncer.EvaluatorFactory {
	return []bouncer.EvaluatorFactory{
		NewZombieNSFW,
		NewZombie,
		NewAffiliateSpam,
		NewObfuscatedLinks,
		NewBadUsername,
		NewBioKeyword,
		NewSocialLinkSpam,
		NewRepeatedPhrase,
		NewCopiedComment,
		NewShortTLC,
		NewGPTPhrasing,
		NewEmDash,
		NewIntervalPoster,
		NewTitleRepeat,
		NewYoungBurst,
		NewNSFWPromo,
		NewTelegramHandle,
		NewCryptoDM,
		NewArtCommission,
		NewVoteBegging,
		NewMediaFarm,
		NewPinnedPromo,
		NewCommentSprint,
		NewResurrectedRepost,
	}
}
