// Bot-account classification engine for subreddit moderation.
//
// This package (`github.com/fsvreddit/bot-bouncer-sub001/bouncer`) contains a pipeline of heuristic "evaluator" rules run against an account's public activity, plus the time-windowed work queues which defer, retry, and rate-limit the expensive checks. New posts and comments pass a cheap pre-filter gate; accounts which trip it are classified by the full evaluator registry, and the verdict drives an automatic ban or a human-review report. Pending accounts are rechecked on a schedule until they resolve or vanish.
//
// See `bouncer/evaluators` for the rule roster, and `cmd/bouncer` for a daemon built on this package.
package bouncer
