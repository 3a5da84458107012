// Live per-rule configuration: regex lists, thresholds, booleans, and kill
// switches, keyed "{rule-prefix}:{setting}" (eg "zombiensfw:minposts").
// Values are read fresh on every call so operators can reconfigure or disable
// a misfiring rule without a deploy; nothing here is ever memoized.
package varstore

import (
	"context"
	"log/slog"
	"regexp"
)

type Store interface {
	// Typed getters. ok is false when the key is absent; absence is not an
	// error, and callers supply their own defaults.
	GetString(ctx context.Context, key string) (string, bool, error)
	GetStringList(ctx context.Context, key string) ([]string, bool, error)
	GetInt(ctx context.Context, key string) (int64, bool, error)
	GetBool(ctx context.Context, key string) (bool, bool, error)
}

// KillSwitched reads a kill-switch flag. A read failure means the switch
// cannot be confirmed set, so the rule still runs.
func KillSwitched(ctx context.Context, s Store, key string) bool {
	v, ok, err := s.GetBool(ctx, key)
	if err != nil || !ok {
		return false
	}
	return v
}

func IntOr(ctx context.Context, s Store, key string, def int64) int64 {
	v, ok, err := s.GetInt(ctx, key)
	if err != nil || !ok {
		return def
	}
	return v
}

func StringListOr(ctx context.Context, s Store, key string, def []string) []string {
	v, ok, err := s.GetStringList(ctx, key)
	if err != nil || !ok {
		return def
	}
	return v
}

// RegexpList compiles the pattern list under key. Malformed patterns are
// logged and dropped rather than surfaced, so a bad config entry makes the
// owning rule fail closed instead of crashing the pipeline.
func RegexpList(ctx context.Context, s Store, key string, logger *slog.Logger) []*regexp.Regexp {
	raw, ok, err := s.GetStringList(ctx, key)
	if err != nil || !ok {
		return nil
	}
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, pattern := range raw {
		re, err := regexp.Compile(pattern)
		if err != nil {
			logger.Warn("dropping malformed config regex", "key", key, "pattern", pattern, "err", err)
			continue
		}
		out = append(out, re)
	}
	return out
}
