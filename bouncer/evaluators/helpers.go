package evaluators

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fsvreddit/bot-bouncer-sub001/bouncer/reddit"
)

var urlPattern = regexp.MustCompile(`https?://[^\s)\]>"']+`)

func extractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}

// matchesDomain reports whether host equals any listed domain or is a
// subdomain of one.
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// itemURLs collects all URLs appearing in an item: post link plus any links
// embedded in body text.
func itemURLs(item *reddit.HistoryItem) []string {
	var out []string
	if item.URL != "" {
		out = append(out, item.URL)
	}
	out = append(out, extractURLs(item.Body)...)
	return out
}

func countMatching(history []reddit.HistoryItem, pred func(*reddit.HistoryItem) bool) int {
	n := 0
	for i := range history {
		if pred(&history[i]) {
			n++
		}
	}
	return n
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAnyFold(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// dormantGap returns how long after account creation the oldest visible
// history item was created. A large value on an old account means everything
// earlier was wiped or the account sat dormant.
func dormantGap(am *reddit.AccountMeta, history []reddit.HistoryItem) time.Duration {
	if len(history) == 0 {
		return 0
	}
	oldest := history[0].CreatedAt
	for _, item := range history {
		if item.CreatedAt.Before(oldest) {
			oldest = item.CreatedAt
		}
	}
	return oldest.Sub(am.CreatedAt)
}

func newestItem(history []reddit.HistoryItem) *reddit.HistoryItem {
	if len(history) == 0 {
		return nil
	}
	newest := &history[0]
	for i := range history {
		if history[i].CreatedAt.After(newest.CreatedAt) {
			newest = &history[i]
		}
	}
	return newest
}

func dedupeStrings(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range in {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}
