package reddit

import (
	"context"
	"errors"
	"time"
)

// Returned by fetchers when an account is shadowbanned, suspended, or deleted.
// This is an expected terminal condition, not a transport failure.
var ErrNotFound = errors.New("account not found or unreachable")

// information about an account, always pre-populated and relevant to most evaluators
type AccountMeta struct {
	Username        string
	CreatedAt       time.Time
	LinkKarma       int64
	CommentKarma    int64
	Verified        bool
	NSFW            bool
	HasProfileImage bool
	DisplayName     string
	Bio             string
}

func (am *AccountMeta) Age(now time.Time) time.Duration {
	return now.Sub(am.CreatedAt)
}

type ItemKind string

const (
	KindPost    ItemKind = "post"
	KindComment ItemKind = "comment"
)

// One post or comment from an account's recent history. Fields not relevant
// to the item's kind are left zero (eg, Title on a comment is the title of
// the thread commented in).
type HistoryItem struct {
	Kind      ItemKind
	ID        string
	Subreddit string
	CreatedAt time.Time
	Title     string
	Body      string
	URL       string
	NSFW      bool
	TopLevel  bool
	Pinned    bool
	Removed   bool
	Score     int64
}

// A newly created comment event, as delivered by the event intake.
type Comment struct {
	ID        string
	PostID    string
	Username  string
	Subreddit string
	Body      string
	CreatedAt time.Time
	TopLevel  bool
	PostTitle string
}

// A newly created post event.
type Post struct {
	ID        string
	Username  string
	Subreddit string
	Title     string
	URL       string
	Selftext  string
	NSFW      bool
	Pinned    bool
	CreatedAt time.Time
}

type AccountFetcher interface {
	// GetAccount returns metadata for the named account, or ErrNotFound if
	// the account is unreachable.
	GetAccount(ctx context.Context, username string) (*AccountMeta, error)
}

type HistoryFetcher interface {
	// GetHistory returns up to limit recent posts and comments, newest first.
	// An empty slice (not an error) means the account has no visible history.
	GetHistory(ctx context.Context, username string, limit int) ([]HistoryItem, error)
}

type SocialLinkFetcher interface {
	GetSocialLinks(ctx context.Context, username string) ([]string, error)
}

// EventFetcher reads the newest content of a subreddit, newest first, for
// the polling event intake.
type EventFetcher interface {
	GetNewComments(ctx context.Context, subreddit string, limit int) ([]Comment, error)
	GetNewPosts(ctx context.Context, subreddit string, limit int) ([]Post, error)
}
