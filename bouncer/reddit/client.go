package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client fetches public account data over the reddit JSON API (or a
// compatible proxy). All requests pass through a shared rate limiter,
// with retries and backoff handled by retryablehttp.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	endpoint  string
	userAgent string
}

func NewClient(endpoint string, reqPerSec int) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.Logger = nil
	return &Client{
		http:      rc.StandardClient(),
		limiter:   rate.NewLimiter(rate.Limit(reqPerSec), reqPerSec),
		endpoint:  endpoint,
		userAgent: fmt.Sprintf("bot-bouncer/%s", versioninfo.Short()),
	}
}

var _ AccountFetcher = (*Client)(nil)
var _ HistoryFetcher = (*Client)(nil)
var _ SocialLinkFetcher = (*Client)(nil)
var _ EventFetcher = (*Client)(nil)

type accountAbout struct {
	Data struct {
		Name            string  `json:"name"`
		CreatedUTC      float64 `json:"created_utc"`
		LinkKarma       int64   `json:"link_karma"`
		CommentKarma    int64   `json:"comment_karma"`
		Verified        bool    `json:"verified"`
		IsSuspended     bool    `json:"is_suspended"`
		Subreddit       *struct {
			Over18      bool   `json:"over_18"`
			Title       string `json:"title"`
			Description string `json:"public_description"`
			IconImg     string `json:"icon_img"`
		} `json:"subreddit"`
	} `json:"data"`
}

func (c *Client) GetAccount(ctx context.Context, username string) (*AccountMeta, error) {
	var about accountAbout
	if err := c.getJSON(ctx, fmt.Sprintf("/user/%s/about.json", url.PathEscape(username)), &about); err != nil {
		return nil, err
	}
	if about.Data.IsSuspended {
		return nil, ErrNotFound
	}
	am := AccountMeta{
		Username:     about.Data.Name,
		CreatedAt:    time.Unix(int64(about.Data.CreatedUTC), 0).UTC(),
		LinkKarma:    about.Data.LinkKarma,
		CommentKarma: about.Data.CommentKarma,
		Verified:     about.Data.Verified,
	}
	if sub := about.Data.Subreddit; sub != nil {
		am.NSFW = sub.Over18
		am.DisplayName = sub.Title
		am.Bio = sub.Description
		am.HasProfileImage = sub.IconImg != ""
	}
	return &am, nil
}

type overviewListing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data struct {
				ID         string  `json:"id"`
				Author     string  `json:"author"`
				LinkID     string  `json:"link_id"`
				Subreddit  string  `json:"subreddit"`
				CreatedUTC float64 `json:"created_utc"`
				Title      string  `json:"title"`
				LinkTitle  string  `json:"link_title"`
				Body       string  `json:"body"`
				Selftext   string  `json:"selftext"`
				URL        string  `json:"url"`
				Over18     bool    `json:"over_18"`
				ParentID   string  `json:"parent_id"`
				Stickied   bool    `json:"stickied"`
				RemovedBy  string  `json:"removed_by_category"`
				Score      int64   `json:"score"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Client) GetHistory(ctx context.Context, username string, limit int) ([]HistoryItem, error) {
	var listing overviewListing
	path := fmt.Sprintf("/user/%s/overview.json?limit=%d", url.PathEscape(username), limit)
	if err := c.getJSON(ctx, path, &listing); err != nil {
		return nil, err
	}
	items := make([]HistoryItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		item := HistoryItem{
			ID:        d.ID,
			Subreddit: d.Subreddit,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
			NSFW:      d.Over18,
			Pinned:    d.Stickied,
			Removed:   d.RemovedBy != "",
			Score:     d.Score,
		}
		switch child.Kind {
		case "t1":
			item.Kind = KindComment
			item.Body = d.Body
			item.Title = d.LinkTitle
			item.TopLevel = len(d.ParentID) > 3 && d.ParentID[:3] == "t3_"
		case "t3":
			item.Kind = KindPost
			item.Title = d.Title
			item.Body = d.Selftext
			item.URL = d.URL
		default:
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *Client) GetNewComments(ctx context.Context, subreddit string, limit int) ([]Comment, error) {
	var listing overviewListing
	path := fmt.Sprintf("/r/%s/comments.json?limit=%d", url.PathEscape(subreddit), limit)
	if err := c.getJSON(ctx, path, &listing); err != nil {
		return nil, err
	}
	out := make([]Comment, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t1" {
			continue
		}
		d := child.Data
		out = append(out, Comment{
			ID:        d.ID,
			PostID:    stripKindPrefix(d.LinkID),
			Username:  d.Author,
			Subreddit: d.Subreddit,
			Body:      d.Body,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
			TopLevel:  stripKindPrefix(d.ParentID) == stripKindPrefix(d.LinkID),
			PostTitle: d.LinkTitle,
		})
	}
	return out, nil
}

func (c *Client) GetNewPosts(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	var listing overviewListing
	path := fmt.Sprintf("/r/%s/new.json?limit=%d", url.PathEscape(subreddit), limit)
	if err := c.getJSON(ctx, path, &listing); err != nil {
		return nil, err
	}
	out := make([]Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		d := child.Data
		out = append(out, Post{
			ID:        d.ID,
			Username:  d.Author,
			Subreddit: d.Subreddit,
			Title:     d.Title,
			URL:       d.URL,
			Selftext:  d.Selftext,
			NSFW:      d.Over18,
			Pinned:    d.Stickied,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
		})
	}
	return out, nil
}

func stripKindPrefix(fullname string) string {
	if len(fullname) > 3 && fullname[2] == '_' {
		return fullname[3:]
	}
	return fullname
}

type socialLinksResponse struct {
	Links []struct {
		URL string `json:"outbound_url"`
	} `json:"links"`
}

func (c *Client) GetSocialLinks(ctx context.Context, username string) ([]string, error) {
	var resp socialLinksResponse
	path := fmt.Sprintf("/user/%s/social_links.json", url.PathEscape(username))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resp.Links))
	for _, l := range resp.Links {
		out = append(out, l.URL)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit API request failed: %s %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
