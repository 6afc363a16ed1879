// Package sociala implements the social-A Platform Provider, modeled on
// the Reddit API shape: meta (username + subreddits), posts, comments.
package sociala

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/store"
)

const baseURL = "https://oauth.reddit.com"

type Provider struct {
	doer  provider.HTTPDoer
	pacer *provider.Pacer
}

func New(doer provider.HTTPDoer) *Provider {
	return &Provider{doer: doer, pacer: provider.NewPacer(platform.SocialA)}
}

func (p *Provider) Platform() platform.Tag { return platform.SocialA }

type meResponse struct {
	Name string `json:"name"`
}

type listing struct {
	Data struct {
		Children []struct {
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string `json:"id"`
	Subreddit   string `json:"subreddit"`
	Title       string `json:"title"`
	Permalink   string `json:"permalink"`
	Selftext    string `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
}

type redditComment struct {
	ID          string  `json:"id"`
	LinkTitle   string  `json:"link_title"`
	LinkURL     string  `json:"link_permalink"`
	Body        string  `json:"body"`
	CreatedUTC  float64 `json:"created_utc"`
	IsSubmitter bool    `json:"is_submitter"`
}

func (p *Provider) Fetch(ctx context.Context, token provider.Token) (provider.FetchResult, *provider.Error) {
	return p.fetch(ctx, token, "")
}

// FetchForUsername satisfies provider.UsernameFetcher: it fetches handle's
// posts and comments directly, skipping the "me" lookup Fetch uses to
// resolve the username, and does not check handle against the token.
func (p *Provider) FetchForUsername(ctx context.Context, token provider.Token, handle string) (provider.FetchResult, *provider.Error) {
	return p.fetch(ctx, token, handle)
}

func (p *Provider) fetch(ctx context.Context, token provider.Token, handle string) (provider.FetchResult, *provider.Error) {
	username := handle
	if username == "" {
		me, perr := p.fetchMe(ctx, token)
		if perr != nil {
			return provider.FetchResult{}, perr
		}
		username = me.Name
	}

	posts, perr := p.fetchPosts(ctx, token, username)
	if perr != nil {
		return provider.FetchResult{}, perr
	}
	comments, perr := p.fetchComments(ctx, token, username)
	if perr != nil {
		return provider.FetchResult{}, perr
	}

	subreddits := map[string]struct{}{}
	for _, post := range posts.Posts {
		subreddits[post.Subreddit] = struct{}{}
	}
	meta := provider.MetaResult{Username: username}
	for s := range subreddits {
		meta.Subreddits = append(meta.Subreddits, s)
	}

	return provider.FetchResult{
		Meta: meta,
		Collections: []provider.Collection{
			{Name: "posts", Payload: posts},
			{Name: "comments", Payload: comments},
		},
	}, nil
}

func (p *Provider) fetchMe(ctx context.Context, token provider.Token) (meResponse, *provider.Error) {
	var me meResponse
	if err := p.get(ctx, token, "/api/v1/me", &me); err != nil {
		return meResponse{}, err
	}
	return me, nil
}

func (p *Provider) fetchPosts(ctx context.Context, token provider.Token, username string) (store.RedditPostsPayload, *provider.Error) {
	url := fmt.Sprintf("/user/%s/submitted?limit=%d", username, platform.PageSize(platform.SocialA))
	var l listing
	if err := p.get(ctx, token, url, &l); err != nil {
		return store.RedditPostsPayload{}, err
	}
	payload := store.RedditPostsPayload{}
	for _, child := range l.Data.Children {
		var raw redditPost
		if err := json.Unmarshal(child.Data, &raw); err != nil {
			return store.RedditPostsPayload{}, provider.ParseError(err.Error())
		}
		payload.Posts = append(payload.Posts, store.RedditPost{
			ID:          raw.ID,
			Subreddit:   raw.Subreddit,
			Title:       raw.Title,
			URL:         raw.Permalink,
			SelfText:    raw.Selftext,
			CreatedUTC:  int64(raw.CreatedUTC),
			Score:       raw.Score,
			NumComments: raw.NumComments,
		})
	}
	if len(payload.Posts) > 0 {
		payload.NewestID = payload.Posts[0].ID
		payload.OldestID = payload.Posts[len(payload.Posts)-1].ID
	}
	return payload, nil
}

func (p *Provider) fetchComments(ctx context.Context, token provider.Token, username string) (store.RedditCommentsPayload, *provider.Error) {
	url := fmt.Sprintf("/user/%s/comments?limit=%d", username, platform.PageSize(platform.SocialA))
	var l listing
	if err := p.get(ctx, token, url, &l); err != nil {
		return store.RedditCommentsPayload{}, err
	}
	payload := store.RedditCommentsPayload{}
	for _, child := range l.Data.Children {
		var raw redditComment
		if err := json.Unmarshal(child.Data, &raw); err != nil {
			return store.RedditCommentsPayload{}, provider.ParseError(err.Error())
		}
		payload.Comments = append(payload.Comments, store.RedditComment{
			ID:              raw.ID,
			ParentPostTitle: raw.LinkTitle,
			ParentPostURL:   raw.LinkURL,
			Body:            raw.Body,
			CreatedUTC:      int64(raw.CreatedUTC),
			IsOP:            raw.IsSubmitter,
		})
	}
	return payload, nil
}

func (p *Provider) get(ctx context.Context, token provider.Token, path string, out any) *provider.Error {
	if err := p.pacer.Wait(ctx); err != nil {
		return provider.NetworkError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return provider.NetworkError(err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("User-Agent", "media-timeline/1.0")

	resp, err := p.doer.Do(req)
	if err != nil {
		return provider.NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.NetworkError(err)
	}

	if resp.StatusCode >= 300 {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return provider.FromHTTPStatus(resp.StatusCode, retryAfter, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return provider.ParseError(err.Error())
	}
	return nil
}
