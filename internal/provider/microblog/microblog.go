// Package microblog implements the microblog Platform Provider, modeled
// on the Twitter/X API v2 shape: meta (username), tweets (with
// retweet/reply/quote references). The tightest-quota platform in the
// system (platform.PageSize caps it at 5 items/call, spec.md §4.1).
package microblog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/store"
)

const baseURL = "https://api.twitter.com/2"

type Provider struct {
	doer  provider.HTTPDoer
	pacer *provider.Pacer
}

func New(doer provider.HTTPDoer) *Provider {
	return &Provider{doer: doer, pacer: provider.NewPacer(platform.Microblog)}
}

func (p *Provider) Platform() platform.Tag { return platform.Microblog }

type meResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type tweetRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type tweetMetrics struct {
	RetweetCount int `json:"retweet_count"`
	QuoteCount   int `json:"quote_count"`
}

type rawTweet struct {
	ID               string       `json:"id"`
	Text             string       `json:"text"`
	CreatedAt        string       `json:"created_at"`
	InReplyToUserID  string       `json:"in_reply_to_user_id"`
	ReferencedTweets []tweetRef   `json:"referenced_tweets"`
	PublicMetrics    tweetMetrics `json:"public_metrics"`
}

type tweetsResponse struct {
	Data []rawTweet `json:"data"`
}

func (p *Provider) Fetch(ctx context.Context, token provider.Token) (provider.FetchResult, *provider.Error) {
	me, perr := p.fetchMe(ctx, token)
	if perr != nil {
		return provider.FetchResult{}, perr
	}
	return p.fetchForUser(ctx, token, me.Data.ID, me.Data.Username)
}

// FetchForUsername resolves handle to an id first, used when the stored
// token only grants app-level access (spec.md §4.1).
func (p *Provider) FetchForUsername(ctx context.Context, token provider.Token, handle string) (provider.FetchResult, *provider.Error) {
	var user meResponse
	if err := p.get(ctx, token, "/users/by/username/"+handle, &user); err != nil {
		return provider.FetchResult{}, err
	}
	return p.fetchForUser(ctx, token, user.Data.ID, user.Data.Username)
}

func (p *Provider) fetchForUser(ctx context.Context, token provider.Token, userID, username string) (provider.FetchResult, *provider.Error) {
	tweets, perr := p.fetchTweets(ctx, token, userID)
	if perr != nil {
		return provider.FetchResult{}, perr
	}
	return provider.FetchResult{
		Meta:        provider.MetaResult{Username: username},
		Collections: []provider.Collection{{Name: "tweets", Payload: tweets}},
	}, nil
}

func (p *Provider) fetchMe(ctx context.Context, token provider.Token) (meResponse, *provider.Error) {
	var me meResponse
	if err := p.get(ctx, token, "/users/me", &me); err != nil {
		return meResponse{}, err
	}
	return me, nil
}

func (p *Provider) fetchTweets(ctx context.Context, token provider.Token, userID string) (store.TweetsPayload, *provider.Error) {
	url := fmt.Sprintf("/users/%s/tweets?max_results=%d&tweet.fields=created_at,referenced_tweets,public_metrics,in_reply_to_user_id",
		userID, platform.PageSize(platform.Microblog))
	var resp tweetsResponse
	if err := p.get(ctx, token, url, &resp); err != nil {
		return store.TweetsPayload{}, err
	}
	payload := store.TweetsPayload{}
	for _, t := range resp.Data {
		refs := make([]store.ReferencedTweet, 0, len(t.ReferencedTweets))
		for _, r := range t.ReferencedTweets {
			refs = append(refs, store.ReferencedTweet{Type: r.Type, ID: r.ID})
		}
		createdAt, err := parseTime(t.CreatedAt)
		if err != nil {
			return store.TweetsPayload{}, provider.ParseError(err.Error())
		}
		payload.Tweets = append(payload.Tweets, store.Tweet{
			ID:               t.ID,
			Text:             t.Text,
			CreatedAt:        createdAt,
			InReplyToUserID:  t.InReplyToUserID,
			ReferencedTweets: refs,
			RetweetCount:     t.PublicMetrics.RetweetCount,
			QuoteCount:       t.PublicMetrics.QuoteCount,
		})
	}
	return payload, nil
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
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
