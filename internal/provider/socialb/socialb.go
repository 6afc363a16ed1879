// Package socialb implements the social-B Platform Provider, modeled on a
// Mastodon-like single timeline pull: one raw payload, no meta/collection
// split (spec.md SPEC_FULL.md platform concretization table).
package socialb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/store"
)

const baseURL = "https://mastodon.social/api/v1"

type Provider struct {
	doer     provider.HTTPDoer
	instance string
}

func New(doer provider.HTTPDoer, instance string) *Provider {
	if instance == "" {
		instance = baseURL
	}
	return &Provider{doer: doer, instance: instance}
}

func (p *Provider) Platform() platform.Tag { return platform.SocialB }

type rawStatus struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Account   struct {
		Acct string `json:"acct"`
	} `json:"account"`
}

func (p *Provider) Fetch(ctx context.Context, token provider.Token) (provider.RawFetchResult, *provider.Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.instance+"/accounts/verify_credentials/statuses", nil)
	if err != nil {
		return provider.RawFetchResult{}, provider.NetworkError(err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.doer.Do(req)
	if err != nil {
		return provider.RawFetchResult{}, provider.NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.RawFetchResult{}, provider.NetworkError(err)
	}
	if resp.StatusCode >= 300 {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return provider.RawFetchResult{}, provider.FromHTTPStatus(resp.StatusCode, retryAfter, string(body))
	}

	var raw []rawStatus
	if err := json.Unmarshal(body, &raw); err != nil {
		return provider.RawFetchResult{}, provider.ParseError(err.Error())
	}

	payload := store.SocialBPayload{}
	for _, s := range raw {
		payload.Posts = append(payload.Posts, store.SocialBPost{
			ID:        s.ID,
			Text:      s.Content,
			URL:       s.URL,
			Author:    s.Account.Acct,
			CreatedAt: s.CreatedAt,
		})
	}
	return provider.RawFetchResult{Payload: payload}, nil
}
