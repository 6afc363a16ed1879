// Package videohost implements the video-host Platform Provider, modeled
// on a YouTube-like channel upload feed: one raw payload of recent videos.
// Declares the platform's 24-hour minimum fetch interval via platform.MinFetchInterval.
package videohost

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

func parsePublished(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

const baseURL = "https://www.googleapis.com/youtube/v3"

type Provider struct {
	doer provider.HTTPDoer
}

func New(doer provider.HTTPDoer) *Provider { return &Provider{doer: doer} }

func (p *Provider) Platform() platform.Tag { return platform.VideoHost }

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
	} `json:"snippet"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

func (p *Provider) Fetch(ctx context.Context, token provider.Token) (provider.RawFetchResult, *provider.Error) {
	url := fmt.Sprintf("%s/search?part=snippet&forMine=true&type=video&order=date&maxResults=%d",
		baseURL, platform.PageSize(platform.VideoHost))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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

	var raw searchResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return provider.RawFetchResult{}, provider.ParseError(err.Error())
	}

	payload := store.VideoHostPayload{}
	for _, item := range raw.Items {
		published, perr := parsePublished(item.Snippet.PublishedAt)
		if perr != nil {
			return provider.RawFetchResult{}, provider.ParseError(perr.Error())
		}
		payload.Videos = append(payload.Videos, store.Video{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			URL:         "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Channel:     item.Snippet.ChannelTitle,
			Description: item.Snippet.Description,
			PublishedAt: published,
		})
	}
	return provider.RawFetchResult{Payload: payload}, nil
}
