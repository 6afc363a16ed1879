// Package tasktracker implements the task-tracker Platform Provider,
// modeled on a Linear/Trello-like assigned-task feed: one raw payload of
// tasks assigned to the authenticated account. Declares the platform's
// 6-hour minimum fetch interval via platform.MinFetchInterval.
package tasktracker

import (
	"bytes"
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

const baseURL = "https://api.linear.app/graphql"

type Provider struct {
	doer provider.HTTPDoer
}

func New(doer provider.HTTPDoer) *Provider { return &Provider{doer: doer} }

func (p *Provider) Platform() platform.Tag { return platform.TaskTracker }

const assignedIssuesQuery = `{"query":"{ viewer { assignedIssues(first: %d) { nodes { id title url state { name } updatedAt } } } }"}`

type issueNode struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	State struct {
		Name string `json:"name"`
	} `json:"state"`
	UpdatedAt string `json:"updatedAt"`
}

type graphQLResponse struct {
	Data struct {
		Viewer struct {
			AssignedIssues struct {
				Nodes []issueNode `json:"nodes"`
			} `json:"assignedIssues"`
		} `json:"viewer"`
	} `json:"data"`
}

func (p *Provider) Fetch(ctx context.Context, token provider.Token) (provider.RawFetchResult, *provider.Error) {
	body := []byte(fmt.Sprintf(assignedIssuesQuery, platform.PageSize(platform.TaskTracker)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return provider.RawFetchResult{}, provider.NetworkError(err)
	}
	req.Header.Set("Authorization", token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.doer.Do(req)
	if err != nil {
		return provider.RawFetchResult{}, provider.NetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.RawFetchResult{}, provider.NetworkError(err)
	}
	if resp.StatusCode >= 300 {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return provider.RawFetchResult{}, provider.FromHTTPStatus(resp.StatusCode, retryAfter, string(respBody))
	}

	var raw graphQLResponse
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return provider.RawFetchResult{}, provider.ParseError(err.Error())
	}

	payload := store.TaskTrackerPayload{}
	for _, n := range raw.Data.Viewer.AssignedIssues.Nodes {
		updatedAt, perr := time.Parse(time.RFC3339, n.UpdatedAt)
		if perr != nil {
			return provider.RawFetchResult{}, provider.ParseError(perr.Error())
		}
		payload.Tasks = append(payload.Tasks, store.Task{
			ID:        n.ID,
			Title:     n.Title,
			URL:       n.URL,
			Status:    n.State.Name,
			UpdatedAt: updatedAt,
		})
	}
	return provider.RawFetchResult{Payload: payload}, nil
}
