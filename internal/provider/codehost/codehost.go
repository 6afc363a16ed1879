// Package codehost implements the code-host Platform Provider, modeled on
// the GitHub REST v3 shape (spec.md SPEC_FULL.md platform concretization
// table): meta (user + repos), then per-repo commits and pull requests.
package codehost

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

const baseURL = "https://api.github.com"

// Provider implements provider.MultiStoreProvider for code-host.
type Provider struct {
	doer  provider.HTTPDoer
	pacer *provider.Pacer
}

func New(doer provider.HTTPDoer) *Provider {
	return &Provider{doer: doer, pacer: provider.NewPacer(platform.CodeHost)}
}

func (p *Provider) Platform() platform.Tag { return platform.CodeHost }

type ghUser struct {
	Login string `json:"login"`
}

type ghRepo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    ghUser `json:"owner"`
}

type ghCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	HTMLURL string `json:"html_url"`
	Stats   struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
		Total     int `json:"total"`
	} `json:"stats"`
	Files []struct{} `json:"files"`
}

type ghPull struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	HTMLURL   string     `json:"html_url"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at"`
	MergeSHA  string     `json:"merge_commit_sha"`
}

type ghPullCommit struct {
	SHA string `json:"sha"`
}

func (p *Provider) Fetch(ctx context.Context, token provider.Token) (provider.FetchResult, *provider.Error) {
	user, perr := p.fetchUser(ctx, token)
	if perr != nil {
		return provider.FetchResult{}, perr
	}

	repos, perr := p.fetchRepos(ctx, token)
	if perr != nil {
		return provider.FetchResult{}, perr
	}

	result := provider.FetchResult{
		Meta: provider.MetaResult{Username: user.Login, Repos: repoNames(repos)},
	}

	for _, repo := range repos {
		commits, perr := p.fetchCommits(ctx, token, repo)
		if perr != nil {
			return provider.FetchResult{}, perr
		}
		result.Collections = append(result.Collections, provider.Collection{
			Name: "commits", Owner: repo.Owner.Login, Repo: repo.Name, Payload: commits,
		})

		prs, perr := p.fetchPRs(ctx, token, repo)
		if perr != nil {
			return provider.FetchResult{}, perr
		}
		result.Collections = append(result.Collections, provider.Collection{
			Name: "prs", Owner: repo.Owner.Login, Repo: repo.Name, Payload: prs,
		})
	}

	return result, nil
}

func repoNames(repos []ghRepo) []string {
	out := make([]string, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.FullName)
	}
	return out
}

func (p *Provider) fetchUser(ctx context.Context, token provider.Token) (ghUser, *provider.Error) {
	var user ghUser
	if err := p.get(ctx, token, "/user", &user); err != nil {
		return ghUser{}, err
	}
	return user, nil
}

func (p *Provider) fetchRepos(ctx context.Context, token provider.Token) ([]ghRepo, *provider.Error) {
	url := fmt.Sprintf("/user/repos?per_page=%d&sort=pushed", platform.PageSize(platform.CodeHost))
	var repos []ghRepo
	if err := p.get(ctx, token, url, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

func (p *Provider) fetchCommits(ctx context.Context, token provider.Token, repo ghRepo) (store.GithubCommitsPayload, *provider.Error) {
	url := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", repo.Owner.Login, repo.Name, platform.PageSize(platform.CodeHost))
	var raw []ghCommit
	if err := p.get(ctx, token, url, &raw); err != nil {
		return store.GithubCommitsPayload{}, err
	}
	payload := store.GithubCommitsPayload{Repo: repo.FullName}
	for _, c := range raw {
		payload.Commits = append(payload.Commits, store.GithubCommit{
			SHA:        c.SHA,
			Message:    c.Commit.Message,
			AuthorDate: c.Commit.Author.Date,
			Repo:       repo.FullName,
			Branch:     "main",
			Additions:  c.Stats.Additions,
			Deletions:  c.Stats.Deletions,
			FilesChanged: len(c.Files),
			URL:        c.HTMLURL,
		})
	}
	if len(payload.Commits) > 0 {
		payload.NewestSHA = payload.Commits[0].SHA
		payload.OldestSHA = payload.Commits[len(payload.Commits)-1].SHA
	}
	return payload, nil
}

func (p *Provider) fetchPRs(ctx context.Context, token provider.Token, repo ghRepo) (store.GithubPRsPayload, *provider.Error) {
	url := fmt.Sprintf("/repos/%s/%s/pulls?state=all&per_page=%d", repo.Owner.Login, repo.Name, platform.PageSize(platform.CodeHost))
	var raw []ghPull
	if err := p.get(ctx, token, url, &raw); err != nil {
		return store.GithubPRsPayload{}, err
	}
	payload := store.GithubPRsPayload{Repo: repo.FullName}
	for _, pr := range raw {
		shas, perr := p.fetchPRCommitSHAs(ctx, token, repo, pr.Number)
		if perr != nil {
			return store.GithubPRsPayload{}, perr
		}
		payload.PRs = append(payload.PRs, store.GithubPR{
			Number:         pr.Number,
			Title:          pr.Title,
			Repo:           repo.FullName,
			URL:            pr.HTMLURL,
			CommitSHAs:     shas,
			MergeCommitSHA: pr.MergeSHA,
			MergedAt:       pr.MergedAt,
			UpdatedAt:      pr.UpdatedAt,
		})
	}
	return payload, nil
}

// fetchPRCommitSHAs lists the commits belonging to a single pull request.
// The list-pulls endpoint fetchPRs calls doesn't return per-PR commit
// membership, so this is a separate call per PR.
func (p *Provider) fetchPRCommitSHAs(ctx context.Context, token provider.Token, repo ghRepo, number int) ([]string, *provider.Error) {
	url := fmt.Sprintf("/repos/%s/%s/pulls/%d/commits?per_page=%d", repo.Owner.Login, repo.Name, number, platform.PageSize(platform.CodeHost))
	var raw []ghPullCommit
	if err := p.get(ctx, token, url, &raw); err != nil {
		return nil, err
	}
	shas := make([]string, 0, len(raw))
	for _, c := range raw {
		shas = append(shas, c.SHA)
	}
	return shas, nil
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
	req.Header.Set("Accept", "application/vnd.github+json")

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
