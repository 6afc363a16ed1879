package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/merge"
	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/store"
)

// collectionResult is the per-collection bookkeeping the Account Processor
// reports back (spec.md §4.5 step 4: "collect per-collection {version,
// new_count, total}").
type collectionResult struct {
	StoreID  string
	Version  int64
	NewCount int
	Total    int
}

func isNotFound(err error) bool {
	var derr *domainerr.Error
	return errors.As(err, &derr) && derr.Kind == domainerr.KindNotFound
}

func tags(accountID string, p string) []string {
	return []string{"platform:" + p, "account:" + accountID}
}

// storeCollection dispatches on the concrete payload type a provider
// returned (spec.md §4.4's "higher-level store merge"): load the existing
// typed payload, merge by the collection's natural key, and persist the
// stitched result.
func (s *Service) storeCollection(ctx context.Context, accountID string, platformTag string, col provider.Collection) (collectionResult, error) {
	switch payload := col.Payload.(type) {
	case store.GithubCommitsPayload:
		id := store.GithubCommitsID(accountID, col.Owner, col.Repo)
		return s.mergeGithubCommits(ctx, id, payload, accountID)
	case store.GithubPRsPayload:
		id := store.GithubPRsID(accountID, col.Owner, col.Repo)
		return s.mergeGithubPRs(ctx, id, payload, accountID)
	case store.RedditPostsPayload:
		id := store.RedditID(accountID, "posts")
		return s.mergeRedditPosts(ctx, id, payload, accountID, platformTag)
	case store.RedditCommentsPayload:
		id := store.RedditID(accountID, "comments")
		return s.mergeRedditComments(ctx, id, payload, accountID, platformTag)
	case store.TweetsPayload:
		id := store.TwitterID(accountID, "tweets")
		return s.mergeTweets(ctx, id, payload, accountID, platformTag)
	default:
		return collectionResult{}, fmt.Errorf("sync: unrecognized collection payload %T", col.Payload)
	}
}

func (s *Service) mergeGithubCommits(ctx context.Context, id string, incoming store.GithubCommitsPayload, accountID string) (collectionResult, error) {
	existing, _, err := store.GetLatest[store.GithubCommitsPayload](ctx, s.Store, id)
	if err != nil && !isNotFound(err) {
		return collectionResult{}, err
	}
	merged, newCount := merge.ByKey(existing.Commits, incoming.Commits, func(c store.GithubCommit) string { return c.SHA })
	result := store.GithubCommitsPayload{Repo: incoming.Repo, Commits: merged}
	if len(merged) > 0 {
		result.OldestSHA, result.NewestSHA = merged[0].SHA, merged[len(merged)-1].SHA
	}
	snap, err := store.Put(ctx, s.Store, id, result, store.PutOptions{Tags: tags(accountID, "code-host")})
	if err != nil {
		return collectionResult{}, err
	}
	return collectionResult{StoreID: id, Version: snap.Version, NewCount: newCount, Total: len(merged)}, nil
}

func (s *Service) mergeGithubPRs(ctx context.Context, id string, incoming store.GithubPRsPayload, accountID string) (collectionResult, error) {
	existing, _, err := store.GetLatest[store.GithubPRsPayload](ctx, s.Store, id)
	if err != nil && !isNotFound(err) {
		return collectionResult{}, err
	}
	merged, newCount := merge.ByKey(existing.PRs, incoming.PRs, func(p store.GithubPR) int { return p.Number })
	result := store.GithubPRsPayload{Repo: incoming.Repo, PRs: merged}
	snap, err := store.Put(ctx, s.Store, id, result, store.PutOptions{Tags: tags(accountID, "code-host")})
	if err != nil {
		return collectionResult{}, err
	}
	return collectionResult{StoreID: id, Version: snap.Version, NewCount: newCount, Total: len(merged)}, nil
}

func (s *Service) mergeRedditPosts(ctx context.Context, id string, incoming store.RedditPostsPayload, accountID, platformTag string) (collectionResult, error) {
	existing, _, err := store.GetLatest[store.RedditPostsPayload](ctx, s.Store, id)
	if err != nil && !isNotFound(err) {
		return collectionResult{}, err
	}
	merged, newCount := merge.ByKey(existing.Posts, incoming.Posts, func(p store.RedditPost) string { return p.ID })
	result := store.RedditPostsPayload{Posts: merged}
	if len(merged) > 0 {
		result.NewestID, result.OldestID = merged[0].ID, merged[len(merged)-1].ID
	}
	snap, err := store.Put(ctx, s.Store, id, result, store.PutOptions{Tags: tags(accountID, platformTag)})
	if err != nil {
		return collectionResult{}, err
	}
	return collectionResult{StoreID: id, Version: snap.Version, NewCount: newCount, Total: len(merged)}, nil
}

func (s *Service) mergeRedditComments(ctx context.Context, id string, incoming store.RedditCommentsPayload, accountID, platformTag string) (collectionResult, error) {
	existing, _, err := store.GetLatest[store.RedditCommentsPayload](ctx, s.Store, id)
	if err != nil && !isNotFound(err) {
		return collectionResult{}, err
	}
	merged, newCount := merge.ByKey(existing.Comments, incoming.Comments, func(c store.RedditComment) string { return c.ID })
	result := store.RedditCommentsPayload{Comments: merged}
	snap, err := store.Put(ctx, s.Store, id, result, store.PutOptions{Tags: tags(accountID, platformTag)})
	if err != nil {
		return collectionResult{}, err
	}
	return collectionResult{StoreID: id, Version: snap.Version, NewCount: newCount, Total: len(merged)}, nil
}

func (s *Service) mergeTweets(ctx context.Context, id string, incoming store.TweetsPayload, accountID, platformTag string) (collectionResult, error) {
	existing, _, err := store.GetLatest[store.TweetsPayload](ctx, s.Store, id)
	if err != nil && !isNotFound(err) {
		return collectionResult{}, err
	}
	merged, newCount := merge.ByKey(existing.Tweets, incoming.Tweets, func(t store.Tweet) string { return t.ID })
	result := store.TweetsPayload{Tweets: merged}
	snap, err := store.Put(ctx, s.Store, id, result, store.PutOptions{Tags: tags(accountID, platformTag)})
	if err != nil {
		return collectionResult{}, err
	}
	return collectionResult{StoreID: id, Version: snap.Version, NewCount: newCount, Total: len(merged)}, nil
}
