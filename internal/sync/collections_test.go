package sync

import (
	"context"
	"testing"

	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/store"
)

func TestStoreCollectionMergesGithubCommitsAcrossCalls(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := provider.Collection{Name: "commits", Owner: "acme", Repo: "widget", Payload: store.GithubCommitsPayload{
		Repo:    "acme/widget",
		Commits: []store.GithubCommit{{SHA: "a1", Message: "first"}},
	}}
	res, err := env.svc.storeCollection(ctx, "acct-1", "code-host", first)
	if err != nil {
		t.Fatalf("storeCollection: %v", err)
	}
	if res.NewCount != 1 || res.Total != 1 {
		t.Fatalf("got %+v", res)
	}

	second := provider.Collection{Name: "commits", Owner: "acme", Repo: "widget", Payload: store.GithubCommitsPayload{
		Repo: "acme/widget",
		Commits: []store.GithubCommit{
			{SHA: "a1", Message: "first"},
			{SHA: "a2", Message: "second"},
		},
	}}
	res2, err := env.svc.storeCollection(ctx, "acct-1", "code-host", second)
	if err != nil {
		t.Fatalf("storeCollection (2nd): %v", err)
	}
	if res2.NewCount != 1 {
		t.Fatalf("expected only the new commit counted, got NewCount=%d", res2.NewCount)
	}
	if res2.Total != 2 {
		t.Fatalf("expected merged total of 2, got %d", res2.Total)
	}
	if res2.Version <= res.Version {
		t.Fatalf("expected a new version after the merge, got %d then %d", res.Version, res2.Version)
	}
}

func TestStoreCollectionDedupsRedditPostsByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	col := provider.Collection{Name: "posts", Payload: store.RedditPostsPayload{
		Posts: []store.RedditPost{{ID: "p1", Title: "hello"}},
	}}
	if _, err := env.svc.storeCollection(ctx, "acct-2", "social-A", col); err != nil {
		t.Fatalf("storeCollection: %v", err)
	}

	dup := provider.Collection{Name: "posts", Payload: store.RedditPostsPayload{
		Posts: []store.RedditPost{{ID: "p1", Title: "hello"}},
	}}
	res, err := env.svc.storeCollection(ctx, "acct-2", "social-A", dup)
	if err != nil {
		t.Fatalf("storeCollection (dup): %v", err)
	}
	if res.NewCount != 0 || res.Total != 1 {
		t.Fatalf("expected a duplicate post to contribute no new entries, got %+v", res)
	}
}

func TestStoreCollectionRejectsUnrecognizedPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.storeCollection(ctx, "acct-3", "code-host", provider.Collection{Name: "mystery", Payload: 42})
	if err == nil {
		t.Fatal("expected an error for an unrecognized collection payload type")
	}
}
