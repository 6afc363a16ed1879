package timeline

import (
	"testing"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/store"
)

func includeFilter(accountID uuid.UUID, key model.FilterKey, value string) model.ProfileFilter {
	return model.ProfileFilter{AccountID: accountID, Type: model.FilterInclude, Key: key, Value: value}
}

func excludeFilter(accountID uuid.UUID, key model.FilterKey, value string) model.ProfileFilter {
	return model.ProfileFilter{AccountID: accountID, Type: model.FilterExclude, Key: key, Value: value}
}

func postGroup(accountID uuid.UUID, date, subreddit string) store.DateGroup {
	return store.DateGroup{
		Date: date,
		Entries: []store.DateEntry{
			{Item: &store.TimelineItem{
				AccountID: accountID.String(), Type: store.ItemPost, Post: &store.PostItemPayload{Subreddit: subreddit},
			}},
		},
	}
}

func TestApplyFiltersExcludeDropsMatchingItems(t *testing.T) {
	acc := uuid.New()
	groups := []store.DateGroup{postGroup(acc, "2026-01-01", "golang")}
	filters := []model.ProfileFilter{excludeFilter(acc, model.FilterKeySubreddit, "golang")}

	out := ApplyFilters(groups, filters)
	if len(out) != 0 {
		t.Fatalf("expected the excluded group to be dropped entirely, got %+v", out)
	}
}

func TestApplyFiltersIncludeKeepsOnlyMatching(t *testing.T) {
	acc := uuid.New()
	groups := []store.DateGroup{
		{Date: "2026-01-01", Entries: []store.DateEntry{
			{Item: &store.TimelineItem{AccountID: acc.String(), Type: store.ItemPost, Post: &store.PostItemPayload{Subreddit: "golang"}}},
			{Item: &store.TimelineItem{AccountID: acc.String(), Type: store.ItemPost, Post: &store.PostItemPayload{Subreddit: "rust"}}},
		}},
	}
	filters := []model.ProfileFilter{includeFilter(acc, model.FilterKeySubreddit, "golang")}

	out := ApplyFilters(groups, filters)
	if len(out) != 1 || len(out[0].Entries) != 1 {
		t.Fatalf("expected only the matching entry to survive, got %+v", out)
	}
}

func TestApplyFiltersNoFiltersForAccountKeepsEverything(t *testing.T) {
	acc := uuid.New()
	groups := []store.DateGroup{postGroup(acc, "2026-01-01", "golang")}
	out := ApplyFilters(groups, nil)
	if len(out) != 1 {
		t.Fatalf("expected items to pass through untouched when no filters exist, got %+v", out)
	}
}

func TestApplyFiltersRecomputesCommitGroupTotals(t *testing.T) {
	acc1, acc2 := uuid.New(), uuid.New()
	g := store.CommitGroup{
		Repo: "acme/widget", Branch: "main", Date: "2026-01-01",
		Commits: []store.CommitItemPayload{
			{SHA: "a", AccountID: acc1.String(), Additions: 10, Deletions: 2, FilesChanged: 1},
			{SHA: "b", AccountID: acc2.String(), Additions: 5, Deletions: 1, FilesChanged: 1},
		},
		Additions: 15, Deletions: 3, Files: 2,
	}
	groups := []store.DateGroup{{Date: "2026-01-01", Entries: []store.DateEntry{{CommitGroup: &g}}}}
	filters := []model.ProfileFilter{excludeFilter(acc2, model.FilterKeyRepo, "acme/widget")}

	out := ApplyFilters(groups, filters)
	if len(out) != 1 || len(out[0].Entries) != 1 {
		t.Fatalf("expected the commit group to survive with one commit excluded, got %+v", out)
	}
	survived := out[0].Entries[0].CommitGroup
	if len(survived.Commits) != 1 || survived.Commits[0].SHA != "a" {
		t.Fatalf("expected only commit a to survive, got %+v", survived.Commits)
	}
	if survived.Additions != 10 || survived.Deletions != 2 || survived.Files != 1 {
		t.Fatalf("expected totals recomputed from survivors, got +%d -%d files=%d", survived.Additions, survived.Deletions, survived.Files)
	}
}

func TestApplyFiltersDropsCommitGroupWhenAllCommitsExcluded(t *testing.T) {
	acc := uuid.New()
	g := store.CommitGroup{
		Repo: "acme/widget", Branch: "main", Date: "2026-01-01",
		Commits: []store.CommitItemPayload{{SHA: "a", AccountID: acc.String()}},
	}
	groups := []store.DateGroup{{Date: "2026-01-01", Entries: []store.DateEntry{{CommitGroup: &g}}}}
	filters := []model.ProfileFilter{excludeFilter(acc, model.FilterKeyRepo, "acme/widget")}

	out := ApplyFilters(groups, filters)
	if len(out) != 0 {
		t.Fatalf("expected the date group to be dropped once its only entry is excluded, got %+v", out)
	}
}

func TestPaginateRespectsBeforeCursor(t *testing.T) {
	groups := []store.DateGroup{
		{Date: "2026-01-03"}, {Date: "2026-01-02"}, {Date: "2026-01-01"},
	}
	out := Paginate(groups, "2026-01-02", 0)
	if len(out) != 1 || out[0].Date != "2026-01-01" {
		t.Fatalf("expected only dates strictly before the cursor, got %+v", out)
	}
}

func TestPaginateTruncatesTailGroupByLimit(t *testing.T) {
	groups := []store.DateGroup{
		{Date: "2026-01-02", Entries: []store.DateEntry{{Item: &store.TimelineItem{}}, {Item: &store.TimelineItem{}}}},
		{Date: "2026-01-01", Entries: []store.DateEntry{{Item: &store.TimelineItem{}}, {Item: &store.TimelineItem{}}}},
	}
	out := Paginate(groups, "", 3)
	if len(out) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out))
	}
	if len(out[0].Entries) != 2 {
		t.Fatalf("expected the first group untouched, got %d entries", len(out[0].Entries))
	}
	if len(out[1].Entries) != 1 {
		t.Fatalf("expected the tail group truncated to 1 entry, got %d", len(out[1].Entries))
	}
}

func TestPaginateCommitGroupCountsByCommitCount(t *testing.T) {
	cg := store.CommitGroup{Commits: []store.CommitItemPayload{{SHA: "a"}, {SHA: "b"}, {SHA: "c"}}}
	groups := []store.DateGroup{{Date: "2026-01-01", Entries: []store.DateEntry{{CommitGroup: &cg}}}}

	out := Paginate(groups, "", 2)
	if len(out) != 1 || len(out[0].Entries) != 1 {
		t.Fatalf("expected one truncated commit-group entry, got %+v", out)
	}
	truncated := out[0].Entries[0].CommitGroup
	if len(truncated.Commits) != 2 {
		t.Fatalf("expected commit group truncated to 2 commits, got %d", len(truncated.Commits))
	}
}

func TestPaginateZeroLimitReturnsAllFiltered(t *testing.T) {
	groups := []store.DateGroup{{Date: "2026-01-01"}, {Date: "2026-01-02"}}
	out := Paginate(groups, "", 0)
	if len(out) != 2 {
		t.Fatalf("expected limit<=0 to mean unlimited, got %d groups", len(out))
	}
}
