package timeline

import (
	"sort"
	"time"

	"github.com/f0rbit/media-timeline/internal/store"
)

const dateKeyLayout = "2006-01-02"

func dateKey(t time.Time) string { return t.UTC().Format(dateKeyLayout) }

// PlatformItems groups a user's normalized items by platform ahead of
// Assemble. Commits and PRs are kept separate from everything else since
// dedup only applies between those two collections (spec.md §4.6 step 4).
type PlatformItems struct {
	Commits []store.TimelineItem
	PRs     []store.TimelineItem
	Other   []store.TimelineItem // social-A, microblog, social-B, video-host, task-tracker
}

// dedupCommitsAgainstPRs implements spec.md §4.6 step 4: orphan commits are
// those whose sha doesn't appear in any PR's commit-hash set (including its
// merge commit); PRs are enriched with resolved commit refs by sha.
func dedupCommitsAgainstPRs(commits, prs []store.TimelineItem) (orphans []store.TimelineItem, enrichedPRs []store.TimelineItem) {
	prCommitSet := make(map[string]struct{})
	for _, pr := range prs {
		if pr.PullRequest == nil {
			continue
		}
		for _, sha := range pr.PullRequest.CommitSHAs {
			prCommitSet[sha] = struct{}{}
		}
		if pr.PullRequest.MergeCommitSHA != "" {
			prCommitSet[pr.PullRequest.MergeCommitSHA] = struct{}{}
		}
	}

	commitBySHA := make(map[string]store.TimelineItem, len(commits))
	for _, c := range commits {
		if c.Commit != nil {
			commitBySHA[c.Commit.SHA] = c
		}
	}

	for _, c := range commits {
		if c.Commit == nil {
			continue
		}
		if _, inPR := prCommitSet[c.Commit.SHA]; !inPR {
			orphans = append(orphans, c)
		}
	}

	for _, pr := range prs {
		enriched := pr
		if pr.PullRequest != nil {
			refs := make([]store.PRCommitRef, 0, len(pr.PullRequest.CommitSHAs))
			for _, sha := range pr.PullRequest.CommitSHAs {
				if c, ok := commitBySHA[sha]; ok && c.Commit != nil {
					refs = append(refs, store.PRCommitRef{SHA: sha, Message: c.Commit.Message, URL: c.URL})
				}
			}
			prCopy := *pr.PullRequest
			prCopy.Commits = refs
			enriched.PullRequest = &prCopy
		}
		enrichedPRs = append(enrichedPRs, enriched)
	}

	return orphans, enrichedPRs
}

// groupOrphanCommits implements spec.md §4.6 step 5: bucket orphan commits
// by (repo, branch, date) and sum their stats.
func groupOrphanCommits(orphans []store.TimelineItem) []store.CommitGroup {
	type groupKey struct{ repo, branch, date string }
	index := make(map[groupKey]*store.CommitGroup)
	var order []groupKey

	for _, item := range orphans {
		if item.Commit == nil {
			continue
		}
		k := groupKey{repo: item.Commit.Repo, branch: item.Commit.Branch, date: dateKey(item.Timestamp)}
		g, ok := index[k]
		if !ok {
			g = &store.CommitGroup{Repo: k.repo, Branch: k.branch, Date: k.date, Timestamp: item.Timestamp}
			index[k] = g
			order = append(order, k)
		}
		g.Commits = append(g.Commits, *item.Commit)
		g.Additions += item.Commit.Additions
		g.Deletions += item.Commit.Deletions
		g.Files += item.Commit.FilesChanged
		if item.Timestamp.After(g.Timestamp) {
			g.Timestamp = item.Timestamp
		}
	}

	groups := make([]store.CommitGroup, 0, len(order))
	for _, k := range order {
		g := *index[k]
		sort.SliceStable(g.Commits, func(i, j int) bool {
			return g.Commits[i].AuthorDate.After(g.Commits[j].AuthorDate)
		})
		groups = append(groups, g)
	}
	return groups
}

// buildDateGroups implements spec.md §4.6 step 6.
func buildDateGroups(commitGroups []store.CommitGroup, items []store.TimelineItem) []store.DateGroup {
	byDate := make(map[string][]store.DateEntry)
	var dates []string
	seen := make(map[string]bool)

	addDate := func(d string) {
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}

	for _, g := range commitGroups {
		gCopy := g
		byDate[g.Date] = append(byDate[g.Date], store.DateEntry{CommitGroup: &gCopy})
		addDate(g.Date)
	}
	for _, item := range items {
		d := dateKey(item.Timestamp)
		itemCopy := item
		byDate[d] = append(byDate[d], store.DateEntry{Item: &itemCopy})
		addDate(d)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	groups := make([]store.DateGroup, 0, len(dates))
	for _, d := range dates {
		entries := byDate[d]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Timestamp().After(entries[j].Timestamp())
		})
		groups = append(groups, store.DateGroup{Date: d, Entries: entries})
	}
	return groups
}

// Assemble implements CombineUserTimeline's pure transformation (spec.md
// §4.6 steps 3-6): dedup commits against PRs, group orphan commits, and
// date-bucket the result alongside every other already-normalized item.
// Loading raw collections from the store and normalizing them into
// PlatformItems is the caller's responsibility (internal/sync), which
// holds the Backend handle and can resolve parent lineage.
func Assemble(items PlatformItems) []store.DateGroup {
	orphans, enrichedPRs := dedupCommitsAgainstPRs(items.Commits, items.PRs)
	commitGroups := groupOrphanCommits(orphans)

	other := make([]store.TimelineItem, 0, len(enrichedPRs)+len(items.Other))
	other = append(other, enrichedPRs...)
	other = append(other, items.Other...)

	return buildDateGroups(commitGroups, other)
}
