package timeline

import (
	"strings"

	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/store"
)

// accountFilters groups a single account's filters into include/exclude sets.
type accountFilters struct {
	include []model.ProfileFilter
	exclude []model.ProfileFilter
}

func groupFiltersByAccount(filters []model.ProfileFilter) map[string]accountFilters {
	out := make(map[string]accountFilters)
	for _, f := range filters {
		key := f.AccountID.String()
		af := out[key]
		if f.Type == model.FilterExclude {
			af.exclude = append(af.exclude, f)
		} else {
			af.include = append(af.include, f)
		}
		out[key] = af
	}
	return out
}

// matches implements spec.md §4.7's case-insensitive matcher semantics.
func matches(f model.ProfileFilter, item store.TimelineItem) bool {
	value := strings.ToLower(f.Value)
	switch f.Key {
	case model.FilterKeyRepo:
		if item.Commit != nil {
			return strings.ToLower(item.Commit.Repo) == value
		}
		if item.PullRequest != nil {
			return strings.ToLower(item.PullRequest.Repo) == value
		}
		return false
	case model.FilterKeySubreddit:
		return item.Post != nil && strings.ToLower(item.Post.Subreddit) == value
	case model.FilterKeyTwitterAccount:
		return item.Tweet != nil && strings.ToLower(item.Tweet.AuthorHandle) == value
	case model.FilterKeyKeyword:
		if strings.Contains(strings.ToLower(item.Title), value) {
			return true
		}
		if item.Post != nil && strings.Contains(strings.ToLower(item.Post.Content), value) {
			return true
		}
		if item.Commit != nil && strings.Contains(strings.ToLower(item.Commit.Message), value) {
			return true
		}
		return false
	default:
		return false
	}
}

// keepItem applies spec.md §4.7 step 4 to one item.
func keepItem(af accountFilters, item store.TimelineItem) bool {
	for _, f := range af.exclude {
		if matches(f, item) {
			return false
		}
	}
	if len(af.include) == 0 {
		return true
	}
	for _, f := range af.include {
		if matches(f, item) {
			return true
		}
	}
	return false
}

// ApplyFilters implements spec.md §4.7 steps 4-5: per-account include/
// exclude matching over items, and elementwise filtering of commit groups
// (dropping groups left empty, recomputing totals from survivors).
func ApplyFilters(groups []store.DateGroup, filters []model.ProfileFilter) []store.DateGroup {
	byAccount := groupFiltersByAccount(filters)

	out := make([]store.DateGroup, 0, len(groups))
	for _, g := range groups {
		var entries []store.DateEntry
		for _, e := range g.Entries {
			switch {
			case e.Item != nil:
				af, ok := byAccount[e.Item.AccountID]
				if !ok || keepItem(af, *e.Item) {
					entries = append(entries, e)
				}
			case e.CommitGroup != nil:
				if filtered, ok := filterCommitGroup(*e.CommitGroup, byAccount); ok {
					entries = append(entries, store.DateEntry{CommitGroup: &filtered})
				}
			}
		}
		if len(entries) > 0 {
			out = append(out, store.DateGroup{Date: g.Date, Entries: entries})
		}
	}
	return out
}

// filterCommitGroup applies each commit's own account's filters (a commit
// group can span accounts when several accounts share a repo/branch/date).
func filterCommitGroup(g store.CommitGroup, byAccount map[string]accountFilters) (store.CommitGroup, bool) {
	var survivors []store.CommitItemPayload
	for _, c := range g.Commits {
		item := store.TimelineItem{Commit: &c}
		af, ok := byAccount[c.AccountID]
		if !ok || keepItem(af, item) {
			survivors = append(survivors, c)
		}
	}
	if len(survivors) == 0 {
		return store.CommitGroup{}, false
	}
	recomputed := store.CommitGroup{Repo: g.Repo, Branch: g.Branch, Date: g.Date, Commits: survivors, Timestamp: g.Timestamp}
	for _, c := range survivors {
		recomputed.Additions += c.Additions
		recomputed.Deletions += c.Deletions
		recomputed.Files += c.FilesChanged
	}
	return recomputed, true
}

// Paginate implements spec.md §4.7 step 6: `before` is a strict date-key
// comparison, `limit` counts items (commit groups count as their commit
// count), consuming whole groups until the next would exceed limit, then
// truncating the tail group instead of dropping it entirely.
func Paginate(groups []store.DateGroup, before string, limit int) []store.DateGroup {
	filtered := groups
	if before != "" {
		filtered = make([]store.DateGroup, 0, len(groups))
		for _, g := range groups {
			if g.Date < before {
				filtered = append(filtered, g)
			}
		}
	}
	if limit <= 0 {
		return filtered
	}

	out := make([]store.DateGroup, 0, len(filtered))
	remaining := limit
	for _, g := range filtered {
		n := entryWeight(g)
		if n <= remaining {
			out = append(out, g)
			remaining -= n
			continue
		}
		if remaining > 0 {
			out = append(out, truncateGroup(g, remaining))
		}
		break
	}
	return out
}

func entryWeight(g store.DateGroup) int {
	n := 0
	for _, e := range g.Entries {
		if e.CommitGroup != nil {
			n += len(e.CommitGroup.Commits)
			continue
		}
		n++
	}
	return n
}

func truncateGroup(g store.DateGroup, limit int) store.DateGroup {
	var entries []store.DateEntry
	remaining := limit
	for _, e := range g.Entries {
		if remaining <= 0 {
			break
		}
		if e.Item != nil {
			entries = append(entries, e)
			remaining--
			continue
		}
		if e.CommitGroup != nil {
			cg := *e.CommitGroup
			if len(cg.Commits) <= remaining {
				entries = append(entries, e)
				remaining -= len(cg.Commits)
				continue
			}
			truncated := cg
			truncated.Commits = cg.Commits[:remaining]
			entries = append(entries, store.DateEntry{CommitGroup: &truncated})
			remaining = 0
		}
	}
	return store.DateGroup{Date: g.Date, Entries: entries}
}
