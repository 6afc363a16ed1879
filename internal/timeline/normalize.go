// Package timeline implements the Timeline Assembler (C6, spec.md §4.6)
// and Profile Filter (C7, spec.md §4.7): normalizing per-platform entity
// collections into TimelineItems, deduplicating commits against the PRs
// that contain them, grouping, and date-bucketing.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/store"
)

const defaultTitleTruncate = 100
const postContentTruncate = 200

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// NormalizeCommits converts a code-host commits collection into TimelineItems.
func NormalizeCommits(accountID string, payload store.GithubCommitsPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.Commits))
	for _, c := range payload.Commits {
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:commit:%s:%s", platform.CodeHost, c.Repo, shortSHA(c.SHA)),
			Platform:  string(platform.CodeHost),
			Type:      store.ItemCommit,
			Timestamp: c.AuthorDate,
			Title:     truncate(c.Message, defaultTitleTruncate),
			URL:       c.URL,
			AccountID: accountID,
			Commit: &store.CommitItemPayload{
				SHA: c.SHA, Message: c.Message, Repo: c.Repo, Branch: c.Branch,
				Additions: c.Additions, Deletions: c.Deletions, FilesChanged: c.FilesChanged,
				AuthorDate: c.AuthorDate, AccountID: accountID,
			},
		})
	}
	return items
}

// NormalizePRs converts a code-host pull-requests collection into TimelineItems.
func NormalizePRs(accountID string, payload store.GithubPRsPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.PRs))
	for _, pr := range payload.PRs {
		ts := pr.UpdatedAt
		if pr.MergedAt != nil {
			ts = *pr.MergedAt
		}
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:pr:%s:%d", platform.CodeHost, pr.Repo, pr.Number),
			Platform:  string(platform.CodeHost),
			Type:      store.ItemPullReq,
			Timestamp: ts,
			Title:     pr.Title,
			URL:       pr.URL,
			AccountID: accountID,
			PullRequest: &store.PullRequestItemPayload{
				Repo: pr.Repo, Number: pr.Number,
				CommitSHAs: pr.CommitSHAs, MergeCommitSHA: pr.MergeCommitSHA,
			},
		})
	}
	return items
}

// NormalizePosts converts a social-A posts collection into TimelineItems.
func NormalizePosts(accountID string, payload store.RedditPostsPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.Posts))
	for _, p := range payload.Posts {
		ts := time.UnixMilli(p.CreatedUTC * 1000).UTC()
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:post:%s", platform.SocialA, p.ID),
			Platform:  string(platform.SocialA),
			Type:      store.ItemPost,
			Timestamp: ts,
			Title:     p.Title,
			URL:       p.URL,
			AccountID: accountID,
			Post: &store.PostItemPayload{
				Subreddit: p.Subreddit, Content: truncate(p.SelfText, postContentTruncate),
				Score: p.Score, NumComments: p.NumComments, HasMedia: looksLikeMedia(p.URL),
			},
		})
	}
	return items
}

// NormalizeComments converts a social-A comments collection into TimelineItems.
func NormalizeComments(accountID string, payload store.RedditCommentsPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.Comments))
	for _, c := range payload.Comments {
		ts := time.UnixMilli(c.CreatedUTC * 1000).UTC()
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:comment:%s", platform.SocialA, c.ID),
			Platform:  string(platform.SocialA),
			Type:      store.ItemComment,
			Timestamp: ts,
			Title:     truncate(c.Body, defaultTitleTruncate),
			URL:       c.ParentPostURL,
			AccountID: accountID,
			Comment: &store.CommentItemPayload{
				ParentPostTitle: c.ParentPostTitle, ParentPostURL: c.ParentPostURL,
				IsOP: c.IsOP, Content: truncate(c.Body, postContentTruncate),
			},
		})
	}
	return items
}

// NormalizeTweets converts a microblog tweets collection into TimelineItems.
func NormalizeTweets(accountID string, payload store.TweetsPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.Tweets))
	for _, t := range payload.Tweets {
		isRepost := false
		for _, ref := range t.ReferencedTweets {
			if ref.Type == "retweeted" {
				isRepost = true
				break
			}
		}
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:post:%s", platform.Microblog, t.ID),
			Platform:  string(platform.Microblog),
			Type:      store.ItemPost,
			Timestamp: t.CreatedAt,
			Title:     truncate(t.Text, defaultTitleTruncate),
			URL:       fmt.Sprintf("https://twitter.com/%s/status/%s", t.AuthorHandle, t.ID),
			AccountID: accountID,
			Tweet: &store.TweetItemPayload{
				AuthorHandle: t.AuthorHandle, Content: t.Text,
				IsReply:     t.InReplyToUserID != "",
				IsRepost:    isRepost,
				RepostCount: t.RetweetCount + t.QuoteCount,
			},
		})
	}
	return items
}

// NormalizeSocialB, NormalizeVideos and NormalizeTasks normalize the three
// single-store platforms' raw payloads into TimelineItems so they can
// participate in the same date-grouping pass as the multi-store platforms
// (spec.md §4.6 step 1's "other" partition).

func NormalizeSocialB(accountID string, payload store.SocialBPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.Posts))
	for _, p := range payload.Posts {
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:post:%s", platform.SocialB, p.ID),
			Platform:  string(platform.SocialB),
			Type:      store.ItemPost,
			Timestamp: p.CreatedAt,
			Title:     truncate(p.Text, defaultTitleTruncate),
			URL:       p.URL,
			AccountID: accountID,
			Post:      &store.PostItemPayload{Content: truncate(p.Text, postContentTruncate)},
		})
	}
	return items
}

func NormalizeVideos(accountID string, payload store.VideoHostPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.Videos))
	for _, v := range payload.Videos {
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:video:%s", platform.VideoHost, v.ID),
			Platform:  string(platform.VideoHost),
			Type:      store.ItemVideo,
			Timestamp: v.PublishedAt,
			Title:     v.Title,
			URL:       v.URL,
			AccountID: accountID,
			Video:     &store.VideoItemPayload{Channel: v.Channel, Description: v.Description},
		})
	}
	return items
}

func NormalizeTasks(accountID string, payload store.TaskTrackerPayload) []store.TimelineItem {
	items := make([]store.TimelineItem, 0, len(payload.Tasks))
	for _, t := range payload.Tasks {
		items = append(items, store.TimelineItem{
			ID:        fmt.Sprintf("%s:task:%s", platform.TaskTracker, t.ID),
			Platform:  string(platform.TaskTracker),
			Type:      store.ItemTask,
			Timestamp: t.UpdatedAt,
			Title:     t.Title,
			URL:       t.URL,
			AccountID: accountID,
			Task:      &store.TaskItemPayload{Status: t.Status, Assignee: t.Assignee},
		})
	}
	return items
}

func looksLikeMedia(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".gifv", ".mp4", ".webm", "i.redd.it", "v.redd.it", "imgur.com"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
