package store

import "time"

// PlatformMeta is the "platform meta" payload (spec.md §3): a profile
// summary for the account, shape varying slightly per platform via Extra.
type PlatformMeta struct {
	Username string            `json:"username"`
	Repos    []string          `json:"repos,omitempty"`
	Subreddits []string        `json:"subreddits,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// GithubCommit is one entry of a per-repo commits collection.
type GithubCommit struct {
	SHA          string    `json:"sha"`
	Message      string    `json:"message"`
	AuthorDate   time.Time `json:"author_date"`
	Repo         string    `json:"repo"`
	Branch       string    `json:"branch"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	FilesChanged int       `json:"files_changed"`
	URL          string    `json:"url"`
}

// GithubCommitsPayload is the "per-repo commits" payload: an ordered
// unique list keyed by commit hash, plus oldest/newest bookkeeping used
// by the Merger's store-merge wrapper.
type GithubCommitsPayload struct {
	Repo      string         `json:"repo"`
	Commits   []GithubCommit `json:"commits"`
	OldestSHA string         `json:"oldest_sha,omitempty"`
	NewestSHA string         `json:"newest_sha,omitempty"`
}

// GithubPR is one entry of a per-repo pull-requests collection.
type GithubPR struct {
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	Repo           string     `json:"repo"`
	URL            string     `json:"url"`
	CommitSHAs     []string   `json:"commit_shas"`
	MergeCommitSHA string     `json:"merge_commit_sha,omitempty"`
	MergedAt       *time.Time `json:"merged_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// GithubPRsPayload is the "per-repo pull requests" payload, keyed by PR number.
type GithubPRsPayload struct {
	Repo string     `json:"repo"`
	PRs  []GithubPR `json:"prs"`
}

// RedditPost is one entry of the social-A posts collection.
type RedditPost struct {
	ID          string `json:"id"`
	Subreddit   string `json:"subreddit"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	SelfText    string `json:"self_text,omitempty"`
	CreatedUTC  int64  `json:"created_utc"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
}

// RedditPostsPayload is the "posts" payload, keyed by the platform's post id.
type RedditPostsPayload struct {
	Posts     []RedditPost `json:"posts"`
	OldestID  string       `json:"oldest_id,omitempty"`
	NewestID  string       `json:"newest_id,omitempty"`
}

// RedditComment is one entry of the social-A comments collection.
type RedditComment struct {
	ID              string `json:"id"`
	ParentPostTitle string `json:"parent_post_title"`
	ParentPostURL   string `json:"parent_post_url"`
	Body            string `json:"body"`
	CreatedUTC      int64  `json:"created_utc"`
	IsOP            bool   `json:"is_op"`
}

// RedditCommentsPayload is the "comments" payload, keyed by comment id.
type RedditCommentsPayload struct {
	Comments []RedditComment `json:"comments"`
}

// ReferencedTweet models a tweet's reference to another tweet (retweet,
// quote, or reply), used to derive is_repost/is_reply during normalization.
type ReferencedTweet struct {
	Type string `json:"type"` // "retweeted", "quoted", "replied_to"
	ID   string `json:"id"`
}

// Tweet is one entry of the microblog tweets collection.
type Tweet struct {
	ID                string            `json:"id"`
	Text              string            `json:"text"`
	CreatedAt         time.Time         `json:"created_at"`
	AuthorHandle      string            `json:"author_handle"`
	InReplyToUserID   string            `json:"in_reply_to_user_id,omitempty"`
	ReferencedTweets  []ReferencedTweet `json:"referenced_tweets,omitempty"`
	RetweetCount      int               `json:"retweet_count"`
	QuoteCount        int               `json:"quote_count"`
}

// TweetsPayload is the "tweets" payload, keyed by tweet id.
type TweetsPayload struct {
	Tweets []Tweet `json:"tweets"`
}

// SocialBPost is a single-store social-B platform entry (mastodon-like).
type SocialBPost struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	URL       string    `json:"url"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// SocialBPayload is the single-store raw payload for social-B.
type SocialBPayload struct {
	Posts []SocialBPost `json:"posts"`
}

// Video is a single-store video-host platform entry (youtube-like).
type Video struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Channel     string    `json:"channel"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"published_at"`
}

// VideoHostPayload is the single-store raw payload for video-host.
type VideoHostPayload struct {
	Videos []Video `json:"videos"`
}

// Task is a single-store task-tracker platform entry.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Assignee  string    `json:"assignee"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskTrackerPayload is the single-store raw payload for task-tracker.
type TaskTrackerPayload struct {
	Tasks []Task `json:"tasks"`
}

// ItemType discriminates a normalized TimelineItem (spec.md §3).
type ItemType string

const (
	ItemCommit     ItemType = "commit"
	ItemPullReq    ItemType = "pull_request"
	ItemPost       ItemType = "post"
	ItemComment    ItemType = "comment"
	ItemVideo      ItemType = "video"
	ItemTask       ItemType = "task"
)

// CommitItemPayload is the commit variant of a TimelineItem's payload.
type CommitItemPayload struct {
	SHA          string    `json:"sha"`
	Message      string    `json:"message"`
	Repo         string    `json:"repo"`
	Branch       string    `json:"branch"`
	Additions    int       `json:"additions"`
	Deletions    int       `json:"deletions"`
	FilesChanged int       `json:"files_changed"`
	AuthorDate   time.Time `json:"author_date"`
	AccountID    string    `json:"account_id"`
}

// PRCommitRef is a commit resolved by sha and attached to an enriched PR.
type PRCommitRef struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// PullRequestItemPayload is the pull_request variant of a TimelineItem's payload.
type PullRequestItemPayload struct {
	Repo           string        `json:"repo"`
	Number         int           `json:"number"`
	CommitSHAs     []string      `json:"commit_shas"`
	MergeCommitSHA string        `json:"merge_commit_sha,omitempty"`
	Commits        []PRCommitRef `json:"commits"`
}

// PostItemPayload is the post variant of a TimelineItem's payload (social-A).
type PostItemPayload struct {
	Subreddit   string `json:"subreddit"`
	Content     string `json:"content"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	HasMedia    bool   `json:"has_media"`
}

// CommentItemPayload is the comment variant of a TimelineItem's payload (social-A).
type CommentItemPayload struct {
	ParentPostTitle string `json:"parent_post_title"`
	ParentPostURL   string `json:"parent_post_url"`
	IsOP            bool   `json:"is_op"`
	Content         string `json:"content"`
}

// TweetItemPayload is the payload of a microblog TimelineItem. Microblog
// items have type post, like social-A posts, but carry this payload in
// Tweet rather than a PostItemPayload in Post.
type TweetItemPayload struct {
	AuthorHandle string `json:"author_handle"`
	Content      string `json:"content"`
	IsReply      bool   `json:"is_reply"`
	IsRepost     bool   `json:"is_repost"`
	RepostCount  int    `json:"repost_count"`
}

// VideoItemPayload is the video variant of a TimelineItem's payload.
type VideoItemPayload struct {
	Channel     string `json:"channel"`
	Description string `json:"description"`
}

// TaskItemPayload is the task variant of a TimelineItem's payload.
type TaskItemPayload struct {
	Status   string `json:"status"`
	Assignee string `json:"assignee"`
}

// TimelineItem is the normalized cross-platform entry shape (spec.md §3).
// Exactly one of the *Payload fields is set, matching the item's Type —
// a closed, tagged-variant union rather than an open map.
type TimelineItem struct {
	ID        string       `json:"id"`
	Platform  string       `json:"platform"`
	Type      ItemType     `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	AccountID string       `json:"account_id"`

	Commit      *CommitItemPayload      `json:"commit,omitempty"`
	PullRequest *PullRequestItemPayload `json:"pull_request,omitempty"`
	Post        *PostItemPayload        `json:"post,omitempty"`
	Comment     *CommentItemPayload     `json:"comment,omitempty"`
	Tweet       *TweetItemPayload       `json:"tweet,omitempty"`
	Video       *VideoItemPayload       `json:"video,omitempty"`
	Task        *TaskItemPayload        `json:"task,omitempty"`
}

// CommitGroup is a derived bundle of orphan commits sharing (repo, branch, date).
type CommitGroup struct {
	Repo      string         `json:"repo"`
	Branch    string         `json:"branch"`
	Date      string         `json:"date"` // yyyy-mm-dd
	Commits   []CommitItemPayload `json:"commits"`
	Additions int            `json:"additions"`
	Deletions int            `json:"deletions"`
	Files     int            `json:"files"`
	// Timestamp is the first (most recent) commit's timestamp, used for
	// ordering this group within its date bucket.
	Timestamp time.Time `json:"timestamp"`
}

// DateEntry is one element of a DateGroup: either a normalized TimelineItem
// (possibly an enriched PR) or a derived CommitGroup.
type DateEntry struct {
	Item        *TimelineItem `json:"item,omitempty"`
	CommitGroup *CommitGroup  `json:"commit_group,omitempty"`
}

// Timestamp returns the entry's effective sort timestamp (spec.md §4.6 step 6).
func (e DateEntry) Timestamp() time.Time {
	if e.CommitGroup != nil {
		return e.CommitGroup.Timestamp
	}
	if e.Item != nil {
		return e.Item.Timestamp
	}
	return time.Time{}
}

// DateGroup buckets entries under a yyyy-mm-dd date key.
type DateGroup struct {
	Date    string      `json:"date"`
	Entries []DateEntry `json:"entries"`
}

// TimelinePayload is the "timeline" payload (spec.md §3): user-scoped,
// date-bucketed entries.
type TimelinePayload struct {
	UserID      string      `json:"user_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Groups      []DateGroup `json:"groups"`
}
