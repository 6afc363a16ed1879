// Store id parsing and validation per spec.md §6.3. The grammar is
// bit-exact; Parse rejects anything that doesn't match one of the
// enumerated shapes, as the spec requires ("the Store layer MUST
// validate a store id parses back into its typed discriminant before
// opening it", spec.md §4.2).
package store

import (
	"fmt"
	"strings"

	"github.com/f0rbit/media-timeline/internal/platform"
)

// Kind is the typed discriminant a store id parses into.
type Kind string

const (
	KindRaw       Kind = "raw"       // media/raw/<platform>/<account_id>
	KindTimeline  Kind = "timeline"  // media/timeline/<user_id>
	KindGithub    Kind = "github"    // media/github/<account_id>/{meta|commits/<o>/<r>|prs/<o>/<r>}
	KindReddit    Kind = "reddit"    // media/reddit/<account_id>/{meta|posts|comments}
	KindTwitter   Kind = "twitter"   // media/twitter/<account_id>/{meta|tweets}
)

// Ref is the parsed, typed form of a store id string.
type Ref struct {
	Raw        string
	Kind       Kind
	Platform   platform.Tag // set for KindRaw
	AccountID  string       // set for everything except KindTimeline
	UserID     string       // set for KindTimeline
	Collection string       // "meta", "posts", "comments", "tweets", "commits", "prs"
	Owner      string       // github commits/prs only
	Repo       string       // github commits/prs only
}

// String renders the canonical store id for a Ref.
func (r Ref) String() string { return r.Raw }

// Parse validates id against the §6.3 grammar and returns its typed
// discriminant, or an error if id does not match any recognized shape.
func Parse(id string) (Ref, error) {
	parts := strings.Split(id, "/")
	if len(parts) < 3 || parts[0] != "media" {
		return Ref{}, fmt.Errorf("store: invalid store id %q", id)
	}

	switch parts[1] {
	case "raw":
		// media/raw/<platform>/<account_id>
		if len(parts) != 4 {
			return Ref{}, fmt.Errorf("store: invalid raw store id %q", id)
		}
		tag := platform.Tag(parts[2])
		if !platform.Valid(tag) {
			return Ref{}, fmt.Errorf("store: unknown platform %q in %q", parts[2], id)
		}
		return Ref{Raw: id, Kind: KindRaw, Platform: tag, AccountID: parts[3]}, nil

	case "timeline":
		// media/timeline/<user_id>
		if len(parts) != 3 {
			return Ref{}, fmt.Errorf("store: invalid timeline store id %q", id)
		}
		return Ref{Raw: id, Kind: KindTimeline, UserID: parts[2]}, nil

	case "github":
		return parseGithub(id, parts)

	case "reddit":
		// media/reddit/<account_id>/{meta|posts|comments}
		if len(parts) != 4 {
			return Ref{}, fmt.Errorf("store: invalid reddit store id %q", id)
		}
		if parts[3] != "meta" && parts[3] != "posts" && parts[3] != "comments" {
			return Ref{}, fmt.Errorf("store: invalid reddit collection %q in %q", parts[3], id)
		}
		return Ref{Raw: id, Kind: KindReddit, AccountID: parts[2], Collection: parts[3]}, nil

	case "twitter":
		// media/twitter/<account_id>/{meta|tweets}
		if len(parts) != 4 {
			return Ref{}, fmt.Errorf("store: invalid twitter store id %q", id)
		}
		if parts[3] != "meta" && parts[3] != "tweets" {
			return Ref{}, fmt.Errorf("store: invalid twitter collection %q in %q", parts[3], id)
		}
		return Ref{Raw: id, Kind: KindTwitter, AccountID: parts[2], Collection: parts[3]}, nil

	default:
		return Ref{}, fmt.Errorf("store: unrecognized store id %q", id)
	}
}

func parseGithub(id string, parts []string) (Ref, error) {
	// media/github/<account_id>/meta
	// media/github/<account_id>/commits/<owner>/<repo>
	// media/github/<account_id>/prs/<owner>/<repo>
	if len(parts) == 4 && parts[3] == "meta" {
		return Ref{Raw: id, Kind: KindGithub, AccountID: parts[2], Collection: "meta"}, nil
	}
	if len(parts) == 6 && (parts[3] == "commits" || parts[3] == "prs") {
		return Ref{
			Raw: id, Kind: KindGithub, AccountID: parts[2],
			Collection: parts[3], Owner: parts[4], Repo: parts[5],
		}, nil
	}
	return Ref{}, fmt.Errorf("store: invalid github store id %q", id)
}

// RawID builds a media/raw/<platform>/<account_id> store id.
func RawID(p platform.Tag, accountID string) string {
	return fmt.Sprintf("media/raw/%s/%s", p, accountID)
}

// TimelineID builds a media/timeline/<user_id> store id.
func TimelineID(userID string) string {
	return fmt.Sprintf("media/timeline/%s", userID)
}

// GithubMetaID builds a media/github/<account_id>/meta store id.
func GithubMetaID(accountID string) string {
	return fmt.Sprintf("media/github/%s/meta", accountID)
}

// GithubCommitsID builds a media/github/<account_id>/commits/<owner>/<repo> store id.
func GithubCommitsID(accountID, owner, repo string) string {
	return fmt.Sprintf("media/github/%s/commits/%s/%s", accountID, owner, repo)
}

// GithubPRsID builds a media/github/<account_id>/prs/<owner>/<repo> store id.
func GithubPRsID(accountID, owner, repo string) string {
	return fmt.Sprintf("media/github/%s/prs/%s/%s", accountID, owner, repo)
}

// RedditID builds a media/reddit/<account_id>/<collection> store id.
func RedditID(accountID, collection string) string {
	return fmt.Sprintf("media/reddit/%s/%s", accountID, collection)
}

// TwitterID builds a media/twitter/<account_id>/<collection> store id.
func TwitterID(accountID, collection string) string {
	return fmt.Sprintf("media/twitter/%s/%s", accountID, collection)
}
