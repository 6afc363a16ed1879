// Package platform defines the closed set of external platforms the sync
// engine knows how to talk to, and the per-platform constants that the
// rate limiter and account processor need (spec.md §3, §4.3).
package platform

import (
	"time"

	"golang.org/x/time/rate"
)

// Tag identifies one of the fixed external platforms an Account connects to.
type Tag string

const (
	CodeHost    Tag = "code-host"
	SocialA     Tag = "social-A"
	SocialB     Tag = "social-B"
	Microblog   Tag = "microblog"
	VideoHost   Tag = "video-host"
	TaskTracker Tag = "task-tracker"
)

// All lists every recognized platform tag.
func All() []Tag {
	return []Tag{CodeHost, SocialA, SocialB, Microblog, VideoHost, TaskTracker}
}

// Valid reports whether t is one of the recognized tags.
func Valid(t Tag) bool {
	switch t {
	case CodeHost, SocialA, SocialB, Microblog, VideoHost, TaskTracker:
		return true
	default:
		return false
	}
}

// MultiStore reports whether a platform splits its fetch into meta plus
// one or more entity collections (§4.5 step 4), as opposed to writing a
// single raw payload.
func MultiStore(t Tag) bool {
	switch t {
	case CodeHost, SocialA, Microblog:
		return true
	default:
		return false
	}
}

// MinFetchInterval returns the platform's declared minimum fetch interval
// (§4.3), or zero if the platform has none.
func MinFetchInterval(t Tag) time.Duration {
	switch t {
	case VideoHost:
		// upload feeds change slowly; avoid hammering the channel endpoint.
		return 24 * time.Hour
	case TaskTracker:
		return 6 * time.Hour
	default:
		return 0
	}
}

// PageSize returns the provider's configured page size for a single fetch
// call, bounded by the tightest upstream quota (§4.1).
func PageSize(t Tag) int {
	switch t {
	case Microblog:
		// the microblog's free tier only grants 5 items per call.
		return 5
	case SocialA:
		return 25
	case CodeHost:
		return 50
	default:
		return 20
	}
}

// PacingLimit returns the steady-state request rate and burst size a
// multi-store provider should throttle its own page-by-page upstream calls
// to within a single fetch (distinct from §4.3's per-account circuit
// breaker, which gates whether a fetch happens at all). Values are rough
// fractions of each upstream's published quota, not exact accounting.
func PacingLimit(t Tag) (rate.Limit, int) {
	switch t {
	case CodeHost:
		return rate.Every(time.Hour / 1000), 20
	case SocialA:
		return rate.Every(time.Minute / 60), 10
	case Microblog:
		return rate.Every(15 * time.Minute / 300), 10
	default:
		return rate.Every(time.Minute / 60), 10
	}
}

// SupportsRefresh reports whether the platform's OAuth tokens can be
// refreshed without re-authenticating the user (§4.5 step 5's "platform
// supports it" condition). GitHub's OAuth app tokens don't expire, so
// code-host has no refresh path; the single-store platforms here are
// modeled on app feeds that don't carry a refresh token either.
func SupportsRefresh(t Tag) bool {
	switch t {
	case SocialA, Microblog:
		return true
	default:
		return false
	}
}

// TokenRefreshURL returns the OAuth2 token endpoint used to exchange a
// refresh token for a new access token, or "" if SupportsRefresh is false.
func TokenRefreshURL(t Tag) string {
	switch t {
	case SocialA:
		return "https://www.reddit.com/api/v1/access_token"
	case Microblog:
		return "https://api.twitter.com/2/oauth2/token"
	default:
		return ""
	}
}
