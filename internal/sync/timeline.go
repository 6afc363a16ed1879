package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/logging"
	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/store"
	"github.com/f0rbit/media-timeline/internal/timeline"
)

// RebuildTimeline implements the Timeline Assembler's orchestration
// (CombineUserTimeline, spec.md §4.6): for every active account of userID,
// load the latest per-platform collections directly from the Versioned
// Store (not just the accounts touched this cycle — a platform skipped by
// this sync cycle still contributes its last-known data), normalize,
// dedup/group/bucket via internal/timeline, and persist the result with
// every contributing snapshot recorded as a "source" parent.
//
// Storage read failures are logged and that account's contribution is
// silently treated as empty (spec.md §7's Assembler error policy) so one
// bad account never blocks the rest of the user's timeline.
func (s *Service) RebuildTimeline(ctx context.Context, userID uuid.UUID) error {
	accounts, err := s.Accounts.ListActiveForUser(ctx, userID)
	if err != nil {
		return err
	}

	groups, parents := s.loadGroups(ctx, accounts)

	payload := store.TimelinePayload{
		UserID:      userID.String(),
		GeneratedAt: time.Now().UTC(),
		Groups:      groups,
	}
	_, err = store.Put(ctx, s.Store, store.TimelineID(userID.String()), payload, store.PutOptions{Parents: parents})
	if err != nil {
		return err
	}
	s.Metrics.RecordTimelineGenerated()
	return nil
}

// ProfileTimeline implements the Profile Filter's read-time projection
// (spec.md §4.7 steps 1-2): built from only the profile's own accounts,
// not the full per-user aggregate RebuildTimeline persists, since a
// profile is a named subset view over its owner's connections.
func (s *Service) ProfileTimeline(ctx context.Context, profileID uuid.UUID) ([]store.DateGroup, error) {
	accounts, err := s.Accounts.ListForProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	active := make([]model.Account, 0, len(accounts))
	for _, a := range accounts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	groups, _ := s.loadGroups(ctx, active)
	return groups, nil
}

// loadGroups loads and assembles every account's latest per-platform
// collections into date-bucketed groups, alongside the source snapshot
// parents contributing to them.
func (s *Service) loadGroups(ctx context.Context, accounts []model.Account) ([]store.DateGroup, []store.ParentRef) {
	var items timeline.PlatformItems
	var parents []store.ParentRef

	for _, account := range accounts {
		accountID := account.ID.String()
		switch account.Platform {
		case platform.CodeHost:
			s.loadCodeHost(ctx, accountID, &items, &parents)
		case platform.SocialA:
			s.loadSocialA(ctx, accountID, &items, &parents)
		case platform.Microblog:
			s.loadMicroblog(ctx, accountID, &items, &parents)
		case platform.SocialB:
			s.loadSingleStore(ctx, account, &items, &parents)
		case platform.VideoHost:
			s.loadSingleStore(ctx, account, &items, &parents)
		case platform.TaskTracker:
			s.loadSingleStore(ctx, account, &items, &parents)
		}
	}

	return timeline.Assemble(items), parents
}

func (s *Service) addParent(parents *[]store.ParentRef, storeID string, version int64) {
	*parents = append(*parents, store.ParentRef{StoreID: storeID, Version: version, Role: store.RoleSource})
}

func (s *Service) loadCodeHost(ctx context.Context, accountID string, items *timeline.PlatformItems, parents *[]store.ParentRef) {
	meta, metaSnap, err := store.GetLatest[store.PlatformMeta](ctx, s.Store, store.GithubMetaID(accountID))
	if err != nil {
		if !isNotFound(err) {
			s.Logger.Warn("failed to read code-host meta", logging.Fields{"account_id": accountID, "error": err.Error()})
		}
		return
	}
	s.addParent(parents, store.GithubMetaID(accountID), metaSnap.Version)

	for _, repo := range meta.Repos {
		owner, name := splitOwnerRepo(repo)
		if commits, snap, err := store.GetLatest[store.GithubCommitsPayload](ctx, s.Store, store.GithubCommitsID(accountID, owner, name)); err == nil {
			items.Commits = append(items.Commits, timeline.NormalizeCommits(accountID, commits)...)
			s.addParent(parents, store.GithubCommitsID(accountID, owner, name), snap.Version)
		} else if !isNotFound(err) {
			s.Logger.Warn("failed to read code-host commits", logging.Fields{"account_id": accountID, "repo": repo, "error": err.Error()})
		}
		if prs, snap, err := store.GetLatest[store.GithubPRsPayload](ctx, s.Store, store.GithubPRsID(accountID, owner, name)); err == nil {
			items.PRs = append(items.PRs, timeline.NormalizePRs(accountID, prs)...)
			s.addParent(parents, store.GithubPRsID(accountID, owner, name), snap.Version)
		} else if !isNotFound(err) {
			s.Logger.Warn("failed to read code-host prs", logging.Fields{"account_id": accountID, "repo": repo, "error": err.Error()})
		}
	}
}

func (s *Service) loadSocialA(ctx context.Context, accountID string, items *timeline.PlatformItems, parents *[]store.ParentRef) {
	if posts, snap, err := store.GetLatest[store.RedditPostsPayload](ctx, s.Store, store.RedditID(accountID, "posts")); err == nil {
		items.Other = append(items.Other, timeline.NormalizePosts(accountID, posts)...)
		s.addParent(parents, store.RedditID(accountID, "posts"), snap.Version)
	} else if !isNotFound(err) {
		s.Logger.Warn("failed to read social-A posts", logging.Fields{"account_id": accountID, "error": err.Error()})
	}
	if comments, snap, err := store.GetLatest[store.RedditCommentsPayload](ctx, s.Store, store.RedditID(accountID, "comments")); err == nil {
		items.Other = append(items.Other, timeline.NormalizeComments(accountID, comments)...)
		s.addParent(parents, store.RedditID(accountID, "comments"), snap.Version)
	} else if !isNotFound(err) {
		s.Logger.Warn("failed to read social-A comments", logging.Fields{"account_id": accountID, "error": err.Error()})
	}
}

func (s *Service) loadMicroblog(ctx context.Context, accountID string, items *timeline.PlatformItems, parents *[]store.ParentRef) {
	tweets, snap, err := store.GetLatest[store.TweetsPayload](ctx, s.Store, store.TwitterID(accountID, "tweets"))
	if err != nil {
		if !isNotFound(err) {
			s.Logger.Warn("failed to read microblog tweets", logging.Fields{"account_id": accountID, "error": err.Error()})
		}
		return
	}
	items.Other = append(items.Other, timeline.NormalizeTweets(accountID, tweets)...)
	s.addParent(parents, store.TwitterID(accountID, "tweets"), snap.Version)
}

func (s *Service) loadSingleStore(ctx context.Context, account model.Account, items *timeline.PlatformItems, parents *[]store.ParentRef) {
	accountID := account.ID.String()
	id := store.RawID(account.Platform, accountID)
	snap, err := s.Store.GetLatest(ctx, id)
	if err != nil {
		if !isNotFound(err) {
			s.Logger.Warn("failed to read single-store raw payload", logging.Fields{"account_id": accountID, "platform": string(account.Platform), "error": err.Error()})
		}
		return
	}
	switch account.Platform {
	case platform.SocialB:
		var payload store.SocialBPayload
		if decodeErr := snap.DecodePayload(&payload); decodeErr == nil {
			items.Other = append(items.Other, timeline.NormalizeSocialB(accountID, payload)...)
		}
	case platform.VideoHost:
		var payload store.VideoHostPayload
		if decodeErr := snap.DecodePayload(&payload); decodeErr == nil {
			items.Other = append(items.Other, timeline.NormalizeVideos(accountID, payload)...)
		}
	case platform.TaskTracker:
		var payload store.TaskTrackerPayload
		if decodeErr := snap.DecodePayload(&payload); decodeErr == nil {
			items.Other = append(items.Other, timeline.NormalizeTasks(accountID, payload)...)
		}
	}
	s.addParent(parents, id, snap.Version)
}

func splitOwnerRepo(repo string) (owner, name string) {
	for i := 0; i < len(repo); i++ {
		if repo[i] == '/' {
			return repo[:i], repo[i+1:]
		}
	}
	return "", repo
}
