package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/f0rbit/media-timeline/internal/logging"
	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/ratelimit"
	"github.com/f0rbit/media-timeline/internal/store"
)

// RawSnapshot is the compact in-memory descriptor ProcessAccount returns
// (spec.md §4.5 step 7): which store id and version a successful fetch
// wrote, with per-collection totals. HandleCron only checks it for nil to
// count processed accounts; RebuildTimeline does not take it and reloads
// every active account's latest snapshots from the store instead.
type RawSnapshot struct {
	AccountID string
	Platform  platform.Tag
	StoreID   string
	Version   int64
	Summary   map[string]int // collection name -> total count
}

// ProcessAccount implements the Account Processor (C5, spec.md §4.5).
func (s *Service) ProcessAccount(ctx context.Context, account model.Account) (*RawSnapshot, error) {
	log := s.Logger.With(logging.Fields{"account_id": account.ID.String(), "platform": string(account.Platform)})
	now := time.Now().UTC()

	rl, err := s.RateLimits.Get(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if !ratelimit.ShouldFetch(rl, now) {
		log.Debug("skipping account: rate limited or circuit open", nil)
		return nil, nil
	}
	if interval := platform.MinFetchInterval(account.Platform); interval > 0 && account.LastFetchedAt != nil {
		if now.Sub(*account.LastFetchedAt) < interval {
			log.Debug("skipping account: minimum fetch interval not elapsed", nil)
			return nil, nil
		}
	}

	accessToken, err := s.Vault.DecryptAccountToken(account.AccessTokenEncrypted)
	if err != nil {
		log.Error("failed to decrypt access token", err, nil)
		return nil, nil
	}
	var refreshToken string
	if account.RefreshTokenEncrypted != "" {
		refreshToken, err = s.Vault.DecryptAccountToken(account.RefreshTokenEncrypted)
		if err != nil {
			log.Error("failed to decrypt refresh token", err, nil)
			return nil, nil
		}
	}

	oauth := s.oauthClientFor(ctx, account)
	token := provider.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
	}

	snapshot, perr := s.runPipeline(ctx, account, token)
	if perr != nil && perr.Kind == provider.ErrAuthExpired && refreshToken != "" && platform.SupportsRefresh(account.Platform) {
		newAccess, newRefresh, rerr := provider.Refresh(ctx, s.Doer, account.Platform, token)
		if rerr != nil {
			log.Error("token refresh failed", rerr, nil)
			return nil, s.saveFailure(ctx, account, rl, now, rerr)
		}
		if err := s.persistRefreshedTokens(ctx, account, newAccess, newRefresh); err != nil {
			log.Error("failed to persist refreshed tokens", err, nil)
			return nil, nil
		}
		token.AccessToken, token.RefreshToken = newAccess, newRefresh
		snapshot, perr = s.runPipeline(ctx, account, token)
	}
	if perr != nil {
		log.Warn("provider fetch failed", logging.Fields{"error": perr.Error()})
		return nil, s.saveFailure(ctx, account, rl, now, perr)
	}

	next := ratelimit.OnSuccess(rl, ratelimit.QuotaHint{})
	if err := s.RateLimits.Save(ctx, account.ID, next); err != nil {
		log.Error("failed to save rate limit state after success", err, nil)
	}
	if err := s.Accounts.MarkFetched(ctx, account.ID, now); err != nil {
		log.Error("failed to mark account fetched", err, nil)
	}
	s.markCredentialVerified(ctx, account)
	s.Metrics.RecordSuccess(account.Platform)
	return snapshot, nil
}

// saveFailure applies spec.md §4.3's on-failure transition and reports the
// cycle outcome via metrics; ProcessAccount always returns nil alongside
// it, per spec.md §4.5's "record failure ... drop this account for this
// cycle" (nil is the contract's "nothing produced" value, not an error the
// caller need propagate).
func (s *Service) saveFailure(ctx context.Context, account model.Account, rl ratelimit.State, now time.Time, perr *provider.Error) error {
	kind := ratelimit.FailureGeneric
	var retryAfter time.Duration
	if perr.Kind == provider.ErrRateLimited {
		kind = ratelimit.FailureRateLimited
		retryAfter = time.Duration(perr.RetryAfterSecond) * time.Second
	}
	next := ratelimit.OnFailure(rl, now, kind, retryAfter)
	if err := s.RateLimits.Save(ctx, account.ID, next); err != nil {
		s.Logger.Error("failed to save rate limit state after failure", err, logging.Fields{"account_id": account.ID.String()})
	}
	s.Metrics.RecordFailure(account.Platform)
	if next.CircuitOpenUntil != nil && (rl.CircuitOpenUntil == nil || !next.CircuitOpenUntil.Equal(*rl.CircuitOpenUntil)) {
		s.Metrics.RecordCircuitOpened(account.Platform)
	}
	return nil
}

// runPipeline implements spec.md §4.5 step 4: multi-store platforms write
// a meta snapshot plus one merged snapshot per entity collection;
// single-store platforms write one raw payload.
func (s *Service) runPipeline(ctx context.Context, account model.Account, token provider.Token) (*RawSnapshot, *provider.Error) {
	accountID := account.ID.String()
	if platform.MultiStore(account.Platform) {
		return s.runMultiStore(ctx, account, accountID, token)
	}
	return s.runSingleStore(ctx, account, accountID, token)
}

func (s *Service) runMultiStore(ctx context.Context, account model.Account, accountID string, token provider.Token) (*RawSnapshot, *provider.Error) {
	p, ok := s.Providers.MultiStore(account.Platform)
	if !ok {
		return nil, provider.BadRequest(fmt.Sprintf("no multi-store provider registered for %s", account.Platform))
	}

	var result provider.FetchResult
	var perr *provider.Error
	if account.ExternalHandle != "" {
		if uf, ok := UsernameFetcher(p); ok {
			result, perr = uf.FetchForUsername(ctx, token, account.ExternalHandle)
		} else {
			result, perr = p.Fetch(ctx, token)
		}
	} else {
		result, perr = p.Fetch(ctx, token)
	}
	if perr != nil {
		return nil, perr
	}

	summary := make(map[string]int, len(result.Collections))
	var lastStoreID string
	var lastVersion int64
	for _, col := range result.Collections {
		res, err := s.storeCollection(ctx, accountID, string(account.Platform), col)
		if err != nil {
			return nil, provider.NetworkError(err)
		}
		key := col.Name
		if col.Owner != "" && col.Repo != "" {
			key = fmt.Sprintf("%s:%s/%s", col.Name, col.Owner, col.Repo)
		}
		summary[key] = res.Total
		lastStoreID, lastVersion = res.StoreID, res.Version
	}

	metaID, err := s.writeMeta(ctx, account.Platform, accountID, result.Meta)
	if err != nil {
		return nil, provider.NetworkError(err)
	}

	storeID, version := metaID.StoreID, metaID.Version
	if storeID == "" {
		storeID, version = lastStoreID, lastVersion
	}

	return &RawSnapshot{AccountID: accountID, Platform: account.Platform, StoreID: storeID, Version: version, Summary: summary}, nil
}

func (s *Service) writeMeta(ctx context.Context, p platform.Tag, accountID string, meta provider.MetaResult) (store.Snapshot, error) {
	var id string
	switch p {
	case platform.CodeHost:
		id = store.GithubMetaID(accountID)
	case platform.SocialA:
		id = store.RedditID(accountID, "meta")
	case platform.Microblog:
		id = store.TwitterID(accountID, "meta")
	default:
		return store.Snapshot{}, nil
	}
	payload := store.PlatformMeta{Username: meta.Username, Repos: meta.Repos, Subreddits: meta.Subreddits}
	return store.Put(ctx, s.Store, id, payload, store.PutOptions{Tags: tags(accountID, string(p))})
}

func (s *Service) runSingleStore(ctx context.Context, account model.Account, accountID string, token provider.Token) (*RawSnapshot, *provider.Error) {
	p, ok := s.Providers.SingleStore(account.Platform)
	if !ok {
		return nil, provider.BadRequest(fmt.Sprintf("no single-store provider registered for %s", account.Platform))
	}
	result, perr := p.Fetch(ctx, token)
	if perr != nil {
		return nil, perr
	}

	id := store.RawID(account.Platform, accountID)
	snap, err := store.Put(ctx, s.Store, id, result.Payload, store.PutOptions{Tags: tags(accountID, string(account.Platform))})
	if err != nil {
		return nil, provider.NetworkError(err)
	}

	return &RawSnapshot{
		AccountID: accountID,
		Platform:  account.Platform,
		StoreID:   id,
		Version:   snap.Version,
		Summary:   map[string]int{"raw": singleStoreCount(result.Payload)},
	}, nil
}

func singleStoreCount(payload any) int {
	switch p := payload.(type) {
	case store.SocialBPayload:
		return len(p.Posts)
	case store.VideoHostPayload:
		return len(p.Videos)
	case store.TaskTrackerPayload:
		return len(p.Tasks)
	default:
		return 0
	}
}

// oauthClientFor resolves the OAuth client id/secret a fetch or refresh
// call should authenticate with: a verified bring-your-own credential
// (spec.md §4.8) takes priority over the system-wide default.
func (s *Service) oauthClientFor(ctx context.Context, account model.Account) OAuthClient {
	cred, err := s.Credentials.Get(ctx, account.ProfileID, account.Platform)
	if err == nil {
		secret, derr := s.Vault.DecryptClientSecret(cred.ClientSecretEncrypted)
		if derr == nil {
			return OAuthClient{ClientID: cred.ClientID, ClientSecret: secret}
		}
	}
	return s.SystemOAuth[account.Platform]
}

func (s *Service) markCredentialVerified(ctx context.Context, account model.Account) {
	cred, err := s.Credentials.Get(ctx, account.ProfileID, account.Platform)
	if err != nil || cred.IsVerified {
		return
	}
	if err := s.Credentials.MarkVerified(ctx, account.ProfileID, account.Platform); err != nil {
		s.Logger.Error("failed to mark credential verified", err, logging.Fields{"profile_id": account.ProfileID.String()})
	}
}

func (s *Service) persistRefreshedTokens(ctx context.Context, account model.Account, newAccess, newRefresh string) error {
	encAccess, err := s.Vault.EncryptAccountToken(newAccess)
	if err != nil {
		return err
	}
	encRefresh := account.RefreshTokenEncrypted
	if newRefresh != "" {
		encRefresh, err = s.Vault.EncryptAccountToken(newRefresh)
		if err != nil {
			return err
		}
	}
	return s.Accounts.UpdateTokens(ctx, account.ID, encAccess, encRefresh)
}
