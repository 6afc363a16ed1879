package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/cache"
	"github.com/f0rbit/media-timeline/internal/logging"
	"github.com/f0rbit/media-timeline/internal/model"
)

// accountSyncBudget bounds a single account's end-to-end cycle during a
// cron sweep, which does not inherit a request deadline (spec.md §5:
// "must bound itself by a wall-clock budget per account... implementations
// choose >= 60s").
const accountSyncBudget = 60 * time.Second

// CronSummary is HandleCron's always-present result (spec.md §7: "Cron
// never surfaces an error; it returns a summary").
type CronSummary struct {
	Processed          int `json:"processed"`
	UpdatedUsers       int `json:"updated_users"`
	FailedAccounts     int `json:"failed_accounts"`
	TimelinesGenerated int `json:"timelines_generated"`
}

// HandleCron implements the Sync Scheduler's periodic trigger (C8, spec.md
// §5): group active accounts by owning user, process users sequentially,
// and within a user run its accounts concurrently before regenerating that
// user's timeline once.
func (s *Service) HandleCron(ctx context.Context) CronSummary {
	owners, err := s.Accounts.ListAllActiveWithOwners(ctx)
	if err != nil {
		s.Logger.Error("HandleCron: failed to list active accounts", err, nil)
		return CronSummary{}
	}

	byUser := make(map[uuid.UUID][]model.Account)
	var userOrder []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, o := range owners {
		if !seen[o.UserID] {
			seen[o.UserID] = true
			userOrder = append(userOrder, o.UserID)
		}
		byUser[o.UserID] = append(byUser[o.UserID], o.Account)
	}

	var summary CronSummary
	for _, userID := range userOrder {
		processed, failed := s.processAccountsConcurrently(ctx, byUser[userID])
		summary.Processed += processed
		summary.FailedAccounts += failed

		if err := s.RebuildTimeline(ctx, userID); err != nil {
			s.Logger.Error("HandleCron: failed to rebuild timeline", err, logging.Fields{"user_id": userID.String()})
			continue
		}
		summary.TimelinesGenerated++
		summary.UpdatedUsers++
	}
	return summary
}

// processAccountsConcurrently runs every account end-to-end (decrypt ->
// fetch -> merge -> write -> bookkeep) on its own goroutine, joining
// before returning (spec.md §5's "concurrent task set with a wait-all
// barrier before timeline regeneration").
func (s *Service) processAccountsConcurrently(ctx context.Context, accounts []model.Account) (processed, failed int) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, account := range accounts {
		wg.Add(1)
		go func(a model.Account) {
			defer wg.Done()
			acctCtx, cancel := context.WithTimeout(ctx, accountSyncBudget)
			defer cancel()

			snap, err := s.ProcessAccount(acctCtx, a)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				s.Logger.Error("cron: account processing error", err, logging.Fields{"account_id": a.ID.String()})
				return
			}
			if snap != nil {
				processed++
			}
		}(account)
	}
	wg.Wait()
	return processed, failed
}

// RefreshOne implements the on-demand single-account refresh (spec.md §5):
// the heavy work is enqueued and the caller gets an immediate
// acknowledgment that survives past this call's return.
func (s *Service) RefreshOne(ctx context.Context, accountID, userID uuid.UUID) (string, error) {
	if _, err := s.Queue.Enqueue(ctx, cache.JobRefreshAccount, accountID.String(), userID.String()); err != nil {
		return "", err
	}
	return "processing", nil
}

// RefreshAll implements the on-demand all-accounts refresh. Per spec.md
// §9's open question, "processing" is returned as soon as any account's
// work is enqueued, regardless of eventual per-account outcome.
func (s *Service) RefreshAll(ctx context.Context, userID uuid.UUID) (string, error) {
	accounts, err := s.Accounts.ListActiveForUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(accounts) == 0 {
		return "completed", nil
	}
	enqueued := 0
	for _, a := range accounts {
		if _, err := s.Queue.Enqueue(ctx, cache.JobRefreshAccount, a.ID.String(), userID.String()); err != nil {
			s.Logger.Error("RefreshAll: failed to enqueue account", err, logging.Fields{"account_id": a.ID.String()})
			continue
		}
		enqueued++
	}
	if enqueued == 0 {
		return "", fmt.Errorf("sync: failed to enqueue any account for user %s", userID)
	}
	return "processing", nil
}

// RunQueueWorker drains jobType from the Redis-backed queue until ctx is
// canceled, the background counterpart to RefreshOne/RefreshAll's
// enqueue side. Adapted from the teacher's WorkerQueueService consumer
// loop shape.
func (s *Service) RunQueueWorker(ctx context.Context, jobType cache.JobType) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := s.Queue.Dequeue(ctx, jobType, 5*time.Second)
		if err != nil {
			s.Logger.Error("queue worker: dequeue failed", err, logging.Fields{"job_type": string(jobType)})
			continue
		}
		if job == nil {
			continue
		}

		if err := s.processJob(ctx, job); err != nil {
			s.Logger.Error("queue worker: job failed", err, logging.Fields{"job_id": job.ID})
			if markErr := s.Queue.MarkFailed(ctx, jobType, job.ID, err.Error()); markErr != nil {
				s.Logger.Error("queue worker: failed to record job failure", markErr, logging.Fields{"job_id": job.ID})
			}
			continue
		}
		if err := s.Queue.MarkComplete(ctx, jobType, job.ID); err != nil {
			s.Logger.Error("queue worker: failed to mark job complete", err, logging.Fields{"job_id": job.ID})
		}
	}
}

func (s *Service) processJob(ctx context.Context, job *cache.Job) error {
	switch job.Type {
	case cache.JobRefreshAccount:
		return s.processRefreshAccountJob(ctx, job)
	case cache.JobRebuildTimeline:
		userID, err := uuid.Parse(job.UserID)
		if err != nil {
			return err
		}
		return s.RebuildTimeline(ctx, userID)
	default:
		return fmt.Errorf("sync: unrecognized job type %q", job.Type)
	}
}

func (s *Service) processRefreshAccountJob(ctx context.Context, job *cache.Job) error {
	accountID, err := uuid.Parse(job.AccountID)
	if err != nil {
		return err
	}
	userID, err := uuid.Parse(job.UserID)
	if err != nil {
		return err
	}

	lockKey := cache.AccountLockKey(job.AccountID)
	acquired, err := s.Cache.Lock(ctx, lockKey, accountSyncBudget)
	if err != nil {
		return err
	}
	if !acquired {
		// another worker already has this account's refresh in flight.
		return nil
	}
	defer s.Cache.Unlock(ctx, lockKey)

	account, err := s.Accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	acctCtx, cancel := context.WithTimeout(ctx, accountSyncBudget)
	defer cancel()
	if _, err := s.ProcessAccount(acctCtx, account); err != nil {
		return err
	}
	return s.RebuildTimeline(ctx, userID)
}
