package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/cache"
	"github.com/f0rbit/media-timeline/internal/platform"
)

func TestHandleCronProcessesAccountsAndRebuildsTimelines(t *testing.T) {
	env := newTestEnv(t)
	account, _ := seedAccount(t, env, platform.SocialB, "")
	env.doer.routes["/statuses"] = `[{"id":"s1","content":"hi","url":"u","created_at":"2026-01-01T00:00:00Z","account":{"acct":"bob"}}]`

	summary := env.svc.HandleCron(context.Background())
	if summary.Processed != 1 {
		t.Fatalf("expected 1 account processed, got %+v", summary)
	}
	if summary.TimelinesGenerated != 1 || summary.UpdatedUsers != 1 {
		t.Fatalf("expected 1 timeline generated for 1 user, got %+v", summary)
	}

	got, err := env.svc.Accounts.Get(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("Accounts.Get: %v", err)
	}
	if got.LastFetchedAt == nil {
		t.Fatal("expected the account to have been fetched")
	}
}

func TestHandleCronSkipsInactiveAccounts(t *testing.T) {
	env := newTestEnv(t)
	account, _ := seedAccount(t, env, platform.SocialB, "")
	if err := env.svc.Accounts.SetActive(context.Background(), account.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	summary := env.svc.HandleCron(context.Background())
	if summary.Processed != 0 || summary.UpdatedUsers != 0 {
		t.Fatalf("expected an inactive account's owner to be skipped entirely, got %+v", summary)
	}
}

func TestRefreshOneEnqueuesAJob(t *testing.T) {
	env := newTestEnv(t)
	account, owner := seedAccount(t, env, platform.SocialB, "")

	status, err := env.svc.RefreshOne(context.Background(), account.ID, owner)
	if err != nil {
		t.Fatalf("RefreshOne: %v", err)
	}
	if status != "processing" {
		t.Fatalf("got status %q, want processing", status)
	}

	n, err := env.svc.Queue.QueueLength(context.Background(), cache.JobRefreshAccount)
	if err != nil {
		t.Fatalf("QueueLength: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 queued job, got %d", n)
	}
}

func TestRefreshAllReturnsCompletedWhenUserHasNoAccounts(t *testing.T) {
	env := newTestEnv(t)
	status, err := env.svc.RefreshAll(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if status != "completed" {
		t.Fatalf("got %q, want completed", status)
	}
}

func TestRefreshAllEnqueuesEveryActiveAccountForUser(t *testing.T) {
	env := newTestEnv(t)
	_, owner := seedAccount(t, env, platform.SocialB, "")

	status, err := env.svc.RefreshAll(context.Background(), owner)
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if status != "processing" {
		t.Fatalf("got %q, want processing", status)
	}
}

func TestRunQueueWorkerProcessesEnqueuedRefreshJob(t *testing.T) {
	env := newTestEnv(t)
	account, owner := seedAccount(t, env, platform.SocialB, "")
	env.doer.routes["/statuses"] = `[]`

	if _, err := env.svc.Queue.Enqueue(context.Background(), cache.JobRefreshAccount, account.ID.String(), owner.String()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	done := make(chan struct{})
	go func() {
		env.svc.RunQueueWorker(ctx, cache.JobRefreshAccount)
		close(done)
	}()

	deadline := time.After(time.Second)
	for {
		got, err := env.svc.Accounts.Get(context.Background(), account.ID)
		if err != nil {
			t.Fatalf("Accounts.Get: %v", err)
		}
		if got.LastFetchedAt != nil {
			break
		}
		select {
		case <-deadline:
			cancel()
			<-done
			t.Fatal("timed out waiting for the queue worker to process the job")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
