package cache

import (
	"context"
	"testing"
	"time"
)

func newTestQueue(t *testing.T) *Queue {
	return NewQueue(newTestCache(t))
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, JobRefreshAccount, "acc-1", "user-1")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	job, err := q.Dequeue(ctx, JobRefreshAccount, time.Second)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if job == nil || job.ID != id || job.AccountID != "acc-1" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestDequeueTimesOutOnEmptyQueue(t *testing.T) {
	q := newTestQueue(t)
	job, err := q.Dequeue(context.Background(), JobRefreshAccount, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job on timeout, got %+v", job)
	}
}

func TestMarkCompleteClearsJobData(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	id, _ := q.Enqueue(ctx, JobRebuildTimeline, "", "user-1")
	job, _ := q.Dequeue(ctx, JobRebuildTimeline, time.Second)

	if err := q.MarkComplete(ctx, JobRebuildTimeline, job.ID); err != nil {
		t.Fatalf("MarkComplete: %v", err)
	}

	n, err := q.QueueLength(ctx, JobRebuildTimeline)
	if err != nil {
		t.Fatalf("QueueLength: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty queue after completion, got length %d", n)
	}
	_ = id
}

func TestMarkFailedRequeuesUntilRetryLimitThenDeadLetters(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	q.Enqueue(ctx, JobRefreshAccount, "acc-1", "")
	job, _ := q.Dequeue(ctx, JobRefreshAccount, time.Second)

	for i := 0; i < maxRetries; i++ {
		if err := q.MarkFailed(ctx, JobRefreshAccount, job.ID, "boom"); err != nil {
			t.Fatalf("MarkFailed: %v", err)
		}
		requeued, err := q.Dequeue(ctx, JobRefreshAccount, time.Second)
		if err != nil || requeued == nil {
			t.Fatalf("expected job to be requeued on retry %d: %v %v", i, requeued, err)
		}
		job = requeued
	}

	// one more failure exceeds maxRetries and should dead-letter instead
	// of requeuing.
	if err := q.MarkFailed(ctx, JobRefreshAccount, job.ID, "final failure"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	n, err := q.QueueLength(ctx, JobRefreshAccount)
	if err != nil {
		t.Fatalf("QueueLength: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected the job not to be requeued past the retry limit, queue length = %d", n)
	}
}
