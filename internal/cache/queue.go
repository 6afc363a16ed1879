package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	maxRetries          = 3
	queueKeyPrefix      = "sync:queue:"
	processingKeyPrefix = "sync:processing:"
	dlqKeyPrefix        = "sync:dlq:"
	jobDataKeyPrefix    = "sync:job:"
)

// JobType names the background job kinds the sync engine enqueues.
type JobType string

const (
	JobRefreshAccount JobType = "refresh_account"
	JobRebuildTimeline JobType = "rebuild_timeline"
)

// Job is one unit of background sync work (spec.md §4.5's account
// processing and §4.6's timeline regeneration, dispatched on demand by
// RefreshOne/RefreshAll instead of only on the cron schedule).
type Job struct {
	ID         string          `json:"id"`
	Type       JobType         `json:"type"`
	AccountID  string          `json:"account_id,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	RetryCount int             `json:"retry_count"`
	LastError  string          `json:"last_error,omitempty"`
}

// Queue is the Redis-backed job queue driving the background refresh
// pipeline, adapted from the teacher's WorkerQueueService.
type Queue struct {
	client *redis.Client
}

func NewQueue(c *Cache) *Queue {
	return &Queue{client: c.client}
}

func (q *Queue) Enqueue(ctx context.Context, jobType JobType, accountID, userID string) (string, error) {
	job := Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		AccountID: accountID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	jobKey := jobDataKeyPrefix + job.ID
	if err := q.client.Set(ctx, jobKey, data, 24*time.Hour).Err(); err != nil {
		return "", fmt.Errorf("store job: %w", err)
	}

	queueKey := queueKeyPrefix + string(jobType)
	if err := q.client.RPush(ctx, queueKey, job.ID).Err(); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return job.ID, nil
}

// Dequeue blocks up to timeout for the next job of jobType, atomically
// moving it into the processing list.
func (q *Queue) Dequeue(ctx context.Context, jobType JobType, timeout time.Duration) (*Job, error) {
	queueKey := queueKeyPrefix + string(jobType)
	processingKey := processingKeyPrefix + string(jobType)

	jobID, err := q.client.BRPopLPush(ctx, queueKey, processingKey, timeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue job: %w", err)
	}

	data, err := q.client.Get(ctx, jobDataKeyPrefix+jobID).Result()
	if err == redis.Nil {
		q.client.LRem(ctx, processingKey, 1, jobID)
		return nil, fmt.Errorf("job data expired: %s", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("get job data: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *Queue) MarkComplete(ctx context.Context, jobType JobType, jobID string) error {
	processingKey := processingKeyPrefix + string(jobType)
	if err := q.client.LRem(ctx, processingKey, 1, jobID).Err(); err != nil {
		return fmt.Errorf("remove from processing: %w", err)
	}
	q.client.Del(ctx, jobDataKeyPrefix+jobID)
	return nil
}

// MarkFailed pushes the job straight back onto its queue, with no delay
// between attempts, up to maxRetries times, then moves it to the
// dead-letter queue. Cron's error-swallowing policy
// (spec.md §7) means a permanently failed job is only observable through
// this DLQ and structured logs, never as a propagated error.
func (q *Queue) MarkFailed(ctx context.Context, jobType JobType, jobID, errMsg string) error {
	processingKey := processingKeyPrefix + string(jobType)
	jobKey := jobDataKeyPrefix + jobID

	data, err := q.client.Get(ctx, jobKey).Result()
	if err != nil {
		return fmt.Errorf("get job data: %w", err)
	}
	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}
	job.RetryCount++
	job.LastError = errMsg

	if job.RetryCount <= maxRetries {
		updated, _ := json.Marshal(job)
		q.client.Set(ctx, jobKey, updated, 24*time.Hour)
		q.client.RPush(ctx, queueKeyPrefix+string(jobType), jobID)
	} else {
		updated, _ := json.Marshal(job)
		q.client.RPush(ctx, dlqKeyPrefix+string(jobType), string(updated))
	}
	q.client.LRem(ctx, processingKey, 1, jobID)
	return nil
}

func (q *Queue) QueueLength(ctx context.Context, jobType JobType) (int64, error) {
	return q.client.LLen(ctx, queueKeyPrefix+string(jobType)).Result()
}
