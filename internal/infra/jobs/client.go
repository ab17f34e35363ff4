package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/abnamro/repository-scanner/pkg/logger"
)

// Client manages enqueueing scan jobs using Asynq.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	return &Client{
		client: asynq.NewClient(redisOpt),
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueRepositoryScan enqueues a repository scan job.
func (c *Client) EnqueueRepositoryScan(ctx context.Context, payload ScanRepositoryPayload) error {
	task, err := NewScanRepositoryTask(payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue repository scan",
			"repository", payload.RepositoryName,
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("repository scan queued",
		"task_id", info.ID,
		"repository", payload.RepositoryName,
		"queue", info.Queue,
	)
	return nil
}
