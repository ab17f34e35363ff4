package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/abnamro/repository-scanner/pkg/logger"
)

// ScanProcessor executes one repository scan end to end. The scanner worker
// provides the implementation.
type ScanProcessor interface {
	ProcessScan(ctx context.Context, payload ScanRepositoryPayload) error
}

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
}

// Worker consumes queued scan jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a new background job worker.
func NewWorker(cfg WorkerConfig, processor ScanProcessor, log *logger.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				QueueScans: 10,
				"default":  1,
			},
		},
	)

	mux := asynq.NewServeMux()
	handler := &scanTaskHandler{processor: processor, logger: log.With("component", "scan_task_handler")}
	mux.HandleFunc(TypeScanRepository, handler.HandleScanRepository)

	return &Worker{
		server: server,
		mux:    mux,
		logger: log.With("component", "job_worker"),
	}
}

// Start starts the worker.
func (w *Worker) Start() error {
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
}

type scanTaskHandler struct {
	processor ScanProcessor
	logger    *logger.Logger
}

// HandleScanRepository unmarshals a scan task and runs the processor.
func (h *scanTaskHandler) HandleScanRepository(ctx context.Context, t *asynq.Task) error {
	var payload ScanRepositoryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal scan payload: %w", err)
	}

	h.logger.Info("processing scan task",
		"task_id", payload.TaskID,
		"repository", payload.RepositoryName,
	)

	if err := h.processor.ProcessScan(ctx, payload); err != nil {
		h.logger.Error("scan task failed",
			"task_id", payload.TaskID,
			"repository", payload.RepositoryName,
			"error", err,
		)
		return err
	}

	return nil
}
