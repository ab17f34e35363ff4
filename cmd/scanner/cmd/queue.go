package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abnamro/repository-scanner/internal/infra/jobs"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Consume scan tasks from the queue until interrupted",
	RunE: func(_ *cobra.Command, _ []string) error {
		log := newLogger()

		processor, cfg, err := buildProcessor(log)
		if err != nil {
			return err
		}

		worker := jobs.NewWorker(jobs.WorkerConfig{
			RedisAddr:     cfg.Redis.Addr(),
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			Concurrency:   cfg.Scanner.QueueConcurrency,
		}, processor, log)

		if err := worker.Start(); err != nil {
			return err
		}

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		worker.Stop()
		return nil
	},
}
