package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/abnamro/repository-scanner/internal/app"
	"github.com/abnamro/repository-scanner/internal/config"
	"github.com/abnamro/repository-scanner/internal/infra/http"
	"github.com/abnamro/repository-scanner/internal/infra/http/routes"
	"github.com/abnamro/repository-scanner/internal/infra/jobs"
	"github.com/abnamro/repository-scanner/internal/infra/postgres"
	"github.com/abnamro/repository-scanner/internal/infra/redis"
	"github.com/abnamro/repository-scanner/pkg/logger"
	"github.com/abnamro/repository-scanner/pkg/validator"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	redisClient, err := redis.New(&cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)
	log.Info("redis connected")

	repos := NewRepositories(db)
	services := NewServices(repos, log)

	jobClient := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}, log)
	defer closeWithLog(jobClient, "job client", log)

	var scheduler *app.RescanScheduler
	if cfg.Scheduler.Enabled {
		scheduler = app.NewRescanScheduler(repos.Repository, repos.VCS, jobClient, cfg.Scheduler.CronExpr, log)
		if err := scheduler.Start(); err != nil {
			log.Error("failed to start rescan scheduler", "error", err)
			return 1
		}
		log.Info("rescan scheduler started", "cron", cfg.Scheduler.CronExpr)
	}

	v := validator.New()
	handlers := NewHandlers(cfg, services, db, redisClient, v, log)

	server := http.NewServer(cfg, log)
	routes.Register(server.Router(), handlers)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
