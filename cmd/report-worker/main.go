package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-tools/online-students-report/internal/canvas"
	"github.com/campus-tools/online-students-report/internal/handler"
	"github.com/campus-tools/online-students-report/internal/repository"
	"github.com/campus-tools/online-students-report/internal/scheduler"
	"github.com/campus-tools/online-students-report/internal/service"
	"github.com/campus-tools/online-students-report/pkg/cache"
	"github.com/campus-tools/online-students-report/pkg/config"
	"github.com/campus-tools/online-students-report/pkg/database"
	"github.com/campus-tools/online-students-report/pkg/export"
	"github.com/campus-tools/online-students-report/pkg/jobs"
	"github.com/campus-tools/online-students-report/pkg/logger"
	"github.com/campus-tools/online-students-report/pkg/mailer"
	corsmiddleware "github.com/campus-tools/online-students-report/pkg/middleware/cors"
	reqidmiddleware "github.com/campus-tools/online-students-report/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	warehouse, err := database.NewWarehouse(cfg.Warehouse)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect warehouse", "error", err)
	}
	defer warehouse.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	metrics := service.NewMetricsService()
	canvasClient := canvas.NewClient(cfg.Canvas, logr)
	smtpMailer := mailer.NewSMTP(cfg.SMTP, logr)

	candidateRepo := repository.NewCandidateRepository(warehouse)
	termRepo := repository.NewTermRepository(warehouse)
	emailCache := repository.NewEmailCacheRepository(redisClient, cfg.Report.CacheTTLMinDays, cfg.Report.CacheTTLMaxDays)

	resolver := service.NewResolverService(emailCache, canvasClient, metrics, logr, cfg.Report.ResolverWorkers)
	composer := service.NewComposer(export.NewCSVExporter(), nil)
	reportSvc := service.NewReportService(
		candidateRepo,
		termRepo,
		resolver,
		composer,
		smtpMailer,
		canvasClient,
		metrics,
		logr,
		service.ReportServiceConfig{
			FromEmail:  cfg.SMTP.From,
			Subject:    cfg.SMTP.Subject,
			JobTimeout: cfg.Report.JobTimeout,
		},
	)

	queue := jobs.NewQueue("online-students", reportSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Report.QueueWorkers,
		BufferSize: cfg.Report.QueueBuffer,
		MaxRetries: cfg.Report.QueueRetries,
		Logger:     logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)
	defer queue.Stop()

	sched, err := scheduler.New(cfg.Schedules, queue, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to register report schedules", "error", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	reportHandler := handler.NewReportHandler(queue, logr)
	api := r.Group(cfg.APIPrefix)
	api.POST("/reports", reportHandler.Generate)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown", "error", err)
	}
}
