package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ejohntemperatura/Thesis-sub000/internal/config"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/leave"
	"github.com/ejohntemperatura/Thesis-sub000/internal/domain/notification"
	appHTTP "github.com/ejohntemperatura/Thesis-sub000/internal/handler/http"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/cron"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/database"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/email"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/i18n"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/jwt"
	"github.com/ejohntemperatura/Thesis-sub000/internal/pkg/sse"
	"github.com/ejohntemperatura/Thesis-sub000/internal/repository/memory"
	"github.com/ejohntemperatura/Thesis-sub000/internal/repository/postgresql"
	leaveService "github.com/ejohntemperatura/Thesis-sub000/internal/service/leave"
	notificationService "github.com/ejohntemperatura/Thesis-sub000/internal/service/notification"
)

const version = "v1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := i18n.Init(cfg.App.DefaultLocale); err != nil {
		return err
	}

	accessTTL, err := time.ParseDuration(cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, accessTTL)

	var (
		repos            leaveService.Repositories
		notificationRepo notification.Repository
	)
	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		for _, emp := range memory.SeedDemo(store) {
			token, _, err := JWTService.GenerateAccessToken(*emp.UserID, emp.ID, emp.Role)
			if err != nil {
				return err
			}
			slog.Info("demo employee", "name", emp.FullName, "role", emp.Role, "employee_id", emp.ID, "token", token)
		}
		repos = leaveService.Repositories{
			Employees: memory.NewEmployeeRepository(store),
			Credits:   memory.NewCreditRepository(store),
			Requests:  memory.NewLeaveRequestRepository(store),
			Accruals:  memory.NewAccrualRepository(store),
			Markers:   memory.NewSubmissionMarkerRepository(store),
			Tx:        memory.NewTxManager(store),
		}
		notificationRepo = memory.NewNotificationRepository(store)

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.PoolOptions())
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		if cfg.Database.MigrateOnStart {
			if _, err := db.Migrate(ctx); err != nil {
				return err
			}
		}

		repos = leaveService.Repositories{
			Employees: postgresql.NewEmployeeRepository(db),
			Credits:   postgresql.NewCreditRepository(db),
			Requests:  postgresql.NewLeaveRequestRepository(db),
			Accruals:  postgresql.NewAccrualRepository(db),
			Markers:   postgresql.NewSubmissionMarkerRepository(db),
			Tx:        postgresql.NewTxManager(db),
		}
		notificationRepo = postgresql.NewNotificationRepository(db)
	}

	mailer, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return err
	}

	hub := sse.NewHub(sse.Config{MaxPerUser: cfg.Notification.StreamMaxPerUser})
	notifications := notificationService.NewNotificationService(notificationRepo, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	})
	defer notifications.Stop()

	policy := leave.DefaultPolicy()
	dispatcher := notificationService.NewLeaveEventDispatcher(notifications, repos.Employees, policy, mailer, cfg.App.PublicURL)
	defer dispatcher.Wait()

	leaves := leaveService.NewLeaveService(policy, repos, JWTService, dispatcher, leaveService.Config{
		SubmissionWindow: cfg.Leave.SubmissionWindow,
		NegotiationTTL:   cfg.Leave.NegotiationTTL,
		Location:         cfg.Leave.Location(),
	})

	scheduler := cron.NewScheduler(slog.Default())
	cron.NewLeaveJobs(leaves, repos.Markers, cfg.Leave.AccrualInterval, cfg.Leave.Location()).RegisterJobs(scheduler)
	cron.NewNotificationJobs(notificationRepo, cfg.Notification.Retention).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Env:         cfg.App.Env,
		Version:     version,
		CORSOrigins: cfg.App.CORSOrigins,
		LogLevel:    cfg.SlogLevel(),
	}, JWTService, appHTTP.NewLeaveHandler(leaves, cfg.Leave.Location()), appHTTP.NewNotificationHandler(notifications, JWTService))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage.Driver, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
