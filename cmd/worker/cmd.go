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

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/ca-portal/internal/bootstrap"
	"github.com/GregMSThompson/ca-portal/internal/config"
	"github.com/GregMSThompson/ca-portal/internal/handlers"
	"github.com/GregMSThompson/ca-portal/internal/jobs"
	"github.com/GregMSThompson/ca-portal/internal/response"
	"github.com/GregMSThompson/ca-portal/internal/services"
	"github.com/GregMSThompson/ca-portal/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// bootstrap
	cfg, err := config.New()
	exitOnError("config failed", err, slog.Default())
	bs, err := bootstrap.Run(ctx, cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	loc := cfg.Location()

	// stores
	pstore := store.NewProfileStore(bs.Firestore, bs.Cipher)
	astore := store.NewApplicationStore(bs.Firestore)
	nstore := store.NewNotificationStore(bs.Firestore)

	// services
	nserv := services.NewNotificationService(nstore, pstore, bs.Mailer)
	rserv := services.NewReminderService(pstore, astore, nserv, loc)

	// scheduler
	sched, err := jobs.New(bs.Log, loc, rserv, jobs.Schedules{
		ProfileReminder: cfg.ProfileReminderSchedule,
		FilingReminder:  cfg.FilingReminderSchedule,
	})
	exitOnError("scheduler setup failed", err, bs.Log)
	sched.Start()
	bs.Log.Info("worker started", "timezone", loc.String())

	// health endpoint for the container platform
	system := handlers.NewSystemHandlers(&handlers.Deps{
		Log:             bs.Log,
		ResponseHandler: response.New(bs.Log),
		Location:        loc,
	})
	r := chi.NewRouter()
	r.Get("/healthz", system.Healthz)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			bs.Log.Error("health server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = srv.Shutdown(stopCtx)
	sched.Stop(stopCtx)
	bs.Log.Info("worker stopped")
}
