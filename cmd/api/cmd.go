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

	"github.com/GregMSThompson/ca-portal/internal/bootstrap"
	"github.com/GregMSThompson/ca-portal/internal/client/identity"
	"github.com/GregMSThompson/ca-portal/internal/config"
	"github.com/GregMSThompson/ca-portal/internal/handlers"
	"github.com/GregMSThompson/ca-portal/internal/middleware"
	"github.com/GregMSThompson/ca-portal/internal/response"
	"github.com/GregMSThompson/ca-portal/internal/router"
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

	// adapters
	idAdmin := identity.NewAdmin(bs.Firebase)
	idREST := identity.NewREST(cfg.IdentityBaseURL, cfg.SecureTokenBaseURL, cfg.FirebaseWebAPIKey)

	// stores
	pstore := store.NewProfileStore(bs.Firestore, bs.Cipher)
	dstore := store.NewDocumentStore(bs.Firestore)
	astore := store.NewApplicationStore(bs.Firestore)
	nstore := store.NewNotificationStore(bs.Firestore)
	txstore := store.NewTaxonomyStore(bs.Firestore)

	// services
	nserv := services.NewNotificationService(nstore, pstore, bs.Mailer)
	authserv := services.NewAuthService(idAdmin, idREST, pstore, nstore, bs.Mailer, cfg.PasswordResetURL)
	pserv := services.NewProfileService(pstore)
	txserv := services.NewTaxonomyService(txstore)
	dserv := services.NewDocumentService(dstore, txserv, pstore, bs.Objects, nserv, services.DocumentOptions{
		MaxUploadBytes:    cfg.MaxUploadBytes,
		ImageMaxDimension: cfg.ImageMaxDimension,
		SignedURLTTL:      cfg.SignedURLTTL,
		Location:          loc,
	})
	aserv := services.NewApplicationService(astore, pstore, dserv, nserv, loc)
	adserv := services.NewAdminService(pstore, dstore, astore, nstore, bs.Objects, idAdmin)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.AuthSvc = authserv
	deps.ProfileSvc = pserv
	deps.TaxonomySvc = txserv
	deps.DocumentSvc = dserv
	deps.ApplicationSvc = aserv
	deps.NotificationSvc = nserv
	deps.AdminSvc = adserv
	deps.MaxRawUploadBytes = cfg.MaxRawUploadBytes
	deps.Location = loc

	// router
	r := router.NewRouter(deps, router.Middlewares{
		Auth:      middleware.NewMiddleware(bs.Firebase, pstore, rh),
		Logger:    middleware.NewLoggerMiddleware(bs.Log).LoggerMiddleware,
		RateLimit: middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, cfg.TrustedProxyHops, rh).Handler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	go func() {
		bs.Log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitOnError("server start failed", err, bs.Log)
		}
	}()

	<-ctx.Done()
	bs.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		bs.Log.Error("server forced to shutdown", "error", err)
	}
}
