// Command server runs the metro site API.
//
//	@title                      Metro site API
//	@version                    1.0
//	@description                Content, engagement, OTP login and request handling for the metro website.
//	@BasePath                   /api/v1
//	@securityDefinitions.apikey BearerAuth
//	@in                         header
//	@name                       Authorization
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/metrosite-backend/internal/auth"
	"github.com/tbourn/metrosite-backend/internal/authz"
	"github.com/tbourn/metrosite-backend/internal/config"
	httpapi "github.com/tbourn/metrosite-backend/internal/http"
	"github.com/tbourn/metrosite-backend/internal/http/middleware"
	"github.com/tbourn/metrosite-backend/internal/observability"
	"github.com/tbourn/metrosite-backend/internal/otpstore"
	"github.com/tbourn/metrosite-backend/internal/repo"
	"github.com/tbourn/metrosite-backend/internal/services"
	"github.com/tbourn/metrosite-backend/internal/sms"
	"github.com/tbourn/metrosite-backend/internal/sysutil"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version string

const idempotencyPurgeEvery = time.Hour

func main() {
	// A missing .env is fine: real deployments use the process environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel")
	}

	db, err := repo.Open(cfg.DB, cfg.OTEL.Enabled)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	store, err := otpstore.Open(cfg.BadgerPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open verification store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close verification store")
		}
	}()

	sender, err := sms.FromConfig(cfg.SMS)
	if err != nil {
		log.Fatal().Err(err).Msg("sms provider")
	}
	tokens, err := auth.NewIssuer(cfg.JWT)
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}
	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("validators")
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := services.NewStaffService(db, tokens).EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("bootstrap admin")
		}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		OTPStore: store,
		SMS:      sender,
		Tokens:   tokens,
		Authz:    authz.MustNew(),
	}, cfg)

	go purgeIdempotency(ctx, db)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Str("sms", cfg.SMS.Provider).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// purgeIdempotency drops expired Idempotency-Key records until ctx ends.
func purgeIdempotency(ctx context.Context, db *gorm.DB) {
	t := time.NewTicker(idempotencyPurgeEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.PurgeExpiredIdempotency(ctx, db, now.UTC())
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency keys")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("purged idempotency keys")
			}
		}
	}
}
