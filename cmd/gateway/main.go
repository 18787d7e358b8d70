package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-outcomes/internal/api/http"
	auth "github.com/mind-engage/mindengage-outcomes/internal/auth/middleware"
	"github.com/mind-engage/mindengage-outcomes/internal/cache"
	"github.com/mind-engage/mindengage-outcomes/internal/config"
	"github.com/mind-engage/mindengage-outcomes/internal/db"
	"github.com/mind-engage/mindengage-outcomes/internal/logger"
	"github.com/mind-engage/mindengage-outcomes/internal/rbac"
	"github.com/mind-engage/mindengage-outcomes/internal/report"
	"github.com/mind-engage/mindengage-outcomes/internal/storage"
	"github.com/mind-engage/mindengage-outcomes/internal/store"
	syncx "github.com/mind-engage/mindengage-outcomes/internal/sync"
)

func main() {
	cfg := config.FromEnv()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("mode", string(cfg.Mode)).
		Str("db", cfg.DBDriver).
		Msg("starting outcomes gateway")

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.ArchiveBasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("blob store")
	}

	deps := api.Deps{
		Store: store.NewSQLStore(dbh),
		Builder: report.NewBuilder(
			report.WithLogger(logger.Component(log, "report")),
			report.WithWorkers(cfg.ReportWorkers),
		),
		Archive: storage.NewReportArchive(bs),
		Events:  syncx.NewEventRepo(dbh),
		Log:     logger.Component(log, "api"),
	}

	// Redis is optional; without it every fetch reads the archive.
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("report cache disabled")
		} else {
			defer rdb.Close()
			deps.Cache = cache.NewReportCache(rdb, cfg.ReportCacheTTL)
		}
	}

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, api.RequestLogger(logger.Component(log, "http")), middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, auth.Login{
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
		DevLogins:     cfg.DevLogins(),
	}, logger.Component(log, "auth")))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Route("/courses/{courseID}", func(cr chi.Router) {
			cr.With(rbac.Require(rbac.PermCourseImport)).Put("/snapshot", api.PutSnapshotHandler(deps))
			cr.With(rbac.Require(rbac.PermCourseView)).Get("/snapshot", api.GetSnapshotHandler(deps))

			cr.With(rbac.Require(rbac.PermOutcomeEdit)).Put("/outcomes", api.PutOutcomesHandler(deps))
			cr.With(rbac.Require(rbac.PermOutcomeView)).Get("/outcomes", api.GetOutcomesHandler(deps))
			cr.With(rbac.RequireAny(rbac.PermOutcomeEdit, rbac.PermReportRun)).
				Get("/outcomes/check", api.CheckOutcomesHandler(deps))

			cr.With(rbac.Require(rbac.PermReportRun)).Post("/reports", api.RunReportHandler(deps))
			cr.With(rbac.Require(rbac.PermReportView)).Get("/reports", api.ListReportsHandler(deps))
			cr.With(rbac.Require(rbac.PermReportView)).Get("/reports/latest", api.LatestReportHandler(deps))
			cr.With(rbac.Require(rbac.PermReportView)).Get("/reports/{runID}", api.GetReportHandler(deps))
		})

		pr.With(rbac.Require(rbac.PermEventsRead)).Get("/events", api.ListEventsHandler(deps))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
