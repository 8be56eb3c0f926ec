package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/quizlink/quizlink-bridge/internal/activity"
	api "github.com/quizlink/quizlink-bridge/internal/api/http"
	"github.com/quizlink/quizlink-bridge/internal/config"
	"github.com/quizlink/quizlink-bridge/internal/db"
	"github.com/quizlink/quizlink-bridge/internal/events"
	"github.com/quizlink/quizlink-bridge/internal/grade"
	"github.com/quizlink/quizlink-bridge/internal/relay"
	"github.com/quizlink/quizlink-bridge/internal/remote"
	"github.com/quizlink/quizlink-bridge/internal/session"
	"github.com/quizlink/quizlink-bridge/internal/token"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "bridged").Logger()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	store := activity.NewSQLStore(dbh, cfg.DBDriver)
	grades := grade.NewSQLStore(dbh, cfg.DBDriver)
	sessions := session.NewSQLStore(dbh)
	cookies := session.NewCookies(cfg.SessionSecret)

	// --- Relays ---
	signer := token.NewSigner(cfg.SecretAccessKey)
	opts := relay.Options{
		AccessKeyID:       cfg.AccessKeyID,
		BaseURL:           cfg.BaseURL,
		PublicURL:         cfg.PublicURL,
		LoginURL:          cfg.LoginURL,
		ShowConsentScreen: cfg.ShowConsentScreen,
		Version:           config.Version,
		Protocol:          token.ProtocolV3,
	}
	authRelay := relay.NewAuthRelay(opts, signer, sessions, store, logger)
	reportRelay := relay.NewReportRelay(opts, signer, store, grades, logger)
	renameRelay := relay.NewRenameRelay(opts, signer, store, grades, logger)
	launcher := relay.NewLauncher(opts, signer, sessions, store, logger)

	client := remote.NewClient(cfg.BaseURL, cfg.AccessKeyID, config.Version, signer, logger)
	lifecycle := events.NewHandler(store, client, authRelay, cfg.PublicURL, logger)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Callback surface used by the quiz service and visitors' browsers.
	r.Get("/auth", api.AuthHandler(authRelay, cookies))
	r.Get("/consent", api.ConsentHandler(authRelay, cookies))
	r.Get("/report", api.ReportHandler(reportRelay))
	r.Post("/report", api.ReportHandler(reportRelay))
	r.Get("/report/v1", api.ReportV1Handler())
	r.Post("/report/v1", api.ReportV1Handler())
	r.Post("/rename", api.RenameHandler(renameRelay))

	// In-LMS surface.
	r.Get("/launch", api.LaunchHandler(launcher, cookies, sessions))
	r.Get("/events", api.EventsListHandler(client, cookies, sessions, store))

	// Host lifecycle hooks.
	r.Route("/hooks", func(hr chi.Router) {
		hr.Post("/activity-created", api.ActivityCreatedHandler(store, lifecycle))
		hr.Post("/logged-in", api.LoggedInHandler(lifecycle, cookies))
	})

	r.Get("/admin/status", api.AdminStatusHandler(client, cfg.AdminUser, cfg.AdminPassHash))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	logger.Info().Str("addr", cfg.HTTPAddr).Str("db", cfg.DBDriver).Msg("listening")
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
