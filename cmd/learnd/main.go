package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/vertechie/vertechie-learn/internal/api/http"
	"github.com/vertechie/vertechie-learn/internal/audit"
	auth "github.com/vertechie/vertechie-learn/internal/auth/middleware"
	"github.com/vertechie/vertechie-learn/internal/catalog"
	"github.com/vertechie/vertechie-learn/internal/certificate"
	"github.com/vertechie/vertechie-learn/internal/cms"
	"github.com/vertechie/vertechie-learn/internal/config"
	"github.com/vertechie/vertechie-learn/internal/db"
	"github.com/vertechie/vertechie-learn/internal/progress"
	"github.com/vertechie/vertechie-learn/internal/quiz"
	"github.com/vertechie/vertechie-learn/internal/rbac"
	"github.com/vertechie/vertechie-learn/internal/state"
	"github.com/vertechie/vertechie-learn/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Curriculum ---
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	// --- Learner state (progress + certificates) ---
	kv, err := openKV(cfg, dbh)
	if err != nil {
		log.Fatalf("state backend %q: %v", cfg.StateBackend, err)
	}
	progressStore := progress.NewStore(kv)
	issuer := certificate.NewIssuer(kv)

	// --- Quiz engine + deadline sweeper ---
	engine := quiz.NewEngine(cat, cfg.QuizSecondsPerQuestion)
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go engine.Run(runCtx)

	// --- Auth ---
	secret := envOr("AUTH_HMAC_SECRET", "supersecret-dev-key")
	authSvc := auth.NewAuthService(secret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, auth.LocalCreds{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
		}))
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	// Learner API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("catalog:view")).
			Get("/tutorials", api.ListTutorialsHandler(cat))
		pr.With(rbac.Require("catalog:view")).
			Get("/tutorials/{tutorialID}", api.GetTutorialHandler(cat))
		pr.With(rbac.Require("lesson:view")).
			Get("/tutorials/{tutorialID}/lessons/{lessonSlug}", api.GetLessonHandler(cat))
		pr.With(rbac.Require("tryit:run")).
			Post("/tutorials/{tutorialID}/tryit", api.TryItHandler(cat))

		pr.With(rbac.Require("progress:read")).
			Get("/tutorials/{tutorialID}/progress", api.GetProgressHandler(cat, progressStore))
		pr.With(rbac.Require("progress:write")).
			Post("/tutorials/{tutorialID}/lessons/{lessonSlug}/complete", api.CompleteLessonHandler(cat, progressStore, issuer))
		pr.With(rbac.Require("progress:write")).
			Delete("/tutorials/{tutorialID}/progress", api.ResetProgressHandler(cat, progressStore))

		pr.With(rbac.Require("certificate:read")).
			Get("/certificates", api.ListCertificatesHandler(issuer))

		pr.With(rbac.Require("quiz:attempt")).
			Post("/tutorials/{tutorialID}/quiz/attempts", api.StartQuizHandler(engine))
		pr.With(rbac.Require("quiz:attempt")).
			Get("/quiz/attempts/{attemptID}", api.GetQuizAttemptHandler(engine))
		pr.With(rbac.Require("quiz:attempt")).
			Post("/quiz/attempts/{attemptID}/answers", api.AnswerQuizHandler(engine))
		pr.With(rbac.Require("quiz:attempt")).
			Post("/quiz/attempts/{attemptID}/advance", api.AdvanceQuizHandler(engine))
		pr.With(rbac.Require("quiz:attempt")).
			Post("/quiz/attempts/{attemptID}/reset", api.ResetQuizHandler(engine))

		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	// Authoring CMS. Runs open on a trusted host by default; ADMIN_AUTH=1
	// puts it behind JWT + content permissions.
	cmsStore := cms.NewStore(dbh, audit.NewLog(dbh))
	if cfg.AdminAuth {
		r.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(authSvc))
			pr.Use(rbac.Require("content:edit"))
			pr.Mount("/admin", cms.Router(cmsStore))
		})
	} else {
		r.Mount("/admin", cms.Router(cmsStore))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", 503)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s, state=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.StateBackend)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func openKV(cfg config.Config, dbh *sql.DB) (state.KV, error) {
	switch cfg.StateBackend {
	case "memory":
		return state.NewMemoryKV(), nil
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return state.NewRedisKV(ctx, cfg.RedisURL)
	case "sql":
		return state.NewSQLKV(dbh), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
