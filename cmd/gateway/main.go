package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	api "github.com/redalab/redalab-backend/internal/api/http"
	"github.com/redalab/redalab-backend/internal/audit"
	auth "github.com/redalab/redalab-backend/internal/auth/middleware"
	"github.com/redalab/redalab-backend/internal/config"
	"github.com/redalab/redalab-backend/internal/dashboard"
	"github.com/redalab/redalab-backend/internal/db"
	"github.com/redalab/redalab-backend/internal/essay"
	"github.com/redalab/redalab-backend/internal/performance"
	"github.com/redalab/redalab-backend/internal/rbac"
	"github.com/redalab/redalab-backend/internal/render"
	"github.com/redalab/redalab-backend/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log := buildLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sdb, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	if err := seedAdmin(ctx, sdb, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatal("admin seed failed", zap.Error(err))
	}

	// --- Blob store + PDF renderer ---
	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatal("blob store", zap.Error(err))
	}

	// --- Services ---
	perfStore := performance.NewSQLStore(sdb)
	agg := performance.NewAggregator(perfStore, log)

	essayStore := essay.NewSQLStore(sdb)
	essaySvc := essay.NewService(db.NewTxRunner(sdb), essayStore, agg, render.NewPDF(blobs), log)

	auditLog := audit.NewLog(sdb)
	essaySvc.SetAudit(auditLog)

	dashSvc := dashboard.NewService(dashboard.NewSQLStore(sdb))

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, sdb))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(sdb, true))

		// Student flow
		pr.With(rbac.Require("essay:create")).
			Post("/essays", api.CreateEssayHandler(essaySvc))
		pr.With(rbac.Require("essay:view-own")).
			Get("/essays", api.ListEssaysHandler(essaySvc))
		pr.With(rbac.Require("essay:create")).
			Post("/essays/{essayID}/submit", api.SubmitEssayHandler(essaySvc))

		// Teacher flow
		pr.With(rbac.Require("essay:list-pending")).
			Get("/essays/pending", api.ListPendingEssaysHandler(essaySvc))
		pr.With(rbac.Require("essay:correct")).
			Post("/essays/{essayID}/correct", api.CorrectEssayHandler(essaySvc))

		pr.With(rbac.Require("essay:view")).
			Get("/essays/{essayID}/events", api.EssayEventsHandler(auditLog))

		// Shared reads: handler enforces owner-or-teacher
		pr.With(rbac.RequireAny("essay:view-own", "essay:view")).
			Get("/essays/{essayID}", api.GetEssayHandler(essaySvc))
		pr.With(rbac.RequireAny("essay:view-own", "essay:view")).
			Get("/essays/{essayID}/pdf", api.GetEssayPDFHandler(essaySvc, blobs))

		// Dashboards
		pr.With(rbac.Require("performance:view")).
			Get("/performance/me", api.MyMetricsHandler(dashSvc))
		pr.Get("/performance/student", api.StudentMetricsHandler(dashSvc))
		pr.Get("/performance/teacher", api.TeacherMetricsHandler(dashSvc))
		pr.Get("/performance/admin", api.AdminMetricsHandler(dashSvc))
		pr.With(rbac.Require("performance:view")).
			Get("/performance/aggregate", api.AggregateHandler(agg))
		pr.With(rbac.Require("performance:view")).
			Get("/performance/history", api.HistoryHandler(agg))
		pr.With(rbac.Require("performance:view")).
			Get("/performance/monthly", api.MonthlyHandler(agg))

		// Users (admin)
		pr.With(rbac.Require("users:manage")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(sdb))
		pr.With(rbac.Require("users:manage")).
			Get("/users", api.ListUsersHandler(sdb))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(sdb))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func buildLogger(level string) *zap.Logger {
	zc := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := zc.Build()
	if err != nil {
		panic(err)
	}
	return log
}

// seedAdmin guarantees an admin login exists on first boot.
func seedAdmin(ctx context.Context, sdb *sql.DB, username, passHash string) error {
	_, err := sdb.ExecContext(ctx,
		`INSERT INTO users (id,username,password_hash,role,created_at) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (username) DO NOTHING`,
		uuid.NewString(), username, passHash, rbac.RoleAdmin, time.Now().Unix())
	return err
}
