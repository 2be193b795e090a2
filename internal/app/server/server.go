package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"attend/internal/domain/attendance"
	"attend/internal/domain/audit"
	"attend/internal/domain/calendar"
	"attend/internal/domain/employee"
	"attend/internal/domain/leave"
	"attend/internal/domain/ledger"
	"attend/internal/domain/notify"
	"attend/internal/domain/reports"
	"attend/internal/platform/config"
	"attend/internal/platform/db"
	"attend/internal/platform/identity"
	"attend/internal/platform/jobs"
	"attend/internal/platform/metrics"
	"attend/internal/platform/push"
	attendancehandler "attend/internal/transport/http/handlers/attendance"
	authhandler "attend/internal/transport/http/handlers/auth"
	dashboardhandler "attend/internal/transport/http/handlers/dashboard"
	employeeshandler "attend/internal/transport/http/handlers/employees"
	holidayshandler "attend/internal/transport/http/handlers/holidays"
	leavehandler "attend/internal/transport/http/handlers/leave"
	notificationshandler "attend/internal/transport/http/handlers/notifications"
	"attend/internal/transport/http/middleware"
)

type App struct {
	Config    config.Config
	DB        *pgxpool.Pool
	Router    http.Handler
	Reminders *jobs.Service
}

// New wires the whole application but does not listen or start background
// workers; Run and the integration tests share it.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, findMigrationsDir()); err != nil {
			pool.Close()
			return nil, err
		}
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
	}

	collector := metrics.New()
	auditTrail := audit.New(pool)

	calendarStore := calendar.NewStore(pool)
	policy := calendar.NewPolicy(calendarStore, cfg.HolidayCacheTTL)
	balances := ledger.New(pool)

	notifySvc := notify.NewService(notify.NewStore(pool), push.New(cfg), auditTrail, collector, cfg.TokenCacheTTL)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), policy, balances, notifySvc)
	leaveSvc := leave.NewService(leave.NewStore(pool), policy, balances, attendanceSvc, notifySvc)
	employeeSvc := employee.NewService(employee.NewStore(pool), identity.NewLocal())
	reportsSvc := reports.NewService(pool)

	reminderWorker, err := jobs.New(cfg, notifySvc)
	if err != nil {
		pool.Close()
		return nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(collector.Snapshot())
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(employeeSvc, cfg.JWTSecret)
		r.Post("/auth/login", authHandler.HandleLogin)

		attendancehandler.NewHandler(attendanceSvc, auditTrail).RegisterRoutes(r)
		leavehandler.NewHandler(leaveSvc, reportsSvc, auditTrail).RegisterRoutes(r)
		employeeshandler.NewHandler(employeeSvc, balances, auditTrail).RegisterRoutes(r)
		holidayshandler.NewHandler(calendarStore, policy, auditTrail).RegisterRoutes(r)
		notificationshandler.NewHandler(notifySvc).RegisterRoutes(r)
		dashboardhandler.NewHandler(reportsSvc, auditTrail).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return &App{
		Config:    cfg,
		DB:        pool,
		Router:    router,
		Reminders: reminderWorker,
	}, nil
}

func (a *App) Close() {
	a.DB.Close()
}

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	app, err := New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	app.Reminders.Start(ctx)

	log.Printf("attendance server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// findMigrationsDir walks upward so integration tests running from package
// directories resolve the same migrations as the binary run from the repo root.
func findMigrationsDir() string {
	dir := "migrations"
	for i := 0; i < 6; i++ {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		dir = filepath.Join("..", dir)
	}
	return "migrations"
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
