package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sitrep-gov/platform/internal/attachment"
	"github.com/sitrep-gov/platform/internal/audit"
	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/coordination"
	"github.com/sitrep-gov/platform/internal/event"
	"github.com/sitrep-gov/platform/internal/governorate"
	"github.com/sitrep-gov/platform/internal/meeting"
	"github.com/sitrep-gov/platform/internal/memo"
	"github.com/sitrep-gov/platform/internal/refnum"
	"github.com/sitrep-gov/platform/internal/report"
	"github.com/sitrep-gov/platform/internal/shared/config"
	"github.com/sitrep-gov/platform/internal/shared/database"
	"github.com/sitrep-gov/platform/internal/shared/events"
	"github.com/sitrep-gov/platform/internal/shared/metrics"
	secmiddleware "github.com/sitrep-gov/platform/internal/shared/middleware"
	"github.com/sitrep-gov/platform/internal/shared/respond"
	"github.com/sitrep-gov/platform/internal/user"
)

// App holds all application dependencies
type App struct {
	Config *config.Config
	DB     *database.DB
	Bus    *events.Bus
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	respond.SetProduction(cfg.Server.IsProduction())

	app := &App{Config: cfg}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	app.DB = db
	defer db.Close()

	if err := database.Migrate(ctx, db.Pool); err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}

	// Optional audit mirror (skip if not configured)
	if cfg.EventStore.Enabled {
		bus, err := events.NewBus(cfg.EventStore)
		if err != nil {
			fmt.Printf("Warning: EventStore not available: %v\n", err)
			fmt.Println("Running without the audit event mirror...")
		} else {
			app.Bus = bus
			defer bus.Close()
			fmt.Println("EventStore audit mirror initialized")
		}
	}

	// Repositories and services
	gen := refnum.NewGenerator()

	userRepo := user.NewRepository(db.Pool)
	govRepo := governorate.NewRepository(db.Pool)
	reportRepo := report.NewRepository(db.Pool, gen)
	eventRepo := event.NewRepository(db.Pool, gen)
	coordRepo := coordination.NewRepository(db.Pool, gen)
	meetingRepo := meeting.NewRepository(db.Pool, gen)
	memoRepo := memo.NewRepository(db.Pool, gen)
	auditRepo := audit.NewRepository(db.Pool)
	attachmentRepo := attachment.NewRepository(db.Pool)

	attachments, err := attachment.NewService(attachmentRepo, cfg.Upload, cfg.Server.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare upload directory: %v\n", err)
		os.Exit(1)
	}

	var publisher events.Publisher
	if app.Bus != nil {
		publisher = app.Bus
	}
	emitter := audit.NewEmitter(auditRepo, publisher)
	issuer := auth.NewIssuer(cfg.Auth)

	// Handlers
	authHandler := user.NewAuthHandler(userRepo, issuer, emitter)
	userHandler := user.NewHandler(userRepo, auditRepo, emitter)
	govHandler := governorate.NewHandler(govRepo, emitter)
	reportHandler := report.NewHandler(reportRepo, eventRepo, govRepo, attachments, emitter)
	eventHandler := event.NewHandler(eventRepo, govRepo, attachments, emitter)
	coordHandler := coordination.NewHandler(coordRepo, govRepo, emitter)
	meetingHandler := meeting.NewHandler(meetingRepo, attachments, emitter)
	memoHandler := memo.NewHandler(memoRepo, govRepo, attachments, emitter)
	auditHandler := audit.NewHandler(auditRepo)

	rateLimiter := secmiddleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	corsConfig := secmiddleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORS.AllowedOrigins

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(secmiddleware.SecurityHeaders)
	r.Use(secmiddleware.CORS(corsConfig))
	r.Use(rateLimiter.Middleware)
	r.Use(secmiddleware.BodyLimit(cfg.Upload.MaxSize + 1<<20))
	r.Use(metrics.Middleware)

	// Health checks (unauthenticated)
	r.Get("/health", healthHandler(app))
	r.Get("/ready", readyHandler(app))
	r.Handle("/metrics", metrics.Handler())

	// API info
	r.Get("/", infoHandler)

	authenticate := auth.Authenticate(issuer, userRepo)

	r.Route("/api/v1", func(r chi.Router) {
		// Mixed public/protected surfaces handle the session middleware
		// themselves
		r.Mount("/auth", authHandler.Routes(authenticate))
		r.Mount("/governorates", govHandler.Routes(authenticate))

		// Everything else requires a valid token for a live, active user
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Mount("/users", userHandler.Routes())
			r.Mount("/reports", reportHandler.Routes())
			r.Mount("/events", eventHandler.Routes())
			r.Mount("/coordinations", coordHandler.Routes())
			r.Mount("/meetings", meetingHandler.Routes())
			r.Mount("/memos", memoHandler.Routes())
			r.Mount("/logs", auditHandler.Routes())
		})
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("Server shutdown error: %v\n", err)
		}
		close(done)
	}()

	fmt.Println("============================================")
	fmt.Println("Security Incident Reporting Platform")
	fmt.Println("============================================")
	fmt.Printf("Environment:  %s\n", cfg.Server.Env)
	fmt.Printf("Server:       http://localhost:%d\n", cfg.Server.Port)
	fmt.Printf("API:          http://localhost:%d/api/v1\n", cfg.Server.Port)
	fmt.Printf("Health:       http://localhost:%d/health\n", cfg.Server.Port)
	fmt.Printf("Uploads:      %s (max %d bytes)\n", cfg.Upload.Dir, cfg.Upload.MaxSize)
	fmt.Printf("EventStore:   enabled=%v\n", cfg.EventStore.Enabled)
	fmt.Println("============================================")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	<-done
	fmt.Println("Server stopped")
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"name":    "Security Incident Reporting Platform",
		"version": "1.0.0",
		"docs":    "/api/v1",
	})
}

func healthHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
		})
	}
}

func readyHandler(app *App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"server": "ready",
		}

		if err := app.DB.Health(r.Context()); err != nil {
			checks["database"] = "not ready: " + err.Error()
		} else {
			checks["database"] = "ready"
		}

		if app.Bus != nil {
			if err := app.Bus.Health(); err != nil {
				checks["eventstore"] = "not ready: " + err.Error()
			} else {
				checks["eventstore"] = "ready"
			}
		} else {
			checks["eventstore"] = "not configured"
		}

		allReady := true
		for _, status := range checks {
			if status != "ready" && status != "not configured" {
				allReady = false
				break
			}
		}

		status := http.StatusOK
		if !allReady {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"status": map[bool]string{true: "ready", false: "not ready"}[allReady],
			"checks": checks,
		})
	}
}
