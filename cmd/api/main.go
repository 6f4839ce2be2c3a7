package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"oncohelper/internal/audio"
	"oncohelper/internal/config"
	"oncohelper/internal/http"
	"oncohelper/internal/recstore"
	"oncohelper/internal/session"
	"oncohelper/internal/storage"
	"oncohelper/internal/tracker"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	// Create repository instances
	appointmentRepo := storage.NewAppointmentRepo(db)
	questionRepo := storage.NewQuestionRepo(db)
	annotationRepo := storage.NewAnnotationRepo(db)

	// Recording files live on disk next to the database
	files, err := recstore.New(cfg.RecordingsDir)
	if err != nil {
		log.Fatalf("Failed to initialize recording store: %v", err)
	}
	slog.Info("Recording store initialized", "dir", cfg.RecordingsDir)

	// Domain service over the repos
	svc := tracker.NewService(appointmentRepo, questionRepo, annotationRepo, files)

	// Audio sessions: simulated device, capture gated by config
	device := audio.NewSimDevice(cfg.AudioCapture)
	sessions := session.NewManager(device, files, appointmentRepo, annotationRepo)
	slog.Info("Session manager initialized", "audio_capture", cfg.AudioCapture)

	// Create router with dependencies
	deps := &http.Deps{
		Tracker:       svc,
		Sessions:      sessions,
		DB:            db,
		RecordingsDir: cfg.RecordingsDir,
		CalendarLoc:   cfg.Calendar,
	}
	router := http.NewRouter(deps)

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
