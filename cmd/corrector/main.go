// Package main is the entry point for the ranking correction daemon.
// It runs the periodic batch corrector and serves health and metrics
// endpoints.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/lodestone/internal/config"
	"github.com/onnwee/lodestone/internal/content"
	"github.com/onnwee/lodestone/internal/corrector"
	"github.com/onnwee/lodestone/internal/db"
	"github.com/onnwee/lodestone/internal/health"
	"github.com/onnwee/lodestone/internal/interaction"
	"github.com/onnwee/lodestone/internal/jobs"
	"github.com/onnwee/lodestone/internal/ledger"
	"github.com/onnwee/lodestone/internal/middleware"
	"github.com/onnwee/lodestone/internal/scoring"
	"github.com/onnwee/lodestone/internal/tracing"
	"github.com/onnwee/lodestone/internal/trustweight"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	once := flag.Bool("once", false, "run a single correction over the configured window and exit")
	flag.Parse()

	if *help {
		fmt.Println("Lodestone Ranking Corrector")
		fmt.Println()
		fmt.Println("Usage: corrector [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "lodestone-corrector",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplingRate: cfg.TracingSamplingRate,
		InsecureMode: cfg.Env != "production",
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	checkers := []health.Checker{health.NewDBChecker(conn)}

	// Trust weight resolution is optional; without Redis the corrector
	// treats every click as default-weight.
	var resolver trustweight.Resolver
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
		checkers = append(checkers, health.NewRedisChecker(redisClient))

		resolver = trustweight.NewCachingResolver(
			trustweight.NewRedisResolver(redisClient, cfg.TrustResolveTimeout, logger),
			trustweight.NewBoundedCache(cfg.TrustCacheSize),
		)
	} else {
		logger.Info("no REDIS_URL configured, using default trust weights")
	}

	// Calibration overrides are advisory; a missing or malformed file
	// falls back to defaults.
	weights := scoring.DefaultWeights()
	if cfg.ScoringCalibrationPath != "" {
		loaded, err := scoring.LoadCalibration(cfg.ScoringCalibrationPath)
		if err != nil {
			logger.Warn("failed to load scoring calibration, using defaults",
				"path", cfg.ScoringCalibrationPath,
				"error", err)
		} else {
			weights = loaded
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	jobMetrics := jobs.NewMetrics()
	if err := jobMetrics.Register(registry); err != nil {
		logger.Error("failed to register job metrics", "error", err)
		os.Exit(1)
	}
	correctorMetrics := corrector.NewMetrics()
	if err := correctorMetrics.Register(registry); err != nil {
		logger.Error("failed to register corrector metrics", "error", err)
		os.Exit(1)
	}
	interactionMetrics := interaction.NewMetrics()
	if err := interactionMetrics.Register(registry); err != nil {
		logger.Error("failed to register interaction metrics", "error", err)
		os.Exit(1)
	}

	store := content.NewPostgresStore(conn, logger)
	eventLedger := ledger.NewPostgresLedger(conn, logger)
	watermarks := corrector.NewPostgresWatermarkStore(conn)
	recorder := interaction.NewRecorder(store, eventLedger, logger, interactionMetrics)

	job := corrector.NewJob(corrector.Config{
		Interval:   cfg.CorrectionInterval,
		Window:     cfg.CorrectionWindow,
		PageSize:   cfg.CorrectionPageSize,
		Timeout:    cfg.CorrectionTimeout,
		Logger:     logger,
		Metrics:    correctorMetrics,
		JobMetrics: jobMetrics,
	}, store, eventLedger, resolver, watermarks)

	if *once {
		runCtx, runCancel := context.WithTimeout(ctx, cfg.CorrectionTimeout)
		defer runCancel()
		end := time.Now()
		summary, err := job.Run(runCtx, end.Add(-cfg.CorrectionWindow), end)
		if err != nil {
			logger.Error("correction run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("correction run completed",
			"events_processed", summary.EventsProcessed,
			"updated", summary.Updated,
			"skipped", summary.Skipped,
			"failed", len(summary.Errors))
		return
	}

	if err := job.Start(ctx); err != nil {
		logger.Error("failed to start correction job", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	// Debug endpoint: recompute a single record's score with the live
	// calibration. Useful when diagnosing ranking complaints.
	mux.HandleFunc("/score", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, `{"error":"missing id parameter"}`, http.StatusBadRequest)
			return
		}
		rec, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, `{"error":"record not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":%q,"score":%d}`, id, scoring.ScoreWith(*rec, time.Now(), weights))
	})
	mux.HandleFunc("/interactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			ContentID string `json:"content_id"`
			UserID    string `json:"user_id"`
			Type      string `json:"type"`
			DwellTime int64  `json:"dwell_time"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if err := recorder.Record(r.Context(), body.ContentID, body.UserID, ledger.EventType(body.Type), body.DwellTime); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"error":%q}`, err.Error())
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		for _, checker := range checkers {
			if err := checker.HealthCheck(r.Context()); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, `{"status":"unhealthy","error":%q}`, err.Error())
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	// Middleware chain: RequestID -> Tracing -> Logging
	handler := middleware.RequestID(
		middleware.Tracing("lodestone-corrector")(
			middleware.Logging(logger)(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting corrector server",
			"port", cfg.Port,
			"interval", cfg.CorrectionInterval,
			"window", cfg.CorrectionWindow)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	job.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown tracer provider", "error", err)
	}

	logger.Info("corrector stopped")
}
