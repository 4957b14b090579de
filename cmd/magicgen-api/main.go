package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mmrzaf/magicgen/internal/api"
	"github.com/mmrzaf/magicgen/internal/app"
	"github.com/mmrzaf/magicgen/internal/config"
	"github.com/mmrzaf/magicgen/internal/exec"
	"github.com/mmrzaf/magicgen/internal/infra/repos/runs"
	"github.com/mmrzaf/magicgen/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	runsDB := flag.String("runs-db", cfg.RunsDB, "Run history database (SQLite path or postgres:// DSN)")
	bindAddr := flag.String("bind", cfg.BindAddr, "Bind address")
	logLevel := flag.String("log", cfg.LogLevel, "Log level")
	flag.Parse()

	logger := logging.NewLogger(*logLevel).WithComponent("api_main")
	defer logger.Sync()

	var runRepo runs.Repository
	if *runsDB != "" {
		runRepo, err = runs.Open(*runsDB)
		if err != nil {
			logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "init_run_repo", "dsn": runs.RedactDSN(*runsDB)})
			os.Exit(1)
		}
		defer runRepo.Close()
		logger.Infow("startup.run_history", map[string]any{"dsn": runs.RedactDSN(*runsDB)})
	}

	runService := app.NewRunService(runRepo, exec.NewExecutor(logger), logger)
	handler := api.NewHandler(runService, logger)

	mux := http.NewServeMux()
	handler.Routes(mux)

	srv := &http.Server{
		Addr:              *bindAddr,
		Handler:           loggingMiddleware(logger.WithComponent("http"), mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Infow("startup.listening", map[string]any{"bind": *bindAddr})
	if err := srv.ListenAndServe(); err != nil {
		logger.Errorw("startup.failed", map[string]any{"error": err.Error(), "stage": "listen"})
		os.Exit(1)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(started).Milliseconds(),
			"remote":      r.RemoteAddr,
		}
		if sw.status >= 500 {
			logger.Errorw("request.completed", fields)
			return
		}
		if sw.status >= 400 {
			logger.Warnw("request.completed", fields)
			return
		}
		logger.Infow("request.completed", fields)
	})
}
