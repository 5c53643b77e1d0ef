package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/kalambet/threatpulse/internal/advisor"
	"github.com/kalambet/threatpulse/internal/analysis"
	"github.com/kalambet/threatpulse/internal/api"
	"github.com/kalambet/threatpulse/internal/completion"
	"github.com/kalambet/threatpulse/internal/config"
	"github.com/kalambet/threatpulse/internal/observability"
	"github.com/kalambet/threatpulse/internal/zeroshot"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the threatpulse server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show threatpulse status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

// core is the analysis core shared by the HTTP server and the MCP server.
type core struct {
	analyzer    *analysis.Orchestrator
	recommender *advisor.Generator
}

func buildCore(cfg config.Config, m *observability.Metrics) (*core, error) {
	timeout, err := cfg.UpstreamTimeout()
	if err != nil {
		return nil, err
	}

	chat := completion.NewClientWithBaseURL(cfg.DeepSeek.APIKey, cfg.DeepSeek.BaseURL).
		WithTimeout(timeout)
	classifier := zeroshot.NewClientWithBaseURL(cfg.HuggingFace.APIKey, cfg.HuggingFace.BaseURL).
		WithModel(cfg.HuggingFace.Model).
		WithTimeout(timeout)

	providers := []analysis.Provider{
		analysis.NewChatProvider(chat, cfg.DeepSeek.Model, m),
		analysis.NewClassifierProvider(classifier),
	}

	return &core{
		analyzer:    analysis.New(m, providers),
		recommender: advisor.NewGenerator(chat, cfg.DeepSeek.Model, m),
	}, nil
}

func setupLogging(level string, w io.Writer) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "threatpulse version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg.Log.Level, os.Stderr)

	addr := cfg.Addr()
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get("http://" + addr + "/health"); err == nil {
		resp.Body.Close()
		printWarning("threatpulse is already running on %s", addr)
		return fmt.Errorf("server already running on %s", addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := buildCore(cfg, observability.NewMetrics())
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Deps{
		Analyzer:    c.analyzer,
		Recommender: c.recommender,
		Metrics:     promhttp.Handler(),
	})

	srv := newHTTPServer(ctx, addr, handler)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("threatpulse listening", "addr", addr,
			"chat_model", cfg.DeepSeek.Model, "classifier_model", cfg.HuggingFace.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newHTTPServer builds the API server. Request contexts keep ctx's values but
// not its cancellation, so Shutdown can drain in-flight analyses after a signal.
func newHTTPServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client := &apiClient{
		baseURL:    "http://" + cfg.Addr(),
		httpClient: &http.Client{Timeout: 2 * time.Second},
	}
	resp, err := client.get(context.Background(), "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on %s", cfg.Addr())
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Chat model", "%s (%s)", cfg.DeepSeek.Model, keyState(cfg.DeepSeek.APIKey))
	printStatus("Classifier", "%s (%s)", cfg.HuggingFace.Model, keyState(cfg.HuggingFace.APIKey))
	printStatus("Timeout", "%s", cfg.Upstream.Timeout)
	return nil
}

func keyState(key string) string {
	if key == "" {
		return "no API key"
	}
	return "API key set"
}
