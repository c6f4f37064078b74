package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/portal/internal/api"
	"github.com/kalambet/portal/internal/config"
	"github.com/kalambet/portal/internal/events"
	"github.com/kalambet/portal/internal/metrics"
	"github.com/kalambet/portal/internal/record"
	"github.com/kalambet/portal/internal/storage"
	"github.com/kalambet/portal/internal/store"
	"github.com/kalambet/portal/internal/viewmodel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running portal server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show portal status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdin/stdout")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "portal.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

type stores struct {
	tasks    *store.Store[record.Task]
	meetings *store.Store[record.Meeting]
}

// openStores loads both collections from slots in parallel. They share one
// bus so a single subscriber sees every kind.
func openStores(ctx context.Context, cfg config.Config, slots store.Slots, m *metrics.Metrics, logger *slog.Logger) (stores, error) {
	var s stores
	bus := events.NewBus()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.tasks, err = store.Open(gCtx, store.Options[record.Task]{
			Kind:    record.KindTask,
			Slots:   slots,
			Seed:    record.InitialTasks,
			Latency: cfg.Store.Latency,
			Bus:     bus,
			Metrics: m,
			Logger:  logger,
		})
		return err
	})
	g.Go(func() error {
		var err error
		s.meetings, err = store.Open(gCtx, store.Options[record.Meeting]{
			Kind:    record.KindMeeting,
			Slots:   slots,
			Seed:    record.InitialMeetings,
			Latency: cfg.Store.Latency,
			Bus:     bus,
			Metrics: m,
			Logger:  logger,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return stores{}, fmt.Errorf("loading records: %w", err)
	}
	return s, nil
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "portal version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))
	logger := slog.Default()

	// Refuse to start twice. A live /health means another instance owns the port.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("portal is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("portal is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.OpenBackend(cfg.Storage.Driver, cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()
	logger.Info("storage opened", "driver", cfg.Storage.Driver, "data_dir", cfg.Storage.DataDir)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	s, err := openStores(ctx, cfg, backend, m, logger)
	if err != nil {
		return err
	}
	if cfg.API.Token == "" {
		logger.Warn("api.token not set, HTTP API is unauthenticated")
	}

	views := api.NewViews()
	defer views.CloseAll()

	handler := api.NewHandler(api.Deps{
		Tasks:    s.tasks,
		Meetings: s.meetings,
		Views:    views,
		List: api.ListSettings{
			PageSize:  cfg.List.PageSize,
			PageDelay: cfg.List.PageDelay,
			Debounce:  cfg.List.SearchDebounce,
			Dates:     viewmodel.NewDateFormat(cfg.List.Locale, time.Local),
		},
		Token:    cfg.API.Token,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{Tasks: s.tasks, Meetings: s.meetings})
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "portal listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("portal is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop portal (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to portal (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	client.httpClient.Timeout = 2 * time.Second

	running := false
	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if running {
		for _, kind := range record.Kinds {
			n, err := countRecords(ctx, client, kind)
			if err != nil {
				printStatus(kindTitle(kind), "unavailable (%v)", err)
				continue
			}
			printStatus(kindTitle(kind), "%d", n)
		}
	}

	printStatus("Storage", "%s at %s", cfg.Storage.Driver, cfg.Storage.DataDir)
	printStatus("Locale", "%s", cfg.List.Locale)
	return nil
}

func countRecords(ctx context.Context, client *apiClient, kind record.Kind) (int, error) {
	resp, err := client.get(ctx, "/"+kind.Plural()+"?limit=1")
	if err != nil {
		return 0, err
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return 0, err
	}
	return body.Total, nil
}

func kindTitle(kind record.Kind) string {
	p := kind.Plural()
	return strings.ToUpper(p[:1]) + p[1:]
}
