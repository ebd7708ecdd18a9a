package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iamNilotpal/fsrecords/internal/adapters/metrics"
	"github.com/iamNilotpal/fsrecords/internal/core/services/fsrecords"
	"github.com/iamNilotpal/fsrecords/pkg/logger"
)

// reportView is the printable form of an initialization report.
type reportView struct {
	SessionID    string    `json:"session_id" yaml:"session_id"`
	Directory    string    `json:"directory" yaml:"directory"`
	Attempts     int       `json:"attempts" yaml:"attempts"`
	Failures     []string  `json:"failures,omitempty" yaml:"failures,omitempty"`
	RebuildCause string    `json:"rebuild_cause" yaml:"rebuild_cause"`
	CreatedANew  bool      `json:"created_a_new" yaml:"created_a_new"`
	Version      uint32    `json:"version" yaml:"version"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	DurationMs   int64     `json:"duration_ms" yaml:"duration_ms"`
}

func newReportView(directory string, report fsrecords.InitializationReport) reportView {
	view := reportView{
		SessionID:    report.SessionID,
		Directory:    directory,
		Attempts:     report.Attempts,
		RebuildCause: report.RebuildCause.String(),
		CreatedANew:  report.CreatedANew,
		Version:      report.Version,
		CreatedAt:    report.CreatedAt.UTC(),
		DurationMs:   report.Duration.Milliseconds(),
	}
	for _, failure := range report.Failures {
		view.Failures = append(view.Failures, failure.Error())
	}
	return view
}

// NewLoadCmd creates the load command.
func NewLoadCmd(globals *globalOptions) *cobra.Command {
	var output string
	var serve bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Initialize the storages and print the initialization report",
		Long: `Load the storages, rebuilding them if a recoverable failure is found,
then print how the initialization went.

With --serve the storages stay open and load metrics are served on
metrics_addr until interrupted.`,
		Example: `  # Load and print the report
  fsrecords load --dir /var/cache/fsrecords

  # Keep running and expose /metrics
  fsrecords load --config fsrecords.yaml --serve -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format %q", output)
			}

			cfg, err := globals.resolveConfig()
			if err != nil {
				return err
			}

			log := logger.NewWithLevel("fsrecords", cfg.LogLevel, "stderr")
			defer func() { _ = log.Sync() }()

			registry := prometheus.NewRegistry()
			telemetry := metrics.NewLoadMetrics(registry)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			records, err := fsrecords.New(ctx, cfg.StorageOptions(), log, telemetry)
			if err != nil {
				return err
			}
			defer func() {
				if err := records.Close(context.Background()); err != nil {
					log.Errorw("closing storages", "error", err)
				}
			}()

			if err := printReport(cmd.OutOrStdout(), output, newReportView(records.Options().Directory, records.Report())); err != nil {
				return err
			}

			if !serve {
				return nil
			}
			if cfg.MetricsAddr == "" {
				return errors.New("--serve needs metrics_addr to be configured")
			}
			return serveMetrics(ctx, log, cfg.MetricsAddr, registry)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json|yaml)")
	cmd.Flags().BoolVar(&serve, "serve", false, "keep the storages open and serve /metrics")

	return cmd
}

func printReport(w io.Writer, format string, view reportView) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(view)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func serveMetrics(ctx context.Context, log *zap.SugaredLogger, addr string, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("serving metrics", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
