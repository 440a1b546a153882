// Command vfv-server runs the collaborative visualization session
// coordination server (§10.2 of SPEC_FULL.md).
//
// Grounded on alxayo-rtmp-go/cmd/rtmp-server's main.go shutdown sequence
// (signal.NotifyContext, bounded-timeout stop, forced exit on timeout),
// rebuilt on a cobra.Command per packetd-packetd/cmd's flag-construction
// idiom instead of the teacher's stdlib flag.FlagSet.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sereno-labs/vfv-server/internal/audit"
	"github.com/sereno-labs/vfv-server/internal/logger"
	"github.com/sereno-labs/vfv-server/internal/vfvserver"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

const envTrackingMode = "TRACKING_MODE"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type cliConfig struct {
	listen           string
	locationListen   string
	logLevel         string
	maxHeadsets      int
	lockOwnerTimeout time.Duration
	tickHz           int
	auditLog         string
	metricsListen    string
}

func newRootCmd() *cobra.Command {
	cfg := &cliConfig{}

	cmd := &cobra.Command{
		Use:     "vfv-server",
		Short:   "Collaborative visualization session coordination server",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.listen, "listen", ":8000", "TCP listen address for tablet/headset connections")
	flags.StringVar(&cfg.locationListen, "location-listen", ":8100", "Secondary location-service listen address (accepted and logged; stub, out of core)")
	flags.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug|info|warn|error (empty: VFV_LOG_LEVEL, else info)")
	flags.IntVar(&cfg.maxHeadsets, "max-headsets", 10, "Maximum concurrent headset connections (bounded by the fixed 10-color palette regardless of this value)")
	flags.DurationVar(&cfg.lockOwnerTimeout, "lock-owner-timeout", time.Second, "Subdataset lock-owner expiry (§4.5 MAX_OWNER_TIME)")
	flags.IntVar(&cfg.tickHz, "tick-hz", 10, "Broadcaster tick frequency (UPDATE_THREAD_FRAMERATE)")
	flags.StringVar(&cfg.auditLog, "audit-log", "", "Audit log file path (empty disables the audit sink)")
	flags.StringVar(&cfg.metricsListen, "metrics-listen", "", "Address for the Prometheus /metrics page (empty disables)")

	return cmd
}

func run(ctx context.Context, cfg *cliConfig) error {
	logger.Init()
	if cfg.logLevel != "" {
		if err := logger.SetLevel(cfg.logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "warning: invalid log level %q, using default\n", cfg.logLevel)
		}
	}
	log := logger.Named("cli")

	if mode := os.Getenv(envTrackingMode); mode != "" {
		log.Info("tracking mode set", zap.String("mode", mode),
			zap.String("note", "parsed and logged only; the core never branches on it"))
	}
	if cfg.tickHz <= 0 {
		return fmt.Errorf("tick-hz must be positive, got %d", cfg.tickHz)
	}
	log.Info("max-headsets accepted",
		zap.Int("requested", cfg.maxHeadsets),
		zap.String("note", "the actual ceiling is the fixed 10-slot color palette"))
	if cfg.locationListen != "" {
		log.Info("location-listen accepted but not served", zap.String("addr", cfg.locationListen),
			zap.String("note", "location service is out of core; stub only"))
	}

	server := vfvserver.New(vfvserver.Config{
		ListenAddr:       cfg.listen,
		TickInterval:     time.Second / time.Duration(cfg.tickHz),
		LockOwnerTimeout: cfg.lockOwnerTimeout,
	})

	if cfg.auditLog != "" {
		server.Handlers.WithAudit(audit.New(cfg.auditLog))
		log.Info("audit log enabled", zap.String("path", cfg.auditLog))
	}

	var metricsSrv *http.Server
	if cfg.metricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.metricsListen, Handler: mux}
		go func() {
			log.Info("metrics server listening", zap.String("addr", cfg.metricsListen))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(runCtx) }()

	log.Info("server starting", zap.String("addr", cfg.listen), zap.String("version", version))

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server exited with error", zap.Error(err))
			return err
		}
	case <-runCtx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server stop error", zap.Error(err))
		} else {
			log.Info("server stopped cleanly")
		}
	case <-shutdownCtx.Done():
		log.Error("forced exit after shutdown timeout")
	}

	if metricsSrv != nil {
		_ = metricsSrv.Close()
	}
	return nil
}
