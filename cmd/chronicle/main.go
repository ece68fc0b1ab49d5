package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chronicle-go/chronicle/pkg/commitlog"
	"github.com/chronicle-go/chronicle/pkg/config"
	"github.com/chronicle-go/chronicle/pkg/events"
	"github.com/chronicle-go/chronicle/pkg/health"
	"github.com/chronicle-go/chronicle/pkg/ingest"
	"github.com/chronicle-go/chronicle/pkg/log"
	"github.com/chronicle-go/chronicle/pkg/metrics"
	"github.com/chronicle-go/chronicle/pkg/storage"
	"github.com/chronicle-go/chronicle/pkg/types"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

var cfg = config.Default()
var configFile string
var metricsAddr string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "chronicle",
	Short:   "Chronicle - a permanent indexer for a UTXO-style distributed ledger",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("Chronicle version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file overlaying defaults and flags")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "127.0.0.1:9464", "bind address for /metrics")
	config.RegisterFlags(rootCmd.PersistentFlags(), &cfg)

	cobra.OnInitialize(func() {
		if configFile != "" {
			if err := config.LoadFile(configFile, &cfg); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		log.Init(cfg.LogConfig())
	})

	rootCmd.AddCommand(runCmd, statusCmd, migrateCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to an upstream node and ingest ledger updates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the locally committed ledger index and node configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run corruption recovery: truncate rows newer than the latest committed slot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func runIngest(ctx context.Context) error {
	logger := log.WithComponent("main")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	commitLog, err := commitlog.Open(filepath.Join(cfg.DataDir, "commitlog"), cfg.CommitLogBind, store)
	if err != nil {
		return fmt.Errorf("open commit log: %w", err)
	}
	defer commitLog.Shutdown()

	if err := commitLog.WaitForLeader(10 * time.Second); err != nil {
		return fmt.Errorf("commit log: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	upstreamStatus := health.NewStatus()
	upstreamHealthCfg := health.DefaultConfig()
	go watchUpstreamHealth(ctx, cfg.Url, upstreamStatus, upstreamHealthCfg)

	go func() {
		http.Handle("/metrics", metrics.Handler())
		http.Handle("/health", healthHandler(upstreamStatus))
		http.Handle("/ready", readyHandler(upstreamStatus))
		logger.Info().Str("addr", metricsAddr).Msg("metrics server listening")
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	worker := ingest.NewWorker(ingest.WorkerConfig{
		Url:                     cfg.Url,
		ConnectionRetryInterval: cfg.ConnectionRetryInterval,
		SyncStartSlot:           types.SlotIndex(cfg.SyncStartSlot),
		InsertBatchSize:         cfg.InsertBatchSize,
		CommitTimeout:           10 * time.Second,
	}, store, commitLog, broker)

	runCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- worker.Run(runCtx) }()

	logger.Info().Str("url", cfg.Url).Msg("chronicle ingestion worker started")

	select {
	case <-runCtx.Done():
		logger.Info().Msg("shutting down")
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ingestion worker: %w", err)
		}
		return nil
	}
}

func runStatus() error {
	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	latest, err := store.GetLatestCommittedSlot()
	if err != nil {
		if _, ok := err.(*types.NoResults); ok {
			fmt.Println("no committed slot yet")
			return nil
		}
		return fmt.Errorf("read latest committed slot: %w", err)
	}
	nodeCfg, err := store.GetNodeConfiguration()
	if err != nil {
		return fmt.Errorf("read node configuration: %w", err)
	}

	fmt.Printf("committed slot:   %d\n", latest.SlotIndex)
	fmt.Printf("starting index:   %d\n", nodeCfg.StartingIndex)
	if params, ok := nodeCfg.Latest(); ok {
		fmt.Printf("network:          %s\n", params.NetworkName)
	}
	outputCount, err := store.CountOutputs()
	if err != nil {
		return fmt.Errorf("count outputs: %w", err)
	}
	blockCount, err := store.CountBlocks()
	if err != nil {
		return fmt.Errorf("count blocks: %w", err)
	}
	fmt.Printf("outputs indexed:  %d\n", outputCount)
	fmt.Printf("blocks indexed:   %d\n", blockCount)
	return nil
}

func runMigrate() error {
	logger := log.WithComponent("main")

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	report, err := storage.RecoverFromCorruption(store)
	if err != nil {
		return fmt.Errorf("recover from corruption: %w", err)
	}

	logger.Info().
		Str("run_id", report.RunId).
		Uint32("cutoff", uint32(report.Cutoff)).
		Dur("duration", report.Duration).
		Msg("migration complete")
	for collection, n := range report.Removed {
		fmt.Printf("  %-24s removed %d rows\n", collection, n)
	}
	return nil
}

// watchUpstreamHealth polls the upstream node's TCP reachability on an
// interval, independent of the ingestion worker's own connection: the
// worker reconnects on a stream error, but a node that is down between
// milestones never produces one, so /health needs its own probe.
func watchUpstreamHealth(ctx context.Context, rawUrl string, status *health.Status, hcfg health.Config) {
	logger := log.WithComponent("main-health")

	u, err := url.Parse(rawUrl)
	if err != nil {
		logger.Warn().Err(err).Str("url", rawUrl).Msg("cannot parse upstream url for health checks")
		return
	}
	host := u.Host
	if u.Port() == "" {
		host = u.Host + ":80"
	}
	checker := health.NewTCPChecker(host)

	ticker := time.NewTicker(hcfg.Interval)
	defer ticker.Stop()
	for {
		result := checker.Check(ctx)
		status.Update(result, hcfg)
		metrics.UpstreamHealthy.Set(boolToFloat(status.Healthy))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type healthResponse struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

func healthHandler(status *health.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(healthResponse{Healthy: status.Healthy, Message: status.LastResult.Message})
	}
}

func readyHandler(status *health.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status.InStartPeriod(health.DefaultConfig()) || !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(healthResponse{Healthy: status.Healthy})
	}
}
