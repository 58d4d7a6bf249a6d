package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/hourly-hadith/hadith-inspect/config"
	"github.com/hourly-hadith/hadith-inspect/inspector"
	"github.com/hourly-hadith/hadith-inspect/metrics"
	"github.com/hourly-hadith/hadith-inspect/store"
	"github.com/spf13/cobra"
)

// inspectOptions holds the flag values shared by the root, inspect and watch commands
type inspectOptions struct {
	envFile     string
	apiKey      string
	baseURL     string
	number      int
	timeout     time.Duration
	recordDir   string
	metricsFile string
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	opts := &inspectOptions{}
	var fromFile string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Fetch one hadith and print the shape of the response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromFile != "" {
				return replayRecording(cmd, opts, fromFile)
			}
			return runInspect(cmd, opts)
		},
	}
	addInspectFlags(cmd, opts)
	cmd.Flags().StringVar(&fromFile, "from-file", "", "Inspect a recorded response body instead of calling the API")

	return cmd
}

func addInspectFlags(cmd *cobra.Command, opts *inspectOptions) {
	cmd.Flags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "Env file to read settings from")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "API key (overrides HADITH_API_KEY)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "Hadith endpoint (overrides HADITH_API_URL)")
	cmd.Flags().IntVar(&opts.number, "number", 0, "Fetch this hadith number instead of a random one")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout, 0 for none (overrides HADITH_TIMEOUT)")
	cmd.Flags().StringVar(&opts.recordDir, "record", "", "Directory to save the raw response body in (overrides HADITH_RECORD_DIR)")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics here after each run")
}

// loadConfig merges .env, environment and explicitly set flags
func loadConfig(cmd *cobra.Command, opts *inspectOptions) (*config.Config, error) {
	cfg, err := config.LoadFrom(opts.envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = opts.apiKey
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = opts.baseURL
	}
	if flags.Changed("number") {
		cfg.HadithNumber = opts.number
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("record") {
		cfg.RecordDir = opts.recordDir
	}
	return cfg, nil
}

// newInspector builds an inspector with the optional recorder and metrics attached
func newInspector(cmd *cobra.Command, cfg *config.Config, collector *metrics.Metrics) *inspector.Inspector {
	insp := inspector.New(cfg, cmd.OutOrStdout())
	if cfg.RecordDir != "" {
		insp.SetRecorder(store.NewFileStore(cfg.RecordDir))
		log.Debugf("Recording responses to %s", cfg.RecordDir)
	}
	if collector != nil {
		insp.SetObserver(collector)
	}
	return insp
}

func newCollector(opts *inspectOptions) *metrics.Metrics {
	if opts.metricsFile == "" {
		return nil
	}
	return metrics.New()
}

// writeMetrics flushes the collector; failures are logged and never fail the run
func writeMetrics(opts *inspectOptions, collector *metrics.Metrics) {
	if collector == nil {
		return
	}
	if err := collector.WriteTextfile(opts.metricsFile); err != nil {
		log.Warnf("%v", err)
		return
	}
	log.Debugf("Wrote metrics to %s", opts.metricsFile)
}

func runInspect(cmd *cobra.Command, opts *inspectOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Debugf("Inspecting %s (hadith number %d, timeout %s)", cfg.BaseURL, cfg.HadithNumber, cfg.Timeout)

	collector := newCollector(opts)
	newInspector(cmd, cfg, collector).Run(cmd.Context())
	writeMetrics(opts, collector)
	return nil
}

// replayRecording inspects a saved body as if the API had answered 200 OK
func replayRecording(cmd *cobra.Command, opts *inspectOptions, path string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	recordings := store.NewFileStore(filepath.Dir(path))
	body, err := recordings.Load(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}
	log.Debugf("Replaying %d bytes from %s", len(body), path)

	fmt.Fprintf(cmd.OutOrStdout(), "Replaying recorded response: %s\n", path)
	collector := newCollector(opts)
	insp := inspector.New(cfg, cmd.OutOrStdout())
	if collector != nil {
		insp.SetObserver(collector)
	}
	insp.InspectBody(http.StatusOK, body)
	writeMetrics(opts, collector)
	return nil
}
