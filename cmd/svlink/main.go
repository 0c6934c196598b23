package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"svlink/internal/config"
	"svlink/internal/logging"
)

var (
	// Global flags
	verbose    bool
	apiKey     string
	baseURL    string
	timeout    time.Duration
	configPath string
	exportDir  string

	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "svlink",
	Short: "svlink - batch client for the sv.link short-link service",
	Long: `svlink shortens, looks up and re-targets sv.link short links in batches.

Every command takes one entry per line, from arguments, a file (--file) or
stdin (--file -). The API key is read from --api-key or SVLINK_API_KEY and is
never written to disk.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		// The interactive program owns the terminal.
		if isInteractive(cmd) {
			logger = zap.NewNop()
			return nil
		}

		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.OutputPaths = []string{"stderr"}
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Sync()
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "sv.link API key (or set SVLINK_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Batch backend URL (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Backend timeout (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .svlink/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&exportDir, "export-dir", "", "Directory for exported files (overrides config)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(galleryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func isInteractive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

// loadConfig loads the config file and applies the global flag overrides.
func loadConfig() error {
	path := resolvedConfigPath()
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if baseURL != "" {
		loaded.API.BaseURL = baseURL
	}
	if timeout > 0 {
		loaded.API.Timeout = timeout.String()
	}
	if exportDir != "" {
		loaded.Export.Dir = exportDir
		loaded.Export.Sink = config.SinkFile
	}
	if verbose {
		loaded.Logging.DebugMode = true
		loaded.Logging.Level = "debug"
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := logging.Initialize(loaded.Logging.Options(filepath.Dir(path))); err != nil {
		return err
	}
	logging.Boot("config loaded from %s (base_url=%s, sink=%s)", path, loaded.API.BaseURL, loaded.Export.Sink)
	cfg = loaded
	return nil
}

// credential resolves the API key from the flag or the environment.
func credential() string {
	if apiKey != "" {
		return apiKey
	}
	return os.Getenv("SVLINK_API_KEY")
}

// commandContext returns a context cancelled on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
