package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/coolbeans/gazette/internal/config"
	"github.com/coolbeans/gazette/internal/logging"
	"github.com/coolbeans/gazette/pkg/library"
	"github.com/coolbeans/gazette/pkg/metrics"
	"github.com/coolbeans/gazette/pkg/pipeline"
	"github.com/coolbeans/gazette/pkg/state"
)

var version = "0.1.0"

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	failureColor = color.New(color.FgRed)
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gazette",
		Short: "Gazette change tracker",
		Long: `Gazette reads structured government gazettes and turns them into
reviewable structural change transactions.

It maintains:
  - An archive of gazette documents awaiting review
  - Versioned ministry/department and person/portfolio state
  - CSV exports of every committed transaction`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./"+config.DefaultFileName+" when present)")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(commitCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		failureColor.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// environment is what every command needs once the config is resolved.
type environment struct {
	config    config.Config
	logger    *slog.Logger
	processor *pipeline.Processor
	store     *state.Store
}

func (env *environment) Close() error {
	return env.store.Close()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	return config.Load(configPath)
}

// openEnvironment loads the config, opens the library and the state store
// and wires a processor. registerer receives the pipeline metrics; nil
// leaves the processor without metrics.
func openEnvironment(cmd *cobra.Command, registerer prometheus.Registerer) (*environment, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}

	lib, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return nil, fmt.Errorf("library not found at %s (run 'gazette init' first): %w", cfg.LibraryPath, err)
	}
	store, err := state.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	var pipelineMetrics *metrics.Metrics
	if registerer != nil {
		pipelineMetrics = metrics.New(registerer)
	}

	processor := pipeline.New(lib, store, pipeline.Options{
		OutputDir:           cfg.OutputDir,
		GovernmentName:      cfg.GovernmentName,
		SimilarityThreshold: cfg.Similarity.Threshold,
		Logger:              logger,
		Metrics:             pipelineMetrics,
	})
	return &environment{config: cfg, logger: logger, processor: processor, store: store}, nil
}

func printJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func readJSONFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a gazette library and config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			if configPath == "" {
				configPath = config.DefaultFileName
			}
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := config.WriteDefault(configPath); err != nil {
					return err
				}
				fmt.Printf("Config written to: %s\n", configPath)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			lib, err := library.OpenOrInit(cfg.LibraryPath)
			if err != nil {
				return fmt.Errorf("failed to initialize library: %w", err)
			}
			store, err := state.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			successColor.Printf("Library initialized at: %s\n", lib.Path())
			fmt.Printf("State database: %s\n", cfg.DatabasePath)
			fmt.Println("\nNext steps:")
			fmt.Println("  gazette add path/to/2289-43_2022-07-22.json")
			fmt.Println("  gazette commit initial 2289-43")
			return nil
		},
	}
	return cmd
}
