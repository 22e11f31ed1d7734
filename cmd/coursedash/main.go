package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"coursedash/cmd/coursedash/ui"
	"coursedash/internal/config"
	"coursedash/internal/generator"
	"coursedash/internal/logging"
	"coursedash/internal/session"
)

var (
	// Global flags
	verbose    bool
	configPath string
	envFile    string
	seedFlag   uint64
	modeFlag   string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
	styles = ui.DefaultStyles()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "coursedash",
	Short: "coursedash - enrollment and revenue reports for training programs",
	Long: `coursedash generates a synthetic table of course editions (programs,
start months, enrollment, acquisition channel, region, payment mix and
placements) and reports students, estimated revenue and their breakdowns
for a chosen year and set of filters.

Run "coursedash shell" for an interactive session with edits and notes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed = seedFlag
		}
		if cmd.Flags().Changed("mode") {
			cfg.Generator.Mode = generator.Mode(modeFlag)
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}

		logger, err = logging.Initialize(cfg.Logging.ToLogging())
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.Debug("configuration loaded",
			zap.String("path", configPath),
			zap.Uint64("seed", cfg.Seed),
			zap.String("mode", string(cfg.Generator.Mode)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before environment overrides")
	rootCmd.PersistentFlags().Uint64Var(&seedFlag, "seed", 0, "Random seed (overrides config and COURSEDASH_SEED)")
	rootCmd.PersistentFlags().StringVar(&modeFlag, "mode", "", "Generator mode: fixed or randomized")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(shellCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newSession starts a session from the loaded configuration.
func newSession() (*session.Session, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sess, err := session.New(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("session ready", zap.String("id", sess.ID()), zap.Int("editions", len(sess.Rows())))
	return sess, nil
}
