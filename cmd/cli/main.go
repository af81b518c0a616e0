package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/contatogonetwork/urban-space-broccoli/config"
	"github.com/contatogonetwork/urban-space-broccoli/internal/database"
	"github.com/contatogonetwork/urban-space-broccoli/internal/pricing"
	"github.com/contatogonetwork/urban-space-broccoli/internal/store"
)

var (
	cfgFile    string
	jsonOutput bool
	cfg        *config.Config
	logger     *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fridge-prices",
	Short: "Fridge price CLI - price trends and shopping plans from the terminal",
	Long: `A CLI over the household price history: per-item price trends, a
store-by-store price comparison, and shopping plans that pick the cheapest
(or preferred) store for every item on a list.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	if cfg == nil {
		return fmt.Errorf("config required for %s command but not loaded", cmd.Name())
	}
	if err := cfg.Analytics.Validate(); err != nil {
		return fmt.Errorf("invalid analytics config: %w", err)
	}

	// db-check opens its own connection.
	if cmd.Name() == "db-check" {
		return nil
	}

	if err := initDatabase(); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	logger.Debug().Msg("Database connected")
	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Logs go to stderr so stdout stays clean for results.
	noColor := cfg != nil && cfg.Logging.NoColor
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}

	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Logger = l
	return &l
}

func initDatabase() error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	ctx := context.Background()
	if err := database.Connect(
		ctx,
		cfg.Database.URL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return nil
}

// loadSnapshot reads the full price history once.
func loadSnapshot(ctx context.Context) (*pricing.Snapshot, error) {
	loader := store.NewLoader(database.Pool(), &cfg.Snapshot)
	defer loader.Close()

	snap, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return snap, nil
}

func main() {
	err := Execute()
	database.Close()
	if err != nil {
		os.Exit(1)
	}
}
