package main

import (
	"context"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/Falcon0711/zStock/internal/config"
	"github.com/Falcon0711/zStock/internal/datasource"
	"github.com/Falcon0711/zStock/internal/kv"
	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/version"
)

// chartAction loads the configuration, wires the data source and the
// key-value store and runs the TUI.
func chartAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	source, err := newDataSource(cfg, appLogger)
	if err != nil {
		return err
	}
	defer source.Close()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	appLogger.Info("starting chart TUI",
		zap.String("data_dir", cfg.DataDir),
		zap.String("format", string(cfg.Format)))

	model := NewModel(cfg, source, store, appLogger)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI failed: %w", err)
	}

	return nil
}

// resolveConfig merges the config file (when given) with flag overrides.
func resolveConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}

		cfg = loaded
	}

	if dir := cmd.String("data"); dir != "" {
		cfg.DataDir = dir
	}

	if format := cmd.String("format"); format != "" {
		cfg.Format = config.Format(format)
	}

	if store := cmd.String("store"); store != "" {
		cfg.StorePath = store
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func newDataSource(cfg config.Config, log *logger.Logger) (datasource.DataSource, error) {
	switch cfg.Format {
	case config.FormatCSV:
		return datasource.NewDuckDB(cfg.DataDir, log)
	default:
		return datasource.NewJSONDir(cfg.DataDir, cfg.Instruments, log)
	}
}

func newStore(cfg config.Config) (kv.Store, error) {
	if cfg.StorePath == "" {
		return kv.NewMemory(), nil
	}

	return kv.NewSQLite(cfg.StorePath)
}

// schemaAction prints the JSON schema of the configuration file.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schema, err := config.ToJSONSchema()
	if err != nil {
		return fmt.Errorf("failed to generate config schema: %w", err)
	}

	fmt.Fprintln(os.Stdout, schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "zstock",
		Usage:   "Interactive candlestick charts for indicator-enriched history exports",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Directory of per-instrument history exports",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("History export format (%s, %s)", config.FormatJSON, config.FormatCSV),
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "SQLite file for persisted chart preferences (in-memory when omitted)",
			},
		},
		Action: chartAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the configuration file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
