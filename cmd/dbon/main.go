// Command dbon manages DBON database files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leengari/dbon/internal/config"
	"github.com/leengari/dbon/internal/engine"
	"github.com/leengari/dbon/internal/logging"
	"github.com/leengari/dbon/internal/network"
	"github.com/leengari/dbon/internal/repl"
	"github.com/leengari/dbon/internal/storage/dbon"
	"github.com/leengari/dbon/internal/storage/manager"
	"github.com/leengari/dbon/internal/storage/writer"
	"github.com/leengari/dbon/internal/watch"
)

var (
	configPath string
	dataDir    string
	logLevel   string
	listenAddr string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog = func() {}
)

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "dbon",
	Short:             "File-persisted tabular store",
	Long:              `Create, inspect, query and serve DBON databases: single JSON files holding named tables of keyed rows.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty database in the data directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreate,
}

var dropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Delete a database from the data directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runDrop,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check that a file is a valid DBON document",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the DBON format",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell over the data directory",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the data directory over JSON-over-TCP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Open a database and reload it whenever the file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding <name>.dbon.json files (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (overrides config)")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
}

// setup resolves configuration (file, then .env and environment, then flags)
// and installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.DefaultConfig()
	}
	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if listenAddr != "" {
		cfg.Server.Addr = listenAddr
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog = logging.SetupLogger(logging.Options{
		Level:     cfg.SlogLevel(),
		AddSource: cfg.Log.AddSource,
		SeqURL:    cfg.Log.SeqURL,
	})
	slog.SetDefault(logger)
	return nil
}

func newRegistry() *manager.Registry {
	return manager.NewRegistry(cfg.DataDir, logger,
		engine.WithIndent(cfg.Storage.Indent),
		engine.WithObserver(engine.NewLoggingObserver(logger)),
	)
}

func runCreate(cmd *cobra.Command, args []string) error {
	db, err := newRegistry().Create(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database created successfully: %s\n", db.Path())
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	if err := newRegistry().Drop(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database dropped: %s\n", args[0])
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := writer.Load(args[0])
	if err != nil {
		return err
	}
	doc, err := dbon.Parse(raw)
	if err != nil {
		return err
	}
	if err := dbon.Check(doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (fingerprint %s)\n", args[0], writer.Sum(raw))
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	b, err := json.MarshalIndent(dbon.JSONSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func runREPL(cmd *cobra.Command, args []string) error {
	registry := newRegistry()
	defer func() {
		if err := registry.FlushAll(); err != nil {
			logger.Error("Unsaved changes remain", slog.Any("error", err))
		}
	}()
	return repl.Start(cmd.InOrStdin(), cmd.OutOrStdout(), registry)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	registry := newRegistry()
	err := network.Start(ctx, cfg.Server.Addr, registry)
	if flushErr := registry.FlushAll(); flushErr != nil {
		logger.Error("Unsaved changes remain", slog.Any("error", flushErr))
	}
	return err
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	db, err := engine.Open(args[0],
		engine.WithLogger(logger),
		engine.WithIndent(cfg.Storage.Indent),
		engine.WithObserver(engine.NewLoggingObserver(logger)),
	)
	if err != nil {
		return err
	}

	return watch.Watch(ctx, db.Path(), func() {
		changed, err := db.Reload()
		switch {
		case err != nil:
			logger.Warn("Rejected external edit, keeping previous state",
				slog.String("path", db.Path()),
				slog.Any("error", err),
			)
		case changed:
			logger.Info("Accepted external edit",
				slog.String("path", db.Path()),
				slog.Any("tables", db.Tables()),
			)
		}
	})
}
