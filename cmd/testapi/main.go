package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rmuit/copernica-testapi/internal/config"
	"github.com/rmuit/copernica-testapi/internal/database"
	"github.com/rmuit/copernica-testapi/internal/schema"
	"github.com/rmuit/copernica-testapi/internal/store"
	"github.com/rmuit/copernica-testapi/internal/structure"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "testapi",
	Short: "Marketing-database API test emulator",
	Long:  `A tool to validate hierarchical database descriptions and back them with a working record store.`,
}

var validateCmd = &cobra.Command{
	Use:   "validate <schema.json>",
	Short: "Validate a schema description",
	Long:  `Normalize a schema description and print the canonical database tree as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <schema.json>",
	Short: "Show assigned IDs and names",
	Long:  `Normalize a schema description and list the identity assignments per database, collection and field.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var initCmd = &cobra.Command{
	Use:   "init <schema.json>",
	Short: "Create the record tables",
	Long:  `Validate a schema description and create its profile and subprofile tables in the configured database.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
}

func loadSchema(path string) (*schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema description: %w", err)
	}
	defer f.Close()

	raw, err := structure.DecodeJSON(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode schema description: %w", err)
	}
	s, err := schema.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid schema description: %w", err)
	}
	return s, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(s.Databases(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render canonical schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	for _, db := range s.Databases() {
		fmt.Printf("database %d %q\n", db.ID, db.Name)
		for _, f := range db.Fields {
			fmt.Printf("  field %d %q (%s)\n", f.ID, f.Name, f.Type)
		}
		for _, c := range db.Collections {
			fmt.Printf("  collection %d %q\n", c.ID, c.Name)
			for _, f := range c.Fields {
				fmt.Printf("    field %d %q (%s)\n", f.ID, f.Name, f.Type)
			}
		}
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	db, dialect, err := database.Open(cfg.ConnectorConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	st := store.New(db, dialect, s, store.Options{
		CascadeRemove: cfg.CascadeRemove,
		Location:      loc,
		Logger:        logger,
	})
	if err := st.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("failed to initialize record store: %w", err)
	}

	fmt.Printf("Created record tables for %d database(s) on %s\n", len(s.Databases()), dialect.Name())
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	logConfig := zap.NewDevelopmentConfig()
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logConfig.Level = zap.NewAtomicLevelAt(parsed)
	return logConfig.Build()
}
