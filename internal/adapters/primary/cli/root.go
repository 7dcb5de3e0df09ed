// Package cli provides command-line interface implementation
// for the PRD manager.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"prd-manager/internal/adapters/secondary/report"
	"prd-manager/internal/adapters/secondary/seed"
	"prd-manager/internal/domain/entities"
	"prd-manager/internal/domain/ports"
	"prd-manager/internal/domain/services"
)

const (
	// annotationMutates marks commands whose changes are written back to
	// the snapshot file
	annotationMutates = "prdctl/mutates"
	// annotationNoSnapshot marks commands that never touch PRD data
	annotationNoSnapshot = "prdctl/no-snapshot"
)

// StoreOpener creates a snapshot store for a data file
type StoreOpener func(path string, backupCount int) (ports.SnapshotStore, error)

// Dependencies holds everything the CLI is wired with
type Dependencies struct {
	Manager   *services.PRDManager
	ConfigMgr ports.ConfigManager
	Store     ports.SnapshotStore
	OpenStore StoreOpener
	Seeder    *seed.Loader
	Renderer  *report.Renderer
	Logger    *slog.Logger
	// LogLevel is shared with every logger handed out by the container;
	// --verbose lowers it to debug.
	LogLevel  *slog.LevelVar
}

// CLI represents the command-line interface
type CLI struct {
	RootCmd   *cobra.Command // Exported for version setting
	manager   *services.PRDManager
	configMgr ports.ConfigManager
	store     ports.SnapshotStore
	openStore StoreOpener
	seeder    *seed.Loader
	renderer  *report.Renderer
	logger    *slog.Logger
	logLevel  *slog.LevelVar
	config    *entities.Config

	outputFormat string
	verbose      bool
	dataFile     string
	reported     bool
}

// NewCLI creates a new CLI instance
func NewCLI(deps Dependencies) *CLI {
	cli := &CLI{
		manager:   deps.Manager,
		configMgr: deps.ConfigMgr,
		store:     deps.Store,
		openStore: deps.OpenStore,
		seeder:    deps.Seeder,
		renderer:  deps.Renderer,
		logger:    deps.Logger,
		logLevel:  deps.LogLevel,
	}

	cli.setupRootCommand()
	cli.setupCommands()

	return cli
}

// setupRootCommand configures the root command
func (c *CLI) setupRootCommand() {
	c.RootCmd = &cobra.Command{
		Use:   "prdctl",
		Short: "prdctl - Product Requirements Document manager",
		Long: `prdctl manages a collection of Product Requirements Documents (PRDs):
create them, move them through the workflow, tag and search them, and
produce analytics, dashboards and reports.

The collection lives in memory. Point --data (or storage.data_file) at a
JSON file to load it before each command and save it after changes.`,
		Version:            "0.1.0",
		PersistentPreRunE:  c.preRun,
		PersistentPostRunE: c.postRun,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}

	c.RootCmd.PersistentFlags().StringVarP(&c.outputFormat, "output", "o", "",
		"Output format (table, json, plain)")
	c.RootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false,
		"Verbose output for debugging")
	c.RootCmd.PersistentFlags().StringVarP(&c.dataFile, "data", "d", "",
		"PRD snapshot file (overrides storage.data_file)")
}

// setupCommands adds all subcommands to root
func (c *CLI) setupCommands() {
	c.RootCmd.AddCommand(
		c.createCreateCommand(),
		c.createListCommand(),
		c.createShowCommand(),
		c.createStatusCommand(),
		c.createProgressCommand(),
		c.createPriorityCommand(),
		c.createTagCommand(),
		c.createEditCommand(),
		c.createSearchCommand(),
		c.createAttentionCommand(),
		c.createStatsCommand(),
		c.createReportCommand(),
		c.createDashboardCommand(),
		c.createExportCommand(),
		c.createImportCommand(),
		c.createSeedCommand(),
		c.createDemoCommand(),
		c.createConfigCommand(),
	)
}

// Execute runs the CLI. Errors not already reported by a command are
// written to stderr.
func (c *CLI) Execute() error {
	return c.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI with ctx available to every command
func (c *CLI) ExecuteContext(ctx context.Context) error {
	cmd, err := c.RootCmd.ExecuteContextC(ctx)
	if err != nil && !c.reported {
		_ = c.formatterFor(cmd, cmd.ErrOrStderr()).FormatError(err)
	}
	return err
}

func (c *CLI) preRun(cmd *cobra.Command, _ []string) error {
	config, err := c.configMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	c.config = config

	if c.outputFormat == "" {
		c.outputFormat = config.CLI.OutputFormat
	}

	if c.verbose && c.logLevel != nil {
		c.logLevel.Set(slog.LevelDebug)
	}

	if hasAnnotation(cmd, annotationNoSnapshot) {
		return nil
	}
	if err := c.loadSnapshot(cmd); err != nil {
		return c.handleError(cmd, NewSnapshotError("load", err))
	}
	if hasAnnotation(cmd, annotationMutates) {
		if err := c.checkSnapshotWritable(cmd); err != nil {
			return c.handleError(cmd, NewSnapshotError("write", err))
		}
	}
	return nil
}

func (c *CLI) postRun(cmd *cobra.Command, _ []string) error {
	if !hasAnnotation(cmd, annotationMutates) {
		return nil
	}
	if err := c.saveSnapshot(cmd); err != nil {
		return c.handleError(cmd, NewSnapshotError("save", err))
	}
	return nil
}

// loadSnapshot imports the data file into the manager when one is configured
func (c *CLI) loadSnapshot(cmd *cobra.Command) error {
	store, err := c.snapshotStore()
	if err != nil || store == nil {
		return err
	}

	data, found, err := store.Load(c.getContext(cmd))
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if !found {
		return nil
	}

	if err := c.manager.ImportFromJSON(data); err != nil {
		return fmt.Errorf("failed to load %s: %w", store.Location(), err)
	}

	c.logger.Debug("snapshot loaded",
		slog.String("path", store.Location()),
		slog.Int("prds", c.manager.Count()))
	return nil
}

// checkSnapshotWritable fails before a mutating command runs when its
// changes could not be saved afterwards
func (c *CLI) checkSnapshotWritable(cmd *cobra.Command) error {
	store, err := c.snapshotStore()
	if err != nil || store == nil {
		return err
	}
	return store.HealthCheck(c.getContext(cmd))
}

// saveSnapshot exports the manager to the data file when one is configured
func (c *CLI) saveSnapshot(cmd *cobra.Command) error {
	store, err := c.snapshotStore()
	if err != nil || store == nil {
		return err
	}

	data, err := c.manager.ExportToJSON()
	if err != nil {
		return err
	}

	if err := store.Save(c.getContext(cmd), data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	c.logger.Debug("snapshot saved",
		slog.String("path", store.Location()),
		slog.Int("prds", c.manager.Count()))
	return nil
}

// snapshotStore returns the configured store, opening one for the data file
// on first use. A nil store means the session is purely in memory.
func (c *CLI) snapshotStore() (ports.SnapshotStore, error) {
	if c.store != nil {
		return c.store, nil
	}

	path := c.dataFile
	backups := 0
	if c.config != nil {
		if path == "" {
			path = c.config.Storage.DataFile
		}
		backups = c.config.Storage.BackupCount
	}
	if path == "" || c.openStore == nil {
		return nil, nil
	}

	store, err := c.openStore(path, backups)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	c.store = store
	return store, nil
}

func hasAnnotation(cmd *cobra.Command, key string) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations[key] == "true" {
			return true
		}
	}
	return false
}

// getOutputFormatter returns the appropriate formatter based on output format
func (c *CLI) getOutputFormatter(cmd *cobra.Command) OutputFormatter {
	return c.formatterFor(cmd, cmd.OutOrStdout())
}

func (c *CLI) formatterFor(cmd *cobra.Command, writer io.Writer) OutputFormatter {
	format := c.outputFormat

	// Check if format was overridden in command
	if f, _ := cmd.Flags().GetString("output"); f != "" {
		format = f
	}

	switch strings.ToLower(format) {
	case "json":
		return NewJSONFormatter(writer, true)
	case "plain":
		return NewPlainFormatter(writer)
	default:
		return NewTableFormatter(writer, c.palette(writer))
	}
}

func (c *CLI) palette(w io.Writer) *Palette {
	scheme := "auto"
	if c.config != nil {
		scheme = c.config.CLI.ColorScheme
	}
	return NewPalette(w, scheme)
}

// handleError formats and displays an error
func (c *CLI) handleError(cmd *cobra.Command, err error) error {
	formatter := c.formatterFor(cmd, cmd.ErrOrStderr())
	_ = formatter.FormatError(err)
	c.reported = true
	return err
}

// getContext returns a context for command execution
func (c *CLI) getContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// recentLimit returns the configured number of dashboard rows
func (c *CLI) recentLimit() int {
	if c.config == nil || c.config.CLI.RecentLimit <= 0 {
		return entities.DefaultConfig().CLI.RecentLimit
	}
	return c.config.CLI.RecentLimit
}
