// Package di provides dependency injection container for the PRD manager
package di

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"prd-manager/internal/adapters/primary/cli"
	"prd-manager/internal/adapters/secondary/config"
	"prd-manager/internal/adapters/secondary/report"
	"prd-manager/internal/adapters/secondary/seed"
	"prd-manager/internal/adapters/secondary/storage"
	"prd-manager/internal/domain/entities"
	"prd-manager/internal/domain/ports"
	"prd-manager/internal/domain/services"
)

// Container holds all application dependencies
type Container struct {
	Config        *entities.Config
	ConfigManager ports.ConfigManager
	Logger        *slog.Logger
	LogLevel      *slog.LevelVar
	TraceID       string
	Manager       *services.PRDManager
	Store         ports.SnapshotStore
	Seeder        *seed.Loader
	Renderer      *report.Renderer
	CLI           *cli.CLI

	logOutput io.Writer
	logFile   *os.File
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer() (*Container, error) {
	container := &Container{logOutput: os.Stderr}

	container.initLogger()

	if err := container.initConfig(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	container.initServices()
	container.initCLI()

	return container, nil
}

// NewTestContainer creates a container with a fixed configuration and the
// given config manager, logging to logOutput.
func NewTestContainer(cfg *entities.Config, configManager ports.ConfigManager, logOutput io.Writer) (*Container, error) {
	container := &Container{
		Config:        cfg,
		ConfigManager: configManager,
		logOutput:     logOutput,
	}

	container.initLogger()

	if err := container.reconfigureLogger(); err != nil {
		return nil, err
	}

	container.initServices()
	container.initCLI()

	return container, nil
}

// initLogger sets up the bootstrap logger used until configuration is loaded
func (c *Container) initLogger() {
	c.TraceID = uuid.New().String()
	c.LogLevel = new(slog.LevelVar)
	c.LogLevel.Set(slog.LevelWarn)
	c.Logger = slog.New(slog.NewTextHandler(c.logOutput, &slog.HandlerOptions{
		Level: c.LogLevel,
	})).With(slog.String("trace_id", c.TraceID))
}

// initConfig initializes configuration management
func (c *Container) initConfig() error {
	configManager, err := config.NewViperConfigManager(c.Logger)
	if err != nil {
		return err
	}
	c.ConfigManager = configManager

	cfg, err := configManager.Load()
	if err != nil {
		return err
	}
	c.Config = cfg

	return c.reconfigureLogger()
}

// reconfigureLogger updates logger based on configuration
func (c *Container) reconfigureLogger() error {
	level := slog.LevelWarn
	switch c.Config.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}

	c.LogLevel.Set(level)
	opts := &slog.HandlerOptions{Level: c.LogLevel}

	output := c.logOutput
	if c.Config.Logging.File != "" {
		file, err := c.openLogFile()
		if err != nil {
			return err
		}
		output = file
	}

	var handler slog.Handler
	if c.Config.Logging.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	c.Logger = slog.New(handler).With(slog.String("trace_id", c.TraceID))
	return nil
}

func (c *Container) openLogFile() (*os.File, error) {
	if c.logFile != nil {
		_ = c.logFile.Close()
	}

	file, err := os.OpenFile(c.Config.Logging.File,
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	c.logFile = file
	return file, nil
}

// initServices creates the PRD manager and the adapters built around it
func (c *Container) initServices() {
	c.Manager = services.NewPRDManager(c.Logger)
	c.Seeder = seed.NewLoader(c.Logger)
	c.Renderer = report.NewRenderer()

	c.Logger.Debug("prd manager initialized")
}

// OpenStore opens the snapshot file store for path and remembers it for
// health checks
func (c *Container) OpenStore(path string, backupCount int) (ports.SnapshotStore, error) {
	store, err := storage.NewSnapshotFileStore(storage.FileStoreConfig{
		Path:        path,
		BackupCount: backupCount,
		Logger:      c.Logger,
	})
	if err != nil {
		return nil, err
	}

	c.Store = store
	c.Logger.Debug("snapshot store opened", slog.String("path", store.Location()))
	return store, nil
}

// initCLI initializes the CLI
func (c *Container) initCLI() {
	c.CLI = cli.NewCLI(cli.Dependencies{
		Manager:   c.Manager,
		ConfigMgr: c.ConfigManager,
		OpenStore: c.OpenStore,
		Seeder:    c.Seeder,
		Renderer:  c.Renderer,
		Logger:    c.Logger,
		LogLevel:  c.LogLevel,
	})
}

// HealthCheck validates the configuration and, once a command has opened
// it, the snapshot store. Commands that mutate data check the store
// themselves before running.
func (c *Container) HealthCheck(ctx context.Context) error {
	if err := c.ConfigManager.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if store := c.Store; store != nil {
		if err := store.HealthCheck(ctx); err != nil {
			return fmt.Errorf("storage health check failed: %w", err)
		}
	}

	c.Logger.Debug("health check passed")
	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(_ context.Context) error {
	c.Logger.Debug("shutting down application")

	var errs []error

	if closer, ok := c.Store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}

	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
		}
		c.logFile = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	return nil
}

// Close gracefully closes the container and all its resources
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Shutdown(ctx)
}
