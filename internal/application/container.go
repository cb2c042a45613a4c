// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/tcrawf/zebra/internal/adapters/cache"
	zebraAdapter "github.com/tcrawf/zebra/internal/adapters/zebra"
	"github.com/tcrawf/zebra/internal/application/catalog"
	"github.com/tcrawf/zebra/internal/application/ports"
	appSync "github.com/tcrawf/zebra/internal/application/sync"
	"github.com/tcrawf/zebra/internal/application/track"
	"github.com/tcrawf/zebra/internal/infrastructure/config"
	"github.com/tcrawf/zebra/internal/infrastructure/logging"
	"github.com/tcrawf/zebra/internal/infrastructure/storage"
	"github.com/tcrawf/zebra/internal/infrastructure/timeutil"
	"github.com/tcrawf/zebra/internal/infrastructure/tracing"
)

// Data file names under the data directory.
const (
	framesFile     = "frames.json"
	timesheetsFile = "timesheets.json"
	projectsFile   = "projects.json"
	cacheFile      = "cache.db"
)

// Container holds all application dependencies and provides a central
// point for dependency injection. It manages the lifecycle of services
// and ensures proper initialization order.
type Container struct {
	// Configuration
	config  *config.Config
	verbose bool // Override log level to debug when true

	// Observability
	logger *logging.Logger
	tracer *tracing.Tracer

	// Local storage
	frameRepo       *storage.FrameRepository
	timesheetRepo   *storage.TimesheetRepository
	localProjects   *storage.LocalProjectStore
	localActivities *storage.LocalActivityStore

	// Remote reference cache
	cacheConn *cache.Connection
	refCache  *cache.ReferenceCache

	// Remote API
	zebraClient ports.ZebraClientPort

	// Application services
	tracker         *track.Tracker
	projectCatalog  *catalog.ProjectCatalog
	activityCatalog *catalog.ActivityCatalog
	refresher       *catalog.Refresher
	syncService     *appSync.Service
	syncBuilder     *appSync.Builder

	// Natural-language time parsing
	timeParser *timeutil.Parser
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, verbose bool) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}

	if err := c.initObservability(); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initStorage(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	c.initClient()
	c.initServices()

	return c, nil
}

// initObservability initializes logging and tracing.
func (c *Container) initObservability() error {
	logLevel := logging.Level(c.config.Logging.Level)
	if c.verbose {
		logLevel = logging.LevelDebug
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	logCfg := logging.Config{
		Level:  logLevel,
		Format: logFormat,
		File: logging.FileConfig{
			Enabled:    c.config.Logging.File.Enabled,
			Path:       c.config.Logging.File.Path,
			MaxSizeMB:  c.config.Logging.File.MaxSizeMB,
			MaxBackups: c.config.Logging.File.MaxBackups,
			MaxAgeDays: c.config.Logging.File.MaxAgeDays,
		},
	}
	c.logger = logging.New(logCfg)

	if c.config.Tracing.Enabled {
		tracingCfg := tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Tracing.ExporterType),
			OTLPEndpoint: c.config.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Tracing.ServiceName,
			Environment:  "production",
			SampleRate:   c.config.Tracing.SampleRate,
		}
		tracer, err := tracing.New(context.Background(), tracingCfg)
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}
		c.tracer = tracer
	} else {
		c.tracer = tracing.Default()
	}

	return nil
}

// initStorage initializes the JSON document stores and the SQLite cache.
func (c *Container) initStorage() error {
	dataDir := c.config.DataDir

	c.frameRepo = storage.NewFrameRepository(filepath.Join(dataDir, framesFile))
	c.timesheetRepo = storage.NewTimesheetRepository(filepath.Join(dataDir, timesheetsFile))
	c.localProjects, c.localActivities = storage.NewLocalStores(filepath.Join(dataDir, projectsFile))

	cachePath := ""
	if dataDir != "" {
		cachePath = filepath.Join(dataDir, cacheFile)
	}
	conn, err := cache.NewConnection(cachePath)
	if err != nil {
		return fmt.Errorf("failed to create cache connection: %w", err)
	}
	if err := conn.Open(); err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	c.cacheConn = conn
	c.refCache = cache.NewReferenceCache(conn)

	return nil
}

// initClient initializes the Zebra API client. The client is constructed
// even when no URL is configured so the wiring stays uniform; commands
// that need the API check RemoteConfigured first.
func (c *Container) initClient() {
	c.zebraClient = zebraAdapter.NewClient(zebraAdapter.Config{
		BaseURL:    c.config.Zebra.URL,
		Token:      c.config.Zebra.ResolveToken(),
		Timeout:    c.config.Zebra.Timeout,
		MaxRetries: c.config.Zebra.MaxRetries,
	}, c.logger, c.tracer)
}

// initServices initializes application services.
func (c *Container) initServices() {
	c.tracker = track.NewTracker(c.frameRepo, c.logger, c.tracer)

	c.projectCatalog = catalog.NewProjectCatalog(c.localProjects, c.refCache.ProjectStore(), c.localActivities)
	c.activityCatalog = catalog.NewActivityCatalog(c.localActivities, c.refCache.ActivityStore(), c.projectCatalog)

	c.refresher = catalog.NewRefresher(c.zebraClient, c.refCache, c.config.Zebra.UserID, c.logger, c.tracer)

	c.syncBuilder = appSync.NewBuilder(c.frameRepo, c.timesheetRepo, c.logger, c.tracer)
	c.syncService = appSync.NewService(c.timesheetRepo, c.zebraClient, c.activityCatalog, c.refCache, c.logger, c.tracer)

	c.timeParser = timeutil.NewParser()
}

// Close releases all resources held by the container.
func (c *Container) Close() error {
	if c.tracer != nil {
		_ = c.tracer.Shutdown(context.Background())
	}
	if c.cacheConn != nil {
		return c.cacheConn.Close()
	}
	return nil
}

// RemoteConfigured reports whether a Zebra API URL has been configured.
// Tracking works offline; sync and refresh commands need the remote side.
func (c *Container) RemoteConfigured() bool {
	return c.config.Zebra.URL != ""
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the OpenTelemetry tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Tracker returns the frame tracking service.
func (c *Container) Tracker() *track.Tracker {
	return c.tracker
}

// ProjectCatalog returns the combined local and remote project catalog.
func (c *Container) ProjectCatalog() *catalog.ProjectCatalog {
	return c.projectCatalog
}

// ActivityCatalog returns the combined local and remote activity catalog.
func (c *Container) ActivityCatalog() *catalog.ActivityCatalog {
	return c.activityCatalog
}

// Refresher returns the reference cache refresher.
func (c *Container) Refresher() *catalog.Refresher {
	return c.refresher
}

// SyncService returns the timesheet sync service.
func (c *Container) SyncService() *appSync.Service {
	return c.syncService
}

// SyncBuilder returns the frame-to-timesheet builder.
func (c *Container) SyncBuilder() *appSync.Builder {
	return c.syncBuilder
}

// ZebraClient returns the Zebra API client.
func (c *Container) ZebraClient() ports.ZebraClientPort {
	return c.zebraClient
}

// ReferenceCache returns the remote entity cache.
func (c *Container) ReferenceCache() *cache.ReferenceCache {
	return c.refCache
}

// TimeParser returns the natural-language time parser.
func (c *Container) TimeParser() *timeutil.Parser {
	return c.timeParser
}

// FramesPath returns the path of the frames data file, as watched by
// status --watch.
func (c *Container) FramesPath() string {
	return filepath.Join(c.config.DataDir, framesFile)
}
