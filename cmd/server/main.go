package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/gridreview/internal/auditstore"
	"github.com/JonMunkholm/gridreview/internal/config"
	"github.com/JonMunkholm/gridreview/internal/core"
	"github.com/JonMunkholm/gridreview/internal/dataset"
	"github.com/JonMunkholm/gridreview/internal/grid"
	"github.com/JonMunkholm/gridreview/internal/logging"
	"github.com/JonMunkholm/gridreview/internal/schema"
	"github.com/JonMunkholm/gridreview/internal/telemetry"
	"github.com/JonMunkholm/gridreview/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"data_file", cfg.Grid.DataFile,
		"audit_persistence", cfg.Database.Enabled(),
		"metrics_enabled", cfg.Telemetry.MetricsEnabled,
	)

	ctx := context.Background()

	// Column schema
	sch, err := loadSchema(cfg.Grid.SchemaFile)
	if err != nil {
		slog.Error("failed to load schema", "error", err)
		os.Exit(1)
	}
	rowIDField := sch.RowIDField
	if cfg.Grid.RowIDField != "" {
		rowIDField = cfg.Grid.RowIDField
	}

	// Dataset
	fields := dataset.FieldsFor(sch.Columns)
	if rowIDField != "" && !containsFold(fields, rowIDField) {
		fields = append(fields, rowIDField)
	}
	records, err := dataset.Load(cfg.Grid.DataFile, dataset.Options{Fields: fields, MaxRows: cfg.Grid.MaxRows})
	if err != nil {
		slog.Error("failed to load dataset", "file", cfg.Grid.DataFile, "error", err)
		os.Exit(1)
	}

	listeners := []grid.Listener{core.NewEventLogger(slog.Default())}
	var serverOpts []web.Option

	// Resources released on every exit path after this point
	res := &resources{}
	fatal := func(msg string, args ...any) {
		slog.Error(msg, args...)
		releaseCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		res.release(releaseCtx)
		cancel()
		os.Exit(1)
	}

	// Audit persistence
	if cfg.Database.Enabled() {
		pool, err := connectDatabase(ctx, cfg.Database)
		if err != nil {
			fatal("failed to connect to database", "error", err)
		}
		res.pool = pool

		store := auditstore.New(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			fatal("failed to prepare audit table", "error", err)
		}
		auditListener := auditstore.NewListener(store, slog.Default(), cfg.Database.AuditQueue)
		res.audit = auditListener
		listeners = append(listeners, auditListener)
		serverOpts = append(serverOpts, web.WithAuditArchive(store))
	}

	// Metrics
	if cfg.Telemetry.MetricsEnabled {
		providers, err := telemetry.NewProviders(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPInsecure)
		if err != nil {
			fatal("failed to set up metrics", "error", err)
		}
		res.shutdowns = append(res.shutdowns, providers.Shutdown)
		providers.SetGlobal()

		recorder, err := telemetry.NewRecorder(providers.MeterProvider, cfg.Telemetry.MeterName)
		if err != nil {
			fatal("failed to create metric instruments", "error", err)
		}
		listeners = append(listeners, recorder)
	}

	// Create service
	service, err := core.NewService(records, sch.Columns, core.Options{
		RowIDField:     rowIDField,
		PublishInitial: cfg.Grid.PublishInitial,
		EventBuffer:    cfg.Grid.EventBuffer,
		MaxWatchers:    cfg.Grid.MaxWatchers,
		DefaultActor:   cfg.Grid.DefaultActor,
		Listeners:      listeners,
	})
	if err != nil {
		fatal("failed to create service", "error", err)
	}

	// Create server with config
	server := web.NewServer(service, cfg, serverOpts...)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		res.release(shutdownCtx)
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("server stopped", "error", err)
	}
	<-stopped
	slog.Info("server stopped")
}

// loadSchema reads the schema file, or returns the built-in lab results
// schema when path is empty.
func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		slog.Info("no schema file configured, using built-in lab results schema")
		return schema.LabResults.Build()
	}
	sch, err := schema.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("schema loaded", "file", path, "columns", len(sch.Columns))
	return sch, nil
}

// connectDatabase opens and verifies the audit connection pool.
func connectDatabase(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(dbCfg.MaxConns)
	poolConfig.MinConns = int32(dbCfg.MinConns)
	poolConfig.MaxConnLifetime = dbCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(dbCfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
