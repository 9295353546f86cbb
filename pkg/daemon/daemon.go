// Package daemon wires the mutt components together and supervises their
// lifecycle: the relational store, the staging buffer, the archive manager,
// the processing pipeline, the UDP listeners and the optional operational
// surfaces.
//
// Construction and startup are separate steps. New builds and connects
// every component so configuration problems surface before any socket is
// bound; Run starts the loops and listeners in dependency order and blocks
// until the context is canceled, then shuts the pipeline down in reverse
// order with a final buffer flush.
package daemon

import (
	"context"
	"fmt"
	"sync"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/internal/telemetry"
	"github.com/mutt-telemetry/mutt/pkg/archive"
	"github.com/mutt-telemetry/mutt/pkg/buffer"
	"github.com/mutt-telemetry/mutt/pkg/config"
	"github.com/mutt-telemetry/mutt/pkg/listener/snmp"
	"github.com/mutt-telemetry/mutt/pkg/listener/syslog"
	"github.com/mutt-telemetry/mutt/pkg/metrics"
	metricsprom "github.com/mutt-telemetry/mutt/pkg/metrics/prometheus"
	"github.com/mutt-telemetry/mutt/pkg/pipeline"
	"github.com/mutt-telemetry/mutt/pkg/snmpv3"
	"github.com/mutt-telemetry/mutt/pkg/store"
)

// Daemon owns the assembled telemetry pipeline.
type Daemon struct {
	cfg *config.Config

	store     *store.Store
	buffer    *buffer.FileBuffer
	archiver  *archive.Manager
	queue     *pipeline.MessageQueue
	processor *pipeline.Processor
	credsMgr  *snmpv3.Manager

	syslogListener *syslog.Listener
	snmpListener   *snmp.Listener
	opsServer      *telemetry.OpsServer

	shutdownOnce sync.Once
}

// New builds every component from the configuration. Any failure here is a
// startup failure: nothing has been bound or spawned yet, so the caller can
// simply exit.
func New(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	d := &Daemon{cfg: cfg}

	// The registry must exist before any component builds its collectors;
	// without the ops server there is no scrape endpoint, so the registry
	// stays off and the metric constructors return nil sinks.
	if cfg.Telemetry.Ops.Enabled {
		metrics.InitRegistry()
	}

	st, err := store.New(StoreConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	st.SetMetrics(metricsprom.NewStoreMetrics())
	d.store = st

	buf, err := buffer.New(cfg.Storage.BufferDir, cfg.Storage.FlushThreshold)
	if err != nil {
		d.store.Close()
		return nil, err
	}
	d.buffer = buf

	archiver, err := archive.New(st, cfg.Storage.ArchiveDir)
	if err != nil {
		d.store.Close()
		return nil, err
	}
	archiver.SetMetrics(metricsprom.NewArchiveMetrics())
	if cfg.Archive.S3.Enabled() {
		uploader, err := newS3Uploader(ctx, &cfg.Archive.S3)
		if err != nil {
			d.store.Close()
			return nil, fmt.Errorf("failed to configure archive S3 offload: %w", err)
		}
		archiver.SetUploader(uploader)
		logger.Info("Archive S3 offload enabled", "bucket", cfg.Archive.S3.Bucket)
	}
	d.archiver = archiver

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		d.store.Close()
		return nil, err
	}

	pipelineMetrics := metricsprom.NewPipelineMetrics()

	enricher := pipeline.NewEnricher(st, pipeline.EnricherConfig{
		DNSTimeout:   cfg.DNS.Timeout,
		DNSCacheSize: cfg.DNS.CacheSize,
		DNSCacheTTL:  cfg.DNS.CacheTTL,
	})
	enricher.SetMetrics(pipelineMetrics)

	router := pipeline.NewRouter()
	router.SetMetrics(pipelineMetrics)
	registerDefaultHandlers(router, cfg.Router.DiscardEnabled)

	queue := pipeline.NewMessageQueue(cfg.QueueSize)
	queue.SetMetrics(pipelineMetrics)
	d.queue = queue

	processor, err := pipeline.NewProcessor(pipeline.Config{
		BatchInterval:   cfg.BatchInterval(),
		RetentionDays:   cfg.RetentionDays,
		ArchiveSchedule: cfg.ArchiveSchedule,
	}, pipeline.Components{
		Queue:     queue,
		Validator: pipeline.NewValidator(),
		Matcher:   pipeline.NewPatternMatcher(rules),
		Enricher:  enricher,
		Router:    router,
		Buffer:    buf,
		Store:     st,
		Archiver:  archiver,
		Metrics:   pipelineMetrics,
	})
	if err != nil {
		d.store.Close()
		return nil, err
	}
	d.processor = processor

	listenerMetrics := metricsprom.NewListenerMetrics()

	if cfg.Listeners.Syslog.Enabled {
		d.syslogListener = syslog.New(syslog.Config{
			Host: cfg.Listeners.Syslog.Host,
			Port: cfg.Listeners.Syslog.Port,
		}, queue)
		d.syslogListener.SetMetrics(listenerMetrics)
	}

	if cfg.Listeners.SNMP.Enabled {
		d.snmpListener = snmp.New(snmp.Config{
			Host:        cfg.Listeners.SNMP.Host,
			Port:        cfg.Listeners.SNMP.Port,
			Communities: cfg.Listeners.SNMP.Communities,
		}, queue)
		d.snmpListener.SetMetrics(listenerMetrics)
		d.snmpListener.SetAuthTracker(st)

		if path := cfg.Listeners.SNMP.CredentialsFile; path != "" {
			mgr := snmpv3.NewManager(path, d.reloadSNMPCredentials)
			if err := mgr.Load(); err != nil {
				d.store.Close()
				return nil, err
			}
			d.credsMgr = mgr
			d.snmpListener.SetCredentials(mgr)
		}
	}

	if cfg.Telemetry.Ops.Enabled {
		d.opsServer = telemetry.NewOpsServer(cfg.Telemetry.Ops.ListenAddr, d.ready)
	}

	return d, nil
}

// Run starts the pipeline and blocks until ctx is canceled or a component
// fails fatally. On return everything has been shut down and the store
// connection is closed. A nil return means a clean shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.processor.Start(ctx); err != nil {
		d.shutdown()
		return err
	}

	// Listeners are started with a background context so shutdown order
	// stays explicit: the processor stops and flushes first, then intake.
	if d.syslogListener != nil {
		if err := d.syslogListener.Start(context.Background()); err != nil {
			d.shutdown()
			return err
		}
	}
	if d.snmpListener != nil {
		if err := d.snmpListener.Start(context.Background()); err != nil {
			d.shutdown()
			return err
		}
	}

	if d.credsMgr != nil {
		d.credsMgr.StartWatching()
	}

	var opsErr chan error
	if d.opsServer != nil {
		opsErr = make(chan error, 1)
		go func() {
			opsErr <- d.opsServer.Start(ctx)
		}()
	}

	logger.Info("mutt daemon running",
		"syslog", d.syslogListener != nil,
		"snmp", d.snmpListener != nil,
		"metrics", metrics.IsEnabled())

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		d.shutdown()
		return nil
	case err := <-opsErr:
		// The ops server only fails on bind or serve errors; treat it
		// like any other listener failing at startup.
		d.shutdown()
		if err != nil {
			return fmt.Errorf("ops server failed: %w", err)
		}
		return nil
	}
}

// Queue exposes the message queue, mainly for tests that inject messages
// without a live socket.
func (d *Daemon) Queue() *pipeline.MessageQueue {
	return d.queue
}

// Store exposes the underlying store.
func (d *Daemon) Store() *store.Store {
	return d.store
}

// shutdown tears the daemon down in reverse dependency order: stop the
// loops (which performs the final buffer flush into the store), then the
// listeners, then the credentials watcher, and close the store last so the
// flush always has a live connection.
func (d *Daemon) shutdown() {
	d.shutdownOnce.Do(func() {
		d.processor.Stop()

		if d.syslogListener != nil {
			d.syslogListener.Stop()
		}
		if d.snmpListener != nil {
			d.snmpListener.Stop()
		}
		if d.credsMgr != nil {
			d.credsMgr.Stop()
		}

		if err := d.store.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
		logger.Info("mutt daemon stopped")
	})
}

// ready is the ops server readiness check.
func (d *Daemon) ready(ctx context.Context) error {
	return d.store.Ping(ctx)
}

// reloadSNMPCredentials restarts the trap listener after the credentials
// file changed on disk.
func (d *Daemon) reloadSNMPCredentials() {
	if d.snmpListener == nil {
		return
	}
	if err := d.snmpListener.Reload(); err != nil {
		logger.Error("Failed to restart SNMP listener after credentials reload", "error", err)
	}
}

// StoreConfig maps the daemon configuration onto the store's backend
// configuration. CLI commands that open the store directly share this
// mapping.
func StoreConfig(cfg *config.Config) *store.Config {
	sc := &store.Config{
		Type:   store.DatabaseType(cfg.Storage.Database.Type),
		SQLite: store.SQLiteConfig{Path: cfg.Storage.DBPath},
	}
	if sc.Type == store.DatabaseTypePostgres {
		pg := cfg.Storage.Database.Postgres
		sc.Postgres = store.PostgresConfig{
			Host:         pg.Host,
			Port:         pg.Port,
			Database:     pg.Database,
			User:         pg.User,
			Password:     pg.Password,
			SSLMode:      pg.SSLMode,
			MaxOpenConns: pg.MaxOpenConns,
			MaxIdleConns: pg.MaxIdleConns,
		}
	}
	return sc
}

// newS3Uploader builds the archive offload client from configuration.
func newS3Uploader(ctx context.Context, cfg *config.S3Config) (archive.Uploader, error) {
	client, err := archive.NewS3Client(ctx,
		cfg.Endpoint,
		cfg.Region,
		cfg.AccessKeyID,
		cfg.SecretAccessKey,
		cfg.ForcePathStyle,
	)
	if err != nil {
		return nil, err
	}
	return archive.NewS3Uploader(ctx, client, cfg.Bucket, cfg.KeyPrefix)
}
