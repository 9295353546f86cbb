package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/internal/telemetry"
	"github.com/mutt-telemetry/mutt/pkg/buffer"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

const (
	// DefaultBatchInterval is the pause between buffer flushes.
	DefaultBatchInterval = 2 * time.Second

	// DefaultRetentionDays is how long messages stay in the store before
	// the archive job moves them out.
	DefaultRetentionDays = 30

	// DefaultArchiveSchedule runs the archive job once a day.
	DefaultArchiveSchedule = "@every 24h"

	finalFlushTimeout = 30 * time.Second
)

// MessageStore persists processed messages. *store.Store satisfies it.
type MessageStore interface {
	StoreMessage(ctx context.Context, msg *models.Message) error
}

// Archiver moves aged messages out of the store. *archive.Manager
// satisfies it.
type Archiver interface {
	ArchiveOld(ctx context.Context, retentionDays int) (int, error)
}

// Config tunes the processor's loops.
type Config struct {
	// BatchInterval is the pause between buffer flushes. Zero means
	// DefaultBatchInterval.
	BatchInterval time.Duration

	// RetentionDays is the message age that triggers archiving. Zero
	// means DefaultRetentionDays.
	RetentionDays int

	// ArchiveSchedule is a cron expression for the archive job. Empty
	// means DefaultArchiveSchedule.
	ArchiveSchedule string
}

func (c *Config) applyDefaults() {
	if c.BatchInterval <= 0 {
		c.BatchInterval = DefaultBatchInterval
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = DefaultRetentionDays
	}
	if c.ArchiveSchedule == "" {
		c.ArchiveSchedule = DefaultArchiveSchedule
	}
}

// Components bundles the pipeline stages the processor drives.
type Components struct {
	Queue     *MessageQueue
	Validator *Validator
	Matcher   *PatternMatcher
	Enricher  *Enricher
	Router    *Router
	Buffer    *buffer.FileBuffer
	Store     MessageStore

	// Archiver is optional; without one the archive schedule is skipped.
	Archiver Archiver

	// Metrics is optional.
	Metrics Metrics
}

// Processor owns the message pipeline: it drains the queue through
// validation, matching, enrichment and routing into the file buffer, and
// periodically flushes the buffer into the store. An optional cron
// schedule archives aged rows.
type Processor struct {
	cfg Config

	queue     *MessageQueue
	validator *Validator
	matcher   *PatternMatcher
	enricher  *Enricher
	router    *Router
	buffer    *buffer.FileBuffer
	store     MessageStore
	archiver  Archiver
	metrics   Metrics

	cron    *cron.Cron
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewProcessor wires a Processor from its components. Queue, Validator,
// Matcher, Enricher, Router, Buffer and Store are required.
func NewProcessor(cfg Config, c Components) (*Processor, error) {
	switch {
	case c.Queue == nil:
		return nil, fmt.Errorf("processor requires a queue")
	case c.Validator == nil:
		return nil, fmt.Errorf("processor requires a validator")
	case c.Matcher == nil:
		return nil, fmt.Errorf("processor requires a matcher")
	case c.Enricher == nil:
		return nil, fmt.Errorf("processor requires an enricher")
	case c.Router == nil:
		return nil, fmt.Errorf("processor requires a router")
	case c.Buffer == nil:
		return nil, fmt.Errorf("processor requires a buffer")
	case c.Store == nil:
		return nil, fmt.Errorf("processor requires a store")
	}

	cfg.applyDefaults()

	return &Processor{
		cfg:       cfg,
		queue:     c.Queue,
		validator: c.Validator,
		matcher:   c.Matcher,
		enricher:  c.Enricher,
		router:    c.Router,
		buffer:    c.Buffer,
		store:     c.Store,
		archiver:  c.Archiver,
		metrics:   c.Metrics,
	}, nil
}

// Router returns the processor's router for handler registration.
func (p *Processor) Router() *Router {
	return p.router
}

// Start launches the processing and batch write loops and, when an
// archiver is present, schedules the archive job. The loops run until
// Stop is called; ctx only bounds startup.
func (p *Processor) Start(ctx context.Context) error {
	if p.started {
		return fmt.Errorf("processor already started")
	}

	runCtx, cancel := context.WithCancel(context.Background())

	if p.archiver != nil {
		c := cron.New()
		_, err := c.AddFunc(p.cfg.ArchiveSchedule, p.runArchive)
		if err != nil {
			cancel()
			return fmt.Errorf("invalid archive schedule %q: %w", p.cfg.ArchiveSchedule, err)
		}
		c.Start()
		p.cron = c
	}

	p.cancel = cancel
	p.done = make(chan struct{}, 2)
	go p.processLoop(runCtx)
	go p.batchWriteLoop(runCtx)
	p.started = true

	logger.Info("Message processor started",
		"batch_interval", p.cfg.BatchInterval.String(),
		"retention_days", p.cfg.RetentionDays,
		"archive_schedule", p.cfg.ArchiveSchedule)
	return nil
}

// Stop halts the loops, waits for in-flight work, and flushes whatever
// the buffer still holds so nothing is lost across a restart. Safe to
// call once after a successful Start.
func (p *Processor) Stop() {
	if !p.started {
		return
	}
	p.started = false

	if p.cron != nil {
		<-p.cron.Stop().Done()
	}

	p.cancel()
	<-p.done
	<-p.done

	p.finalFlush()
	logger.Info("Message processor stopped")
}

// processLoop drains the queue through the pipeline stages.
func (p *Processor) processLoop(ctx context.Context) {
	defer func() { p.done <- struct{}{} }()
	logger.Info("Message processing loop started")

	for {
		msg, err := p.queue.Dequeue(ctx)
		if err != nil {
			logger.Info("Message processing loop stopped")
			return
		}
		p.processMessage(ctx, msg)
	}
}

// processMessage runs one message through validate, match, enrich and
// route, then stages it in the buffer. Invalid messages are dropped with
// a warning; routing can veto persistence via a DISCARD rule.
func (p *Processor) processMessage(ctx context.Context, msg *models.Message) {
	ctx, span := telemetry.StartPipelineSpan(ctx, "process", msg.ID, string(msg.Type),
		telemetry.SourceIP(msg.SourceIP))
	defer span.End()

	if !p.validator.Validate(msg) {
		logger.Warn("Message validation failed",
			"id", msg.ID,
			"source_ip", msg.SourceIP,
			"errors", msg.Metadata["validation_errors"])
		if p.metrics != nil {
			p.metrics.RecordValidationFailure()
		}
		return
	}

	matched := p.matcher.Match(msg)
	if p.metrics != nil {
		for _, rule := range matched {
			p.metrics.RecordRuleMatch(rule.ID)
		}
	}

	p.enricher.Enrich(ctx, msg)

	if p.router.Route(ctx, msg, matched) {
		logger.Debug("Message discarded by rule action", "id", msg.ID)
		return
	}

	if err := p.buffer.Write(msg); err != nil {
		telemetry.RecordError(ctx, err)
		logger.Error("Failed to buffer message", "id", msg.ID, "error", err)
		return
	}

	if p.metrics != nil {
		p.metrics.RecordProcessed(string(msg.Type))
	}
	logger.Debug("Processed message", "id", msg.ID, "type", string(msg.Type))
}

// batchWriteLoop periodically moves buffered messages into the store.
func (p *Processor) batchWriteLoop(ctx context.Context) {
	defer func() { p.done <- struct{}{} }()
	logger.Info("Batch write loop started", "interval", p.cfg.BatchInterval.String())

	ticker := time.NewTicker(p.cfg.BatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Batch write loop stopped")
			return
		case <-ticker.C:
			p.flushBuffer(ctx)
		}
	}
}

// flushBuffer drains the buffer and stores every message it returns. A
// row that fails to store is logged and skipped; the rest of the batch
// still goes through.
func (p *Processor) flushBuffer(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanPipelineFlush)
	defer span.End()

	messages, err := p.buffer.Flush()
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Error("Failed to flush buffer", "error", err)
		return
	}
	if len(messages) == 0 {
		return
	}

	stored := 0
	for _, msg := range messages {
		if err := p.store.StoreMessage(ctx, msg); err != nil {
			telemetry.RecordError(ctx, err)
			logger.Error("Failed to store message", "id", msg.ID, "error", err)
			continue
		}
		stored++
	}
	span.SetAttributes(telemetry.BatchSize(len(messages)), telemetry.RowCount(stored))

	if p.metrics != nil {
		p.metrics.RecordBatchFlush(stored)
	}
	logger.Info("Batch write completed", "stored", stored, "flushed", len(messages))
}

// finalFlush persists buffered messages during shutdown under its own
// deadline, since the run context is already canceled.
func (p *Processor) finalFlush() {
	logger.Info("Performing final flush before shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	p.flushBuffer(ctx)
}

// runArchive executes one archive pass from the cron schedule.
func (p *Processor) runArchive() {
	ctx, span := telemetry.StartArchiveSpan(context.Background(),
		telemetry.RetentionDays(p.cfg.RetentionDays))
	defer span.End()

	count, err := p.archiver.ArchiveOld(ctx, p.cfg.RetentionDays)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.Error("Archive run failed", "error", err)
		return
	}
	span.SetAttributes(telemetry.RowCount(count))
	if count > 0 {
		logger.Info("Archive run completed", "archived", count)
	}
}
