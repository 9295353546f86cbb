// Package archive moves aged telemetry messages out of the relational
// store into dated JSONL files and records each file in the archives index
// table. An optional uploader mirrors finished archives to object storage.
package archive

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

// Store is the slice of the message store the archiver needs.
type Store interface {
	// MessagesOlderThan returns rows older than cutoff, oldest first.
	MessagesOlderThan(ctx context.Context, cutoff time.Time) ([]models.StoredMessage, error)

	// CommitArchive deletes the archived rows and records the archive file
	// in a single transaction.
	CommitArchive(ctx context.Context, cutoff time.Time, rec *models.ArchiveRecord) error
}

// Uploader mirrors a finished archive file to remote storage.
type Uploader interface {
	Upload(ctx context.Context, localPath, filename string) error
}

// Metrics receives archiver counters.
type Metrics interface {
	RecordRun(success bool)
	RecordArchived(count int)
}

// Manager archives messages older than the retention window.
type Manager struct {
	store    Store
	dir      string
	uploader Uploader
	metrics  Metrics
}

// New creates an archive manager writing to dir, creating it if needed.
func New(st Store, dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Manager{store: st, dir: dir}, nil
}

// SetUploader attaches an optional remote uploader. Upload failures are
// logged but never fail an archive run; the local file stays authoritative.
func (m *Manager) SetUploader(u Uploader) {
	m.uploader = u
}

// SetMetrics attaches a metrics sink.
func (m *Manager) SetMetrics(mt Metrics) {
	m.metrics = mt
}

// Dir returns the archive directory.
func (m *Manager) Dir() string {
	return m.dir
}

// archiveLine is the JSONL form of one archived row.
type archiveLine struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	SourceIP  string         `json:"source_ip"`
	Type      string         `json:"type"`
	Severity  string         `json:"severity"`
	Payload   string         `json:"payload"`
	Metadata  map[string]any `json:"metadata"`
}

// ArchiveOld writes every message older than retentionDays to a dated
// archive file, then removes the rows and records the file in the archives
// table in one transaction. It returns the number of archived messages.
//
// If the commit fails the file stays on disk and the rows stay in the
// store; the next run rewrites them under a fresh filename.
func (m *Manager) ArchiveOld(ctx context.Context, retentionDays int) (int, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	rows, err := m.store.MessagesOlderThan(ctx, cutoff)
	if err != nil {
		m.recordRun(false)
		return 0, fmt.Errorf("failed to select messages for archival: %w", err)
	}
	if len(rows) == 0 {
		logger.Debug("No messages beyond retention", "cutoff", cutoff)
		m.recordRun(true)
		return 0, nil
	}

	filename := fmt.Sprintf("archive_%s.jsonl", time.Now().UTC().Format("20060102_150405"))
	path := filepath.Join(m.dir, filename)

	if err := writeArchiveFile(path, rows); err != nil {
		m.recordRun(false)
		return 0, fmt.Errorf("failed to write archive file %s: %w", filename, err)
	}

	rec := &models.ArchiveRecord{
		Filename:    filename,
		StartDate:   rows[0].Timestamp,
		EndDate:     rows[len(rows)-1].Timestamp,
		RecordCount: len(rows),
	}
	if err := m.store.CommitArchive(ctx, cutoff, rec); err != nil {
		m.recordRun(false)
		return 0, fmt.Errorf("failed to commit archive %s: %w", filename, err)
	}

	logger.Info("Archived messages",
		"count", len(rows),
		"file", filename,
		"start", rec.StartDate,
		"end", rec.EndDate,
	)
	m.recordRun(true)
	m.recordArchived(len(rows))

	if m.uploader != nil {
		if err := m.uploader.Upload(ctx, path, filename); err != nil {
			logger.Error("Failed to upload archive", "file", filename, "error", err)
		}
	}

	return len(rows), nil
}

// writeArchiveFile writes the rows as JSONL and syncs the file before
// returning, so the data is durable before the store rows are deleted.
func writeArchiveFile(path string, rows []models.StoredMessage) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for _, row := range rows {
		metadata, err := row.DecodeMetadata()
		if err != nil {
			logger.Warn("Archiving row with unreadable metadata", "id", row.ID, "error", err)
			metadata = map[string]any{}
		}
		line, err := json.Marshal(archiveLine{
			ID:        row.ID,
			Timestamp: row.Timestamp,
			SourceIP:  row.SourceIP,
			Type:      row.Type,
			Severity:  row.Severity,
			Payload:   row.Payload,
			Metadata:  metadata,
		})
		if err != nil {
			f.Close()
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (m *Manager) recordRun(success bool) {
	if m.metrics != nil {
		m.metrics.RecordRun(success)
	}
}

func (m *Manager) recordArchived(count int) {
	if m.metrics != nil {
		m.metrics.RecordArchived(count)
	}
}
