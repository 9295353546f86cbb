// Package buffer stages telemetry messages in an append-only JSONL file
// between the processing pipeline and the relational store.
//
// Messages accumulate in memory and are appended to the file in one write
// once the flush threshold is reached, keeping per-message I/O off the hot
// path. Flush drains both the in-memory lines and the file, so everything
// staged since the last batch write reaches the store together.
package buffer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

// DefaultFlushThreshold is the number of buffered lines that triggers an
// append to the active buffer file.
const DefaultFlushThreshold = 100

// ActiveFileName is the staging file kept inside the buffer directory.
const ActiveFileName = "buffer_active.jsonl"

// bufferedLine is the JSONL wire form of a staged message.
type bufferedLine struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	SourceIP    string         `json:"source_ip"`
	MessageType string         `json:"message_type"`
	Severity    string         `json:"severity"`
	Payload     string         `json:"payload"`
	Metadata    map[string]any `json:"metadata"`
}

// FileBuffer stages messages in memory and spills them to a JSONL file.
// All methods are safe for concurrent use.
type FileBuffer struct {
	mu        sync.Mutex
	path      string
	threshold int
	pending   []string
}

// New creates a FileBuffer rooted at dir, creating the directory if
// needed. A threshold of zero or less falls back to DefaultFlushThreshold.
func New(dir string, threshold int) (*FileBuffer, error) {
	if threshold <= 0 {
		threshold = DefaultFlushThreshold
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create buffer directory: %w", err)
	}
	return &FileBuffer{
		path:      filepath.Join(dir, ActiveFileName),
		threshold: threshold,
	}, nil
}

// Path returns the location of the active buffer file.
func (b *FileBuffer) Path() string {
	return b.path
}

// Write stages one message. When the in-memory buffer reaches the flush
// threshold all pending lines are appended to the active file in a single
// write and synced to disk.
func (b *FileBuffer) Write(msg *models.Message) error {
	line, err := json.Marshal(bufferedLine{
		ID:          msg.ID,
		Timestamp:   msg.Timestamp,
		SourceIP:    msg.SourceIP,
		MessageType: string(msg.Type),
		Severity:    msg.Severity.String(),
		Payload:     msg.Payload,
		Metadata:    msg.MergedMetadata(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode message %s: %w", msg.ID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, string(line))
	if len(b.pending) >= b.threshold {
		return b.spillLocked()
	}
	return nil
}

// Pending returns the number of staged lines not yet written to disk.
func (b *FileBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Flush forces pending lines to disk, then drains the active file: every
// line is parsed back into a Message, malformed lines are skipped with a
// warning, and the file is truncated. The parsed messages are returned in
// file order.
func (b *FileBuffer) Flush() ([]*models.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.spillLocked(); err != nil {
		return nil, err
	}

	f, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open buffer file: %w", err)
	}

	var messages []*models.Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := decodeLine(line)
		if err != nil {
			logger.Warn("Skipping malformed buffer line", "error", err)
			continue
		}
		messages = append(messages, msg)
	}
	scanErr := scanner.Err()
	if cerr := f.Close(); cerr != nil && scanErr == nil {
		scanErr = cerr
	}
	if scanErr != nil {
		return nil, fmt.Errorf("failed to read buffer file: %w", scanErr)
	}

	if err := os.Truncate(b.path, 0); err != nil {
		return nil, fmt.Errorf("failed to truncate buffer file: %w", err)
	}

	return messages, nil
}

// spillLocked appends all pending lines to the active file and syncs it.
// Callers must hold b.mu.
func (b *FileBuffer) spillLocked() error {
	if len(b.pending) == 0 {
		return nil
	}

	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open buffer file: %w", err)
	}

	var buf []byte
	for _, line := range b.pending {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	if _, err := f.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to append to buffer file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync buffer file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close buffer file: %w", err)
	}

	b.pending = b.pending[:0]
	return nil
}

// decodeLine reconstructs a staged message. Variant-specific fields stay
// flattened in the metadata map, exactly as they were persisted.
func decodeLine(line []byte) (*models.Message, error) {
	var entry bufferedLine
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, err
	}
	if entry.ID == "" {
		return nil, fmt.Errorf("buffer line missing id")
	}

	severity, _ := models.ParseSeverity(entry.Severity)
	metadata := entry.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &models.Message{
		ID:        entry.ID,
		Timestamp: entry.Timestamp,
		SourceIP:  entry.SourceIP,
		Type:      models.ParseMessageType(entry.MessageType),
		Severity:  severity,
		Payload:   entry.Payload,
		Metadata:  metadata,
	}, nil
}
