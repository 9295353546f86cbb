package buffer

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

func newTestBuffer(t *testing.T, threshold int) *FileBuffer {
	t.Helper()
	b, err := New(t.TempDir(), threshold)
	require.NoError(t, err)
	return b
}

func TestWriteStaysInMemoryBelowThreshold(t *testing.T) {
	b := newTestBuffer(t, 10)

	require.NoError(t, b.Write(models.NewMessage(models.MessageTypeSyslog, "192.0.2.1", "one")))
	require.NoError(t, b.Write(models.NewMessage(models.MessageTypeSyslog, "192.0.2.1", "two")))

	assert.Equal(t, 2, b.Pending())
	_, err := os.Stat(b.Path())
	assert.True(t, os.IsNotExist(err), "file should not exist before the threshold is reached")
}

func TestThresholdSpillsToDisk(t *testing.T) {
	b := newTestBuffer(t, 3)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Write(models.NewMessage(models.MessageTypeSyslog, "192.0.2.1", "spill")))
	}

	assert.Equal(t, 0, b.Pending())

	data, err := os.ReadFile(b.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 3)
}

func TestFlushRoundTrip(t *testing.T) {
	b := newTestBuffer(t, 100)

	msg := models.NewSyslogMessage("192.0.2.10", "link flap on ge-0/0/1", 30, "edge1", "snmpd")
	msg.Metadata["hostname"] = "edge1.example.net"
	require.NoError(t, b.Write(msg))

	messages, err := b.Flush()
	require.NoError(t, err)
	require.Len(t, messages, 1)

	got := messages[0]
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "192.0.2.10", got.SourceIP)
	assert.Equal(t, models.MessageTypeSyslog, got.Type)
	assert.Equal(t, msg.Severity, got.Severity)
	assert.Equal(t, "link flap on ge-0/0/1", got.Payload)
	assert.WithinDuration(t, msg.Timestamp, got.Timestamp, time.Second)

	// Variant fields come back flattened into metadata, with the parsed
	// hostname having won over the enrichment value.
	assert.Equal(t, "edge1", got.Metadata["hostname"])
	assert.Equal(t, "snmpd", got.Metadata["process_name"])
	assert.Nil(t, got.Syslog)

	// The file is empty afterwards and a second flush returns nothing.
	info, err := os.Stat(b.Path())
	require.NoError(t, err)
	assert.EqualValues(t, 0, info.Size())

	messages, err = b.Flush()
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestFlushOnMissingFile(t *testing.T) {
	b := newTestBuffer(t, 100)

	messages, err := b.Flush()
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestFlushSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	b, err := New(dir, 100)
	require.NoError(t, err)

	// A corrupt line and a partially-written trailing line surround one
	// valid staged message.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ActiveFileName),
		[]byte("{not json}\n"), 0644))

	msg := models.NewMessage(models.MessageTypeSNMPTrap, "192.0.2.2", "coldStart")
	require.NoError(t, b.Write(msg))

	f, err := os.OpenFile(b.Path(), os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"trunc`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	messages, err := b.Flush()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)
}

func TestConcurrentWrites(t *testing.T) {
	b := newTestBuffer(t, 7)

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = b.Write(models.NewMessage(models.MessageTypeSyslog, "192.0.2.1", "concurrent"))
			}
		}()
	}
	wg.Wait()

	messages, err := b.Flush()
	require.NoError(t, err)
	assert.Len(t, messages, writers*perWriter)
}

func TestDefaultThreshold(t *testing.T) {
	b := newTestBuffer(t, 0)
	assert.Equal(t, DefaultFlushThreshold, b.threshold)
}
