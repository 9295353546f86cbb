// Package syslog implements the RFC 3164 UDP syslog listener.
package syslog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/listener"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

const (
	// DefaultHost is the interface the listener binds to.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the unprivileged syslog port.
	DefaultPort = 5514

	// defaultPriority is user-level notice, assigned to datagrams whose
	// header does not parse.
	defaultPriority = 13

	maxDatagramSize = 64 * 1024
	readTimeout     = 1 * time.Second
)

// headerRegex matches the RFC 3164 shape <PRI>TIMESTAMP HOSTNAME TAG: MSG.
// (?s) lets the payload span newlines.
var headerRegex = regexp.MustCompile(`(?s)^<(\d+)>(\w{3}\s+\d+\s+\d+:\d+:\d+)\s+([\w.-]+)\s+([^:]+):\s*(.*)`)

// tagRegex splits a TAG of the form name[pid].
var tagRegex = regexp.MustCompile(`^(.+)\[(\w+)\]$`)

// Config configures the listener's bind address.
type Config struct {
	Host string
	Port int
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
}

// Queue is the handoff into the pipeline. *pipeline.MessageQueue
// satisfies it.
type Queue interface {
	TryEnqueue(msg *models.Message) bool
}

// Listener receives RFC 3164 datagrams over UDP and enqueues them as
// syslog messages. Datagrams that fail header parsing still produce a
// message with defaults; the only way a datagram is lost is a full queue.
type Listener struct {
	cfg     Config
	queue   Queue
	metrics listener.Metrics

	mu      sync.Mutex
	conn    *net.UDPConn
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a Listener delivering into queue.
func New(cfg Config, queue Queue) *Listener {
	cfg.applyDefaults()
	return &Listener{cfg: cfg, queue: queue}
}

// SetMetrics wires ingest instrumentation. Call before Start.
func (l *Listener) SetMetrics(m listener.Metrics) {
	l.metrics = m
}

// Addr returns the bound UDP address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Start binds the UDP socket and launches the read loop. The loop runs
// until Stop is called or ctx is canceled.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("syslog listener already running")
	}

	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(l.cfg.Host, strconv.Itoa(l.cfg.Port)))
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("resolve syslog listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("bind syslog listener: %w", err)
	}

	l.conn = conn
	l.running = true
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})
	l.mu.Unlock()

	go l.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-l.stopCh:
		}
	}()

	logger.Info("Syslog listener started", "addr", conn.LocalAddr().String())
	return nil
}

// Stop closes the socket and waits for the read loop to exit. Safe to
// call multiple times.
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopCh)
	l.conn.Close()
	doneCh := l.doneCh
	l.mu.Unlock()

	<-doneCh
	logger.Info("Syslog listener stopped")
}

func (l *Listener) readLoop() {
	defer close(l.doneCh)

	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-l.stopCh:
			return
		default:
		}

		// Deadline keeps the loop responsive to Stop even with no traffic.
		l.conn.SetReadDeadline(time.Now().Add(readTimeout))

		n, remoteAddr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("Syslog read error", "error", err)
			continue
		}
		if n == 0 {
			continue
		}

		l.handleDatagram(buf[:n], remoteAddr.IP.String())
	}
}

func (l *Listener) handleDatagram(data []byte, sourceIP string) {
	if l.metrics != nil {
		l.metrics.RecordReceived(listener.LabelSyslog)
	}

	text := strings.TrimSpace(strings.ToValidUTF8(string(data), "�"))
	msg := Parse(text, sourceIP)

	if !l.queue.TryEnqueue(msg) {
		if l.metrics != nil {
			l.metrics.RecordDropped(listener.LabelSyslog, listener.DropQueueFull)
		}
	}
}

// Parse converts one datagram's text into a syslog message. A well-formed
// header yields priority-derived facility and severity plus the hostname
// and tag; anything else falls back to the whole text as payload with
// priority 13, severity INFO and unknown hostname and process. Parsing
// never fails.
func Parse(text, sourceIP string) *models.Message {
	m := headerRegex.FindStringSubmatch(text)
	if m == nil {
		msg := models.NewSyslogMessage(sourceIP, text, defaultPriority, "unknown", "unknown")
		msg.Severity = models.SeverityInfo
		return msg
	}

	priority, err := strconv.Atoi(m[1])
	if err != nil || priority < 0 || priority > 191 {
		msg := models.NewSyslogMessage(sourceIP, text, defaultPriority, "unknown", "unknown")
		msg.Severity = models.SeverityInfo
		return msg
	}

	hostname := m[3]
	tag := strings.TrimSpace(m[4])
	payload := m[5]

	processName := tag
	processID := ""
	if tm := tagRegex.FindStringSubmatch(tag); tm != nil {
		processName = tm[1]
		processID = tm[2]
	}

	msg := models.NewSyslogMessage(sourceIP, payload, priority, hostname, processName)
	msg.Syslog.ProcessID = processID
	return msg
}
