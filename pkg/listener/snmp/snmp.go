// Package snmp implements the SNMP trap listener for v1, v2c and v3.
//
// One gosnmp TrapListener serves all three versions. Community strings
// are validated in the trap callback for v1/v2c; v3 security runs in the
// gosnmp USM before the callback fires, so a v3 callback invocation
// implies the registered credential worked.
package snmp

import (
	"context"
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/pkg/listener"
	"github.com/mutt-telemetry/mutt/pkg/models"
	"github.com/mutt-telemetry/mutt/pkg/snmpv3"
)

const (
	// DefaultHost is the interface the listener binds to.
	DefaultHost = "0.0.0.0"

	// DefaultPort is the unprivileged trap port.
	DefaultPort = 5162

	trackerTimeout = 5 * time.Second
)

// Config configures the trap listener.
type Config struct {
	Host string
	Port int

	// Communities lists the accepted v1/v2c community strings.
	Communities []string
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if len(c.Communities) == 0 {
		c.Communities = []string{"public"}
	}
}

// Queue is the handoff into the pipeline. *pipeline.MessageQueue
// satisfies it.
type Queue interface {
	TryEnqueue(msg *models.Message) bool
}

// AuthTracker records SNMPv3 authentication outcomes. *store.Store
// satisfies it.
type AuthTracker interface {
	RecordAuthFailure(ctx context.Context, username, hostname string) error
	ClearAuthFailures(ctx context.Context, username string) (int64, error)
}

// CredentialSource serves SNMPv3 USM credentials. *snmpv3.Manager
// satisfies it.
type CredentialSource interface {
	Users() []string
	Best(username string) (snmpv3.Credential, bool)
	Rotate(username string) (snmpv3.Credential, error)
}

// Listener receives SNMP traps and enqueues them as trap messages.
type Listener struct {
	cfg         Config
	queue       Queue
	creds       CredentialSource
	tracker     AuthTracker
	metrics     listener.Metrics
	communities map[string]struct{}

	mu         sync.Mutex
	running    bool
	tl         *gosnmp.TrapListener
	listenDone chan struct{}
	stopCh     chan struct{}
	v3User     string
}

// New creates a Listener delivering into queue.
func New(cfg Config, queue Queue) *Listener {
	cfg.applyDefaults()
	communities := make(map[string]struct{}, len(cfg.Communities))
	for _, c := range cfg.Communities {
		communities[c] = struct{}{}
	}
	return &Listener{cfg: cfg, queue: queue, communities: communities}
}

// SetCredentials wires the SNMPv3 credential source. Without one the
// listener serves v1/v2c only. Call before Start.
func (l *Listener) SetCredentials(cs CredentialSource) {
	l.creds = cs
}

// SetAuthTracker wires the v3 auth failure tracker. Call before Start.
func (l *Listener) SetAuthTracker(t AuthTracker) {
	l.tracker = t
}

// SetMetrics wires ingest instrumentation. Call before Start.
func (l *Listener) SetMetrics(m listener.Metrics) {
	l.metrics = m
}

// Start binds the trap listener and blocks until it is accepting
// packets. The listener runs until Stop is called or ctx is canceled.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return fmt.Errorf("snmp listener already running")
	}
	if err := l.listenLocked(); err != nil {
		return err
	}
	l.running = true
	l.stopCh = make(chan struct{})

	go func(stopCh chan struct{}) {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-stopCh:
		}
	}(l.stopCh)

	return nil
}

// Stop shuts the listener down. Safe to call multiple times.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	l.running = false
	close(l.stopCh)
	l.closeLocked()
	logger.Info("SNMP listener stopped")
}

// Reload rebuilds the USM parameters from the credential source and
// restarts the listener in place. Called after the credentials file
// changed on disk; a no-op when the listener is not running.
func (l *Listener) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return nil
	}
	l.closeLocked()
	if err := l.listenLocked(); err != nil {
		return fmt.Errorf("restart after credentials reload: %w", err)
	}
	return nil
}

// RotateCredentials deactivates the user's current credential, advances
// to the next active one by priority, and restarts the listener so the
// USM picks up the new parameters.
func (l *Listener) RotateCredentials(username string) error {
	if l.creds == nil {
		return fmt.Errorf("no SNMPv3 credentials configured")
	}
	if _, err := l.creds.Rotate(username); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return nil
	}
	l.closeLocked()
	if err := l.listenLocked(); err != nil {
		return fmt.Errorf("restart after credential rotation: %w", err)
	}
	logger.Info("SNMP listener restarted with rotated credentials", "username", username)
	return nil
}

// listenLocked builds fresh USM parameters, starts the gosnmp listener
// and waits for it to be ready. Callers hold l.mu.
func (l *Listener) listenLocked() error {
	params, username := l.buildParams()

	tl := gosnmp.NewTrapListener()
	tl.Params = params
	tl.OnNewTrap = l.handleTrap

	addr := net.JoinHostPort(l.cfg.Host, strconv.Itoa(l.cfg.Port))
	done := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		defer close(done)
		errCh <- tl.Listen(addr)
	}()

	select {
	case <-tl.Listening():
	case err := <-errCh:
		return fmt.Errorf("bind snmp listener on %s: %w", addr, err)
	}

	l.tl = tl
	l.listenDone = done
	l.v3User = username

	if username != "" {
		logger.Info("SNMP listener started", "addr", addr, "versions", "v1/v2c/v3", "v3_user", username)
	} else {
		logger.Info("SNMP listener started", "addr", addr, "versions", "v1/v2c")
	}
	return nil
}

// closeLocked stops the gosnmp listener and waits for its goroutine.
// Callers hold l.mu.
func (l *Listener) closeLocked() {
	if l.tl == nil {
		return
	}
	l.tl.Close()
	<-l.listenDone
	l.tl = nil
}

// buildParams assembles the gosnmp parameters. With a credential source
// the highest-priority active credential of the first configured user
// goes into the USM; the USM holds a single user, so further usernames
// are logged and skipped until a rotation or reload promotes them.
func (l *Listener) buildParams() (*gosnmp.GoSNMP, string) {
	gosnmpLog := gosnmp.NewLogger(trapLogger{})

	if l.creds != nil {
		users := l.creds.Users()
		for i, username := range users {
			cred, ok := l.creds.Best(username)
			if !ok {
				logger.Warn("SNMPv3 user has no active credentials", "username", username)
				continue
			}
			if len(users) > i+1 {
				logger.Warn("USM holds a single user; additional SNMPv3 users not registered",
					"registered", username,
					"skipped", users[i+1:])
			}

			usm := cred.UsmParams(username)
			usm.AuthoritativeEngineID = string(localEngineID())

			return &gosnmp.GoSNMP{
				Port:               uint16(l.cfg.Port),
				Transport:          "udp",
				Version:            gosnmp.Version3,
				SecurityModel:      gosnmp.UserSecurityModel,
				MsgFlags:           cred.SecurityLevel(),
				SecurityParameters: usm,
				Logger:             gosnmpLog,
			}, username
		}
	}

	return &gosnmp.GoSNMP{
		Port:      uint16(l.cfg.Port),
		Transport: "udp",
		Version:   gosnmp.Version2c,
		Logger:    gosnmpLog,
	}, ""
}

// handleTrap is the gosnmp callback. It runs on the listener goroutine,
// so after cheap validation the real work moves to a per-trap goroutine.
func (l *Listener) handleTrap(pkt *gosnmp.SnmpPacket, addr *net.UDPAddr) {
	if l.metrics != nil {
		l.metrics.RecordReceived(listener.LabelSNMP)
	}

	if pkt.Version != gosnmp.Version3 {
		if _, ok := l.communities[pkt.Community]; !ok {
			logger.Debug("Dropping trap with unknown community",
				"community", pkt.Community,
				"remote", addr.String())
			if l.metrics != nil {
				l.metrics.RecordDropped(listener.LabelSNMP, listener.DropUnknownCommunity)
			}
			return
		}
	}

	go l.processTrap(pkt, addr)
}

func (l *Listener) processTrap(pkt *gosnmp.SnmpPacket, addr *net.UDPAddr) {
	msg, err := ParsePacket(pkt, addr)
	if err != nil {
		logger.Warn("Failed to parse trap", "remote", addr.String(), "error", err)
		if l.metrics != nil {
			l.metrics.RecordDropped(listener.LabelSNMP, listener.DropParseError)
		}
		return
	}

	if pkt.Version == gosnmp.Version3 {
		l.clearAuthFailures(l.usernameFromPacket(pkt))
	}

	if !l.queue.TryEnqueue(msg) {
		if l.metrics != nil {
			l.metrics.RecordDropped(listener.LabelSNMP, listener.DropQueueFull)
		}
	}
}

// usernameFromPacket extracts the USM username, falling back to the
// registered user.
func (l *Listener) usernameFromPacket(pkt *gosnmp.SnmpPacket) string {
	if usm, ok := pkt.SecurityParameters.(*gosnmp.UsmSecurityParameters); ok && usm.UserName != "" {
		return usm.UserName
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.v3User
}

// clearAuthFailures resets the failure count after a successful v3
// decode.
func (l *Listener) clearAuthFailures(username string) {
	if l.tracker == nil || username == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), trackerTimeout)
	defer cancel()

	cleared, err := l.tracker.ClearAuthFailures(ctx, username)
	if err != nil {
		logger.Warn("Failed to clear auth failures", "username", username, "error", err)
		return
	}
	if cleared > 0 {
		logger.Info("Cleared SNMPv3 auth failures after successful trap", "username", username)
	}
}

// localEngineID derives a stable engine ID from the hostname: the
// enterprise-format prefix followed by an fnv-128 digest.
func localEngineID() []byte {
	name, err := os.Hostname()
	if err != nil || name == "" {
		name = "mutt"
	}
	h := fnv.New128()
	h.Write([]byte(name))
	return h.Sum([]byte{0x80, 0xff, 0xff, 0xff, 0xff})
}

// trapLogger routes gosnmp's internal logging to debug level.
type trapLogger struct{}

func (trapLogger) Print(v ...any) {
	logger.Debug(fmt.Sprint(v...))
}

func (trapLogger) Printf(format string, v ...any) {
	logger.Debug(fmt.Sprintf(format, v...))
}
