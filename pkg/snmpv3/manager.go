package snmpv3

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mutt-telemetry/mutt/internal/logger"
)

// credentialsPollInterval is the interval at which the credentials file is
// polled for changes.
const credentialsPollInterval = 60 * time.Second

// Manager owns the live credential sets. It loads them from the YAML file,
// answers lookups from the trap listener, rotates users onto their
// next-priority credential, and hot-reloads the file when it changes on disk.
//
// It polls the file modification time rather than using fsnotify because
// credential files are commonly replaced atomically via rename, which some
// watch backends report unreliably.
//
// All methods are safe for concurrent use.
type Manager struct {
	path     string
	onReload func()

	mu      sync.RWMutex
	sets    map[string]*CredentialSet
	lastMod time.Time
	stopCh  chan struct{}
}

// NewManager creates a manager for the given credentials file (not yet
// loaded). onReload is invoked after every successful hot-reload; it may be
// nil.
func NewManager(path string, onReload func()) *Manager {
	return &Manager{
		path:     path,
		onReload: onReload,
		sets:     make(map[string]*CredentialSet),
		stopCh:   make(chan struct{}),
	}
}

// Load reads the credentials file. A missing file leaves the manager empty
// and is not an error; invalid content is.
func (m *Manager) Load() error {
	sets, err := LoadCredentials(m.path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = sets
	if info, err := os.Stat(m.path); err == nil {
		m.lastMod = info.ModTime()
	}
	return nil
}

// StartWatching begins polling the credentials file for changes.
// Safe to call on a manager with no configured path; it then does nothing.
func (m *Manager) StartWatching() {
	if m.path == "" {
		return
	}
	go m.pollLoop()
	logger.Info("SNMPv3 credentials hot-reload started",
		"path", m.path,
		"poll_interval", credentialsPollInterval.String(),
	)
}

// Stop stops the polling goroutine. Safe to call multiple times or on a
// manager that was never started.
func (m *Manager) Stop() {
	select {
	case <-m.stopCh:
	default:
		close(m.stopCh)
	}
}

func (m *Manager) pollLoop() {
	ticker := time.NewTicker(credentialsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.checkAndReload()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) checkAndReload() {
	m.mu.RLock()
	last := m.lastMod
	m.mu.RUnlock()

	info, err := os.Stat(m.path)
	if err != nil {
		logger.Error("SNMPv3 credentials file stat failed", "path", m.path, "error", err)
		return
	}
	if info.ModTime().Equal(last) {
		return
	}

	sets, err := LoadCredentials(m.path)
	if err != nil {
		// Keep serving the previous credentials.
		logger.Error("SNMPv3 credentials reload failed", "path", m.path, "error", err)
		return
	}

	m.mu.Lock()
	m.sets = sets
	m.lastMod = info.ModTime()
	m.mu.Unlock()

	logger.Info("SNMPv3 credentials reloaded", "path", m.path, "users", len(sets))
	if m.onReload != nil {
		m.onReload()
	}
}

// Users returns the configured usernames in sorted order.
func (m *Manager) Users() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.sets))
	for u := range m.sets {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Get returns the credential set for a username.
func (m *Manager) Get(username string) (*CredentialSet, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[username]
	return set, ok
}

// Active returns the active credentials for a username sorted by priority.
func (m *Manager) Active(username string) []Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[username]
	if !ok {
		return nil
	}
	return set.ActiveCredentials()
}

// Best returns the highest-priority active credential for a username.
func (m *Manager) Best(username string) (Credential, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set, ok := m.sets[username]
	if !ok {
		return Credential{}, false
	}
	return set.Best()
}

// Rotate deactivates the current best credential for the user and returns
// the next active one by priority. The change is in-memory only; the file on
// disk is the operator's record and is not rewritten.
func (m *Manager) Rotate(username string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.sets[username]
	if !ok {
		return Credential{}, fmt.Errorf("no credentials configured for user %q", username)
	}
	active := set.ActiveCredentials()
	if len(active) == 0 {
		return Credential{}, fmt.Errorf("user %q has no active credentials", username)
	}
	if len(active) < 2 {
		return Credential{}, fmt.Errorf("user %q has no alternate credential to rotate to", username)
	}

	current := active[0]
	for i := range set.Credentials {
		c := &set.Credentials[i]
		if c.Active && c.Priority == current.Priority && c.AuthPassword == current.AuthPassword && c.PrivPassword == current.PrivPassword {
			c.Active = false
			break
		}
	}

	next := active[1]
	logger.Info("Rotated SNMPv3 credentials",
		"username", username,
		"from_priority", current.Priority,
		"to_priority", next.Priority,
	)
	return next, nil
}
