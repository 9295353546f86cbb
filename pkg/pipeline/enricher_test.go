package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

type fakeResolver struct {
	mu    sync.Mutex
	names []string
	err   error
	calls int
}

func (f *fakeResolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.names, f.err
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type registryCall struct {
	ip       string
	hostname *string
	version  *string
}

type fakeRegistry struct {
	mu    sync.Mutex
	err   error
	calls []registryCall
}

func (f *fakeRegistry) UpdateDevice(ctx context.Context, ip string, hostname, snmpVersion *string, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, registryCall{ip: ip, hostname: hostname, version: snmpVersion})
	return f.err
}

func (f *fakeRegistry) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRegistry) lastCall() registryCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestEnricher(registry *fakeRegistry, resolver *fakeResolver) *Enricher {
	e := NewEnricher(registry, EnricherConfig{})
	e.SetResolver(resolver)
	return e
}

func TestEnrichSetsHostnameAndRecordsSighting(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := &fakeResolver{names: []string{"core-sw1.example.net."}}
	e := newTestEnricher(registry, resolver)

	msg := models.NewMessage(models.MessageTypeSyslog, "10.0.0.1", "link down")
	e.Enrich(context.Background(), msg)

	assert.Equal(t, "core-sw1.example.net", msg.Metadata["hostname"])

	require.Equal(t, 1, registry.callCount())
	call := registry.lastCall()
	assert.Equal(t, "10.0.0.1", call.ip)
	require.NotNil(t, call.hostname)
	assert.Equal(t, "core-sw1.example.net", *call.hostname)
	assert.Nil(t, call.version)
}

func TestEnrichWithoutPTRRecord(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := &fakeResolver{err: errors.New("no such host")}
	e := newTestEnricher(registry, resolver)

	msg := models.NewMessage(models.MessageTypeSyslog, "10.0.0.2", "link down")
	e.Enrich(context.Background(), msg)

	_, present := msg.Metadata["hostname"]
	assert.False(t, present)

	require.Equal(t, 1, registry.callCount())
	assert.Nil(t, registry.lastCall().hostname)
}

func TestEnrichRegistryFailureSkipsHostname(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("database is locked")}
	resolver := &fakeResolver{names: []string{"edge1.example.net."}}
	e := newTestEnricher(registry, resolver)

	msg := models.NewMessage(models.MessageTypeSyslog, "10.0.0.3", "link down")
	e.Enrich(context.Background(), msg)

	_, present := msg.Metadata["hostname"]
	assert.False(t, present, "hostname is only set after the registry update succeeds")
}

func TestEnrichCachesResolutions(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := &fakeResolver{names: []string{"cached.example.net."}}
	e := newTestEnricher(registry, resolver)

	for i := 0; i < 3; i++ {
		msg := models.NewMessage(models.MessageTypeSyslog, "10.0.0.4", "link down")
		e.Enrich(context.Background(), msg)
		assert.Equal(t, "cached.example.net", msg.Metadata["hostname"])
	}

	assert.Equal(t, 1, resolver.callCount())
	assert.Equal(t, 3, registry.callCount())
}

func TestEnrichCachesLookupFailures(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := &fakeResolver{err: errors.New("no such host")}
	e := newTestEnricher(registry, resolver)

	for i := 0; i < 3; i++ {
		e.Enrich(context.Background(), models.NewMessage(models.MessageTypeSyslog, "10.0.0.5", "link down"))
	}

	assert.Equal(t, 1, resolver.callCount())
}

func TestEnrichPassesTrapVersion(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := &fakeResolver{err: errors.New("no such host")}
	e := newTestEnricher(registry, resolver)

	msg := models.NewTrapMessage("10.0.0.6", "SNMP Trap from 10.0.0.6",
		"1.3.6.1.6.3.1.1.5.3", map[string]string{"1.3.6.1.2.1.2.2.1.1": "2"}, "2c")
	e.Enrich(context.Background(), msg)

	require.Equal(t, 1, registry.callCount())
	call := registry.lastCall()
	require.NotNil(t, call.version)
	assert.Equal(t, "2c", *call.version)
}

func TestEnrichSkipsEmptySourceIP(t *testing.T) {
	registry := &fakeRegistry{}
	resolver := &fakeResolver{}
	e := newTestEnricher(registry, resolver)

	e.Enrich(context.Background(), &models.Message{Metadata: map[string]any{}})

	assert.Equal(t, 0, registry.callCount())
	assert.Equal(t, 0, resolver.callCount())
}
