package pipeline

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mutt-telemetry/mutt/internal/logger"
	"github.com/mutt-telemetry/mutt/internal/telemetry"
	"github.com/mutt-telemetry/mutt/pkg/models"
)

const (
	// DefaultDNSTimeout bounds a single reverse lookup.
	DefaultDNSTimeout = 2 * time.Second

	// DefaultDNSCacheSize is the number of resolved IPs kept in memory.
	DefaultDNSCacheSize = 1000

	// DefaultDNSCacheTTL is how long a cached resolution stays valid.
	DefaultDNSCacheTTL = 5 * time.Minute
)

// DeviceRegistry records sightings of sending devices. *store.Store
// satisfies it.
type DeviceRegistry interface {
	UpdateDevice(ctx context.Context, ip string, hostname, snmpVersion *string, lastSeen time.Time) error
}

// Resolver performs reverse DNS lookups. *net.Resolver satisfies it.
type Resolver interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// EnricherConfig tunes the enricher's reverse DNS behavior.
type EnricherConfig struct {
	// DNSTimeout bounds each lookup. Zero means DefaultDNSTimeout.
	DNSTimeout time.Duration

	// DNSCacheSize caps the resolution cache. Zero means
	// DefaultDNSCacheSize, negative disables caching.
	DNSCacheSize int

	// DNSCacheTTL expires cached resolutions. Zero means
	// DefaultDNSCacheTTL.
	DNSCacheTTL time.Duration
}

// Enricher augments validated messages with a reverse-resolved hostname
// and keeps the device registry current. Lookup failures are expected,
// most devices have no PTR record, so they are cached alongside
// successes and never fail the message.
type Enricher struct {
	registry DeviceRegistry
	resolver Resolver
	timeout  time.Duration
	cache    *expirable.LRU[string, string]
	metrics  Metrics
}

// NewEnricher returns an Enricher backed by registry and the default
// system resolver.
func NewEnricher(registry DeviceRegistry, cfg EnricherConfig) *Enricher {
	timeout := cfg.DNSTimeout
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}
	ttl := cfg.DNSCacheTTL
	if ttl <= 0 {
		ttl = DefaultDNSCacheTTL
	}

	var cache *expirable.LRU[string, string]
	if cfg.DNSCacheSize >= 0 {
		size := cfg.DNSCacheSize
		if size == 0 {
			size = DefaultDNSCacheSize
		}
		cache = expirable.NewLRU[string, string](size, nil, ttl)
	}

	return &Enricher{
		registry: registry,
		resolver: net.DefaultResolver,
		timeout:  timeout,
		cache:    cache,
	}
}

// SetResolver replaces the DNS resolver.
func (e *Enricher) SetResolver(r Resolver) {
	e.resolver = r
}

// SetMetrics wires enrichment instrumentation.
func (e *Enricher) SetMetrics(m Metrics) {
	e.metrics = m
}

// Enrich resolves the sender's hostname, records the sighting in the
// device registry, and on success stores the hostname in the message
// metadata. Enrichment is best effort: a registry failure is logged and
// the message continues through the pipeline untouched.
func (e *Enricher) Enrich(ctx context.Context, msg *models.Message) {
	if msg.SourceIP == "" {
		return
	}

	lookupCtx, span := telemetry.StartEnrichSpan(ctx, "dns_lookup", telemetry.SourceIP(msg.SourceIP))
	hostname := e.lookupHostname(lookupCtx, msg.SourceIP)
	if hostname != "" {
		span.SetAttributes(telemetry.SourceHostname(hostname))
	}
	span.End()

	var hostnamePtr *string
	if hostname != "" {
		hostnamePtr = &hostname
	}
	var versionPtr *string
	if msg.Trap != nil && msg.Trap.Version != "" {
		version := msg.Trap.Version
		versionPtr = &version
	}

	if err := e.registry.UpdateDevice(ctx, msg.SourceIP, hostnamePtr, versionPtr, time.Now().UTC()); err != nil {
		logger.Warn("Failed to update device registry", "source_ip", msg.SourceIP, "error", err)
		return
	}

	if hostname != "" {
		msg.Metadata["hostname"] = hostname
	}
}

// lookupHostname resolves ip via the cache or a bounded reverse lookup.
// An empty result means no hostname is known; failures are cached too so
// a chatty unresolvable device does not hammer the resolver.
func (e *Enricher) lookupHostname(ctx context.Context, ip string) string {
	if e.cache != nil {
		if hostname, ok := e.cache.Get(ip); ok {
			e.recordDNS("cache_hit")
			return hostname
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	names, err := e.resolver.LookupAddr(lookupCtx, ip)
	if err != nil || len(names) == 0 {
		logger.Debug("Reverse DNS lookup failed", "ip", ip, "error", err)
		if e.cache != nil {
			e.cache.Add(ip, "")
		}
		e.recordDNS("miss")
		return ""
	}

	hostname := strings.TrimSuffix(names[0], ".")
	if e.cache != nil {
		e.cache.Add(ip, hostname)
	}
	e.recordDNS("resolved")
	return hostname
}

func (e *Enricher) recordDNS(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordDNSLookup(outcome)
	}
}
