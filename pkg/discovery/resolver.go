package discovery

import (
	"context"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// DefaultBrowseTimeout is the default timeout for browse operations.
const DefaultBrowseTimeout = 10 * time.Second

// Registrar is a discovered registration service.
type Registrar struct {
	Instance string
	HostName string
	Port     int

	// IPs holds the IPv4 addresses first, then IPv6.
	IPs []net.IP

	TXT RegistrarTXT
}

// Addr returns the UDP address of the registration proxy, or nil without
// an address.
func (r *Registrar) Addr() *net.UDPAddr {
	if len(r.IPs) == 0 {
		return nil
	}
	return &net.UDPAddr{IP: r.IPs[0], Port: r.Port}
}

// MDNSResolver is the interface for mDNS service resolution.
// This allows for dependency injection in tests.
type MDNSResolver interface {
	// Browse browses for services of the given type.
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// zeroconfResolver is the production implementation using grandcat/zeroconf.
type zeroconfResolver struct {
	resolver *zeroconf.Resolver
}

func newZeroconfResolver() (*zeroconfResolver, error) {
	r, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}
	return &zeroconfResolver{resolver: r}, nil
}

func (z *zeroconfResolver) Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error {
	return z.resolver.Browse(ctx, service, domain, entries)
}

// ResolverConfig holds configuration for the Resolver.
type ResolverConfig struct {
	// MDNSResolver is the underlying mDNS resolver implementation.
	// If nil, the default zeroconf resolver is used.
	MDNSResolver MDNSResolver

	// BrowseTimeout is the timeout for browse operations.
	// If zero, DefaultBrowseTimeout is used.
	BrowseTimeout time.Duration

	LoggerFactory logging.LoggerFactory
}

// Resolver discovers registration services via DNS-SD.
type Resolver struct {
	config   ResolverConfig
	resolver MDNSResolver
	log      logging.LeveledLogger
}

// NewResolver creates a new Resolver with the given configuration.
func NewResolver(config ResolverConfig) (*Resolver, error) {
	resolver := config.MDNSResolver
	if resolver == nil {
		zr, err := newZeroconfResolver()
		if err != nil {
			return nil, err
		}
		resolver = zr
	}

	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultBrowseTimeout
	}

	r := &Resolver{
		config:   config,
		resolver: resolver,
	}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("discovery")
	}
	return r, nil
}

// Browse discovers registration services. The returned channel is closed
// when ctx is done or the browse timeout expires. Entries with malformed
// TXT content are skipped.
func (r *Resolver) Browse(ctx context.Context) <-chan Registrar {
	results := make(chan Registrar)
	// The underlying resolver owns the entries channel; it is never closed here.
	entries := make(chan *zeroconf.ServiceEntry, 8)

	var cancel context.CancelFunc
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, r.config.BrowseTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	go func() {
		if err := r.resolver.Browse(ctx, ServiceWSC, DefaultDomain, entries); err != nil && r.log != nil && ctx.Err() == nil {
			r.log.Warnf("browse %s: %v", ServiceWSC, err)
		}
	}()

	go func() {
		defer close(results)
		defer cancel()

		for {
			var entry *zeroconf.ServiceEntry
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				entry = e
			case <-ctx.Done():
				return
			}

			reg, err := entryToRegistrar(entry)
			if err != nil {
				if r.log != nil {
					r.log.Debugf("skipping %q: %v", entry.Instance, err)
				}
				continue
			}
			select {
			case results <- reg:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}

// Collect browses until the timeout and returns every registrar found.
func (r *Resolver) Collect(ctx context.Context) []Registrar {
	var out []Registrar
	for reg := range r.Browse(ctx) {
		out = append(out, reg)
	}
	return out
}

func entryToRegistrar(entry *zeroconf.ServiceEntry) (Registrar, error) {
	txt, err := ParseRegistrarTXT(entry.Text)
	if err != nil {
		return Registrar{}, err
	}
	ips := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	ips = append(ips, entry.AddrIPv4...)
	ips = append(ips, entry.AddrIPv6...)
	return Registrar{
		Instance: entry.Instance,
		HostName: entry.HostName,
		Port:     entry.Port,
		IPs:      ips,
		TXT:      *txt,
	}, nil
}
