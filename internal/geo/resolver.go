package geo

import (
	"fmt"
	"log"
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// Resolver resolves a submitter's network address to an ISO 3166-1 alpha-2
// country code. Resolution is best-effort: callers treat any failure as
// "no country", never as a blocking error.
type Resolver interface {
	CountryCode(ip string) (string, error)
}

// MaxMind resolves countries from a local MaxMind GeoIP2/GeoLite2 database.
type MaxMind struct {
	reader *geoip2.Reader
}

// OpenMaxMind opens the GeoIP database at path.
func OpenMaxMind(path string) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &MaxMind{reader: reader}, nil
}

// CountryCode looks up the country for the given IP literal.
func (m *MaxMind) CountryCode(ip string) (string, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("invalid IP address %q: %w", ip, err)
	}
	record, err := m.reader.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return "", fmt.Errorf("GeoIP lookup failed: %w", err)
	}
	if record.Country.IsoCode == "" {
		return "", fmt.Errorf("no country for IP %s", ip)
	}
	return record.Country.IsoCode, nil
}

// Close releases the underlying database.
func (m *MaxMind) Close() error {
	return m.reader.Close()
}

// Nop is used when no GeoIP database is configured; every lookup reports
// no country.
type Nop struct{}

// CountryCode always reports no country.
func (Nop) CountryCode(string) (string, error) {
	return "", nil
}

// NewResolver returns a MaxMind resolver when a database path is
// configured, otherwise a Nop resolver.
func NewResolver(geoipPath string) Resolver {
	if geoipPath == "" {
		log.Println("[GEO] GEOIP_PATH is not set, country enrichment disabled")
		return Nop{}
	}
	resolver, err := OpenMaxMind(geoipPath)
	if err != nil {
		log.Printf("[GEO] Warning: %v, country enrichment disabled", err)
		return Nop{}
	}
	log.Printf("[GEO] GeoIP database loaded from %s", geoipPath)
	return resolver
}
