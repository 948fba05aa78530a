package geoip

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Provider resolves IP addresses to country codes.
type Provider struct {
	db *geoip2.Reader
}

// Open opens the MMDB file at path.
func Open(path string) (*Provider, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}

	return &Provider{db: db}, nil
}

// Close releases the database.
func (p *Provider) Close() error {
	if p == nil {
		return nil
	}
	return p.db.Close()
}

// GetCountryCode returns the ISO country code of a server host such as "DE".
// Hostnames, invalid addresses and unknown networks yield "".
// A nil Provider always yields "".
func (p *Provider) GetCountryCode(host string) string {
	if p == nil {
		return ""
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}

	record, err := p.db.Country(ip)
	if err != nil {
		return ""
	}

	return record.Country.IsoCode
}
