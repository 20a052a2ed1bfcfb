// Package domains normalizes federation domains and computes apex roots
package domains

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Normalize lowercases a hostname and converts unicode labels to punycode.
// Invalid input falls back to the lowercased trimmed original so callers
// always get a stable key for the same wire value
func Normalize(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimSuffix(h, ".")
	if h == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(h); err == nil {
		return ascii
	}
	return h
}

// Apex returns the registrable root of host, e.g. example.com for a.b.example.com.
// Hosts that are themselves a public suffix or unparseable return their
// normalized form so rate limiting still groups them deterministically
func Apex(host string) string {
	h := Normalize(host)
	if h == "" {
		return ""
	}
	if apex, err := publicsuffix.EffectiveTLDPlusOne(h); err == nil {
		return apex
	}
	return h
}

// HostOf extracts the normalized host from a URL string, or empty on garbage
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return Normalize(u.Hostname())
}

// SameOrigin reports whether two URL strings share a scheme-independent host.
// Used to refuse vanity profile URLs pointing at a different server
func SameOrigin(a, b string) bool {
	ha, hb := HostOf(a), HostOf(b)
	return ha != "" && ha == hb
}

// AllowedScheme reports whether a URI uses a scheme accepted for actor ids
func AllowedScheme(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}
