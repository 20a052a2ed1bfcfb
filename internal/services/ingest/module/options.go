package module

import (
	"time"

	"herald/internal/platform/config"
)

// Options holds configuration settings for the ingest module
type Options struct {
	SubdomainLimit        int
	DiscoveriesPerRequest int
	DiscoveryWindow       time.Duration
	LockTimeout           time.Duration
	LockTTL               time.Duration

	HoldNewAccounts bool
	PermitDomains   []string

	MaxFields   int
	RejectWords []string

	// remote fetch client
	UserAgent     string
	FetchTimeout  time.Duration
	FetchMaxBytes int64

	// instance software cache
	SoftwareTTL time.Duration
}

// FromConfig reads INGEST_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	ic := cfg.Prefix("INGEST_")
	return Options{
		SubdomainLimit:        ic.MayInt("SUBDOMAIN_LIMIT", 10),
		DiscoveriesPerRequest: ic.MayInt("DISCOVERIES_PER_REQUEST", 400),
		DiscoveryWindow:       ic.MayDuration("DISCOVERY_WINDOW", 5*time.Minute),
		LockTimeout:           ic.MayDuration("LOCK_TIMEOUT", 30*time.Second),
		LockTTL:               ic.MayDuration("LOCK_TTL", 5*time.Minute),
		HoldNewAccounts:       ic.MayBool("HOLD_NEW_ACCOUNTS", false),
		PermitDomains:         ic.MayCSV("PERMIT_DOMAINS", nil),
		MaxFields:             ic.MayInt("MAX_FIELDS", 16),
		RejectWords:           ic.MayCSV("REJECT_WORDS", nil),
		UserAgent:             ic.MayString("FETCH_UA", "herald"),
		FetchTimeout:          ic.MayDuration("FETCH_TIMEOUT", 10*time.Second),
		FetchMaxBytes:         int64(ic.MayInt("FETCH_MAX_BYTES", 1<<20)),
		SoftwareTTL:           ic.MayDuration("SOFTWARE_TTL", 10*time.Minute),
	}
}
