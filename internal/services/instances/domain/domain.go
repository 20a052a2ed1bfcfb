// Package domain defines the instance metadata ports
package domain

import "context"

// LookupPort resolves the software family a remote domain runs.
// Unknown domains return the empty string rather than an error so
// callers can fall back to protocol defaults
type LookupPort interface {
	Software(ctx context.Context, domain string) (string, error)
}

// MisskeyFamily reports whether the named software interprets the
// indexable flag with limited as the opt-out value
func MisskeyFamily(software string) bool {
	switch software {
	case "misskey", "calckey":
		return true
	default:
		return false
	}
}
