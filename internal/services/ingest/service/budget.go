package service

import (
	"context"
	"fmt"

	"herald/internal/core/domains"
)

const (
	subdomainBudgetPrefix = "unique_subdomains_for:"
	requestBudgetPrefix   = "discovery_per_request:"
)

// requestID returns the caller supplied cascade id or derives a stable one
func (s *Svc) requestID(supplied, username, dom string) string {
	if supplied != "" {
		return supplied
	}
	return fmt.Sprintf("%d-%s@%s", s.now().Unix(), username, dom)
}

// withinBudget applies the two independent discovery limiters before a new
// account is created. Counter failures are structural and raise; an exceeded
// budget aborts silently upstream
func (s *Svc) withinBudget(ctx context.Context, dom, requestID string) (bool, error) {
	apex := domains.Apex(dom)

	seen, err := s.counters.ObserveDistinct(ctx, subdomainBudgetPrefix+apex, dom, s.cfg.DiscoveryWindow)
	if err != nil {
		return false, err
	}
	if seen > int64(s.cfg.SubdomainLimit) {
		s.log.Info().Str("apex", apex).Int64("seen", seen).Msg("subdomain discovery budget exceeded")
		return false, nil
	}

	n, err := s.counters.Increment(ctx, requestBudgetPrefix+requestID, s.cfg.DiscoveryWindow)
	if err != nil {
		return false, err
	}
	if n > int64(s.cfg.DiscoveriesPerRequest) {
		s.log.Info().Str("request_id", requestID).Int64("count", n).Msg("per-request discovery budget exceeded")
		return false, nil
	}

	return true, nil
}
