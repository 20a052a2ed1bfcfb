// Package service caches instance software lookups
package service

import (
	"context"
	"sync"
	"time"

	"herald/internal/modkit/repokit"
	"herald/internal/services/instances/repo"
)

// Service is the public service port
type Service interface {
	Software(ctx context.Context, domain string) (string, error)
}

// Config controls cache behavior
type Config struct {
	// TTL bounds how long a software answer is reused; zero means 10 minutes
	TTL time.Duration
}

type cached struct {
	software string
	expires  time.Time
}

// Svc implements the service port with a small in-memory cache.
// Instance software changes rarely and the ingest hot path asks often
type Svc struct {
	Repo repo.Storage
	ttl  time.Duration

	mu    sync.Mutex
	cache map[string]cached
	now   func() time.Time
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], cfg Config) *Svc {
	if db == nil {
		panic("instances.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("instances.Service requires a non nil Storage binder")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Svc{
		Repo:  binder.Bind(db),
		ttl:   ttl,
		cache: make(map[string]cached),
		now:   time.Now,
	}
}

// Software returns the software family for a domain, empty when unknown
func (s *Svc) Software(ctx context.Context, domain string) (string, error) {
	s.mu.Lock()
	if c, ok := s.cache[domain]; ok && s.now().Before(c.expires) {
		s.mu.Unlock()
		return c.software, nil
	}
	s.mu.Unlock()

	software, err := s.Repo.Software(ctx, domain)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cache[domain] = cached{software: software, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return software, nil
}
