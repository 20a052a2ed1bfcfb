// Package service reconciles declared custom emoji against stored state
package service

import (
	"context"

	"herald/internal/modkit/repokit"
	"herald/internal/platform/logger"
	"herald/internal/services/emoji/domain"
	"herald/internal/services/emoji/repo"
)

// Service is the public service port
type Service interface{ domain.SyncPort }

// Svc implements the service port
type Svc struct {
	Repo repo.Storage
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage]) *Svc {
	if db == nil {
		panic("emoji.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("emoji.Service requires a non nil Storage binder")
	}
	return &Svc{Repo: binder.Bind(db)}
}

// Sync upserts each declared entry that supersedes stored state.
// Malformed entries are skipped, a failed upsert is logged and the rest
// of the batch continues so one bad emoji never blocks a profile refresh
func (s *Svc) Sync(ctx context.Context, dom string, entries []domain.Entry) error {
	log := logger.C(ctx).With().Str("mod", "emoji").Logger()

	for _, e := range entries {
		if e.Shortcode == "" || e.ImageRemoteURL == "" {
			continue
		}
		stored, err := s.Repo.Get(ctx, e.Shortcode, dom)
		if err != nil {
			return err
		}
		if !domain.ShouldReplace(stored, e) {
			continue
		}
		err = s.Repo.Upsert(ctx, &domain.Emoji{
			Shortcode:      e.Shortcode,
			Domain:         dom,
			ImageRemoteURL: e.ImageRemoteURL,
			URI:            e.URI,
			IsSensitive:    e.IsSensitive,
			License:        e.License,
			UpdatedAt:      e.UpdatedAt,
		})
		if err != nil {
			log.Warn().Err(err).Str("shortcode", e.Shortcode).Str("domain", dom).Msg("emoji upsert failed")
		}
	}
	return nil
}
