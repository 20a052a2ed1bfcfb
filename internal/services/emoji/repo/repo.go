// Package repo provides the custom emoji repository
package repo

import (
	"context"
	"errors"

	"herald/internal/modkit/repokit"
	perr "herald/internal/platform/errors"
	"herald/internal/platform/store"
	"herald/internal/services/emoji/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the emoji repository
type Storage interface {
	Get(ctx context.Context, shortcode, dom string) (*domain.Emoji, error)
	Upsert(ctx context.Context, e *domain.Emoji) error
}

func (s *pg) Get(ctx context.Context, shortcode, dom string) (*domain.Emoji, error) {
	e, err := store.One(ctx, s.q, scanEmoji, `
		SELECT shortcode, domain, image_remote_url, uri, is_sensitive, license, updated_at
		FROM custom_emojis
		WHERE shortcode = $1 AND domain = $2`,
		shortcode, dom,
	)
	if err != nil {
		if errors.Is(err, perr.ErrNotFound) {
			return nil, nil
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "emoji lookup %s@%s", shortcode, dom)
	}
	return e, nil
}

func scanEmoji(row repokit.Row) (*domain.Emoji, error) {
	var e domain.Emoji
	err := row.Scan(&e.Shortcode, &e.Domain, &e.ImageRemoteURL, &e.URI, &e.IsSensitive, &e.License, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *pg) Upsert(ctx context.Context, e *domain.Emoji) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO custom_emojis (shortcode, domain, image_remote_url, uri, is_sensitive, license, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (shortcode, domain) DO UPDATE SET
			image_remote_url = EXCLUDED.image_remote_url,
			uri = EXCLUDED.uri,
			is_sensitive = EXCLUDED.is_sensitive,
			license = EXCLUDED.license,
			updated_at = EXCLUDED.updated_at`,
		e.Shortcode, e.Domain, e.ImageRemoteURL, e.URI, e.IsSensitive, e.License, e.UpdatedAt,
	)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "emoji upsert %s@%s", e.Shortcode, e.Domain)
	}
	return nil
}
