// Package repo provides the instance metadata repository
package repo

import (
	"context"
	stdsql "database/sql"
	"errors"

	"herald/internal/modkit/repokit"
	perr "herald/internal/platform/errors"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage reads recorded instance metadata
type Storage interface {
	Software(ctx context.Context, domain string) (string, error)
}

func (s *pg) Software(ctx context.Context, domain string) (string, error) {
	var software string
	err := s.q.QueryRow(ctx,
		`SELECT software FROM instance_info WHERE domain = $1`, domain,
	).Scan(&software)
	if err != nil {
		if errors.Is(err, stdsql.ErrNoRows) {
			return "", nil
		}
		return "", perr.Wrapf(err, perr.ErrorCodeDB, "instance software lookup %s", domain)
	}
	return software, nil
}
