// Package service contains account workflows shared by the API and the ingest pipeline
package service

import (
	"context"

	"herald/internal/modkit/repokit"
	"herald/internal/services/accounts/domain"
	"herald/internal/services/accounts/repo"
)

// Service is the public service port
type Service interface {
	domain.ReaderPort
	domain.WriterPort
	domain.BlockPort
	domain.TombstonePort
}

// Svc implements the service port
type Svc struct {
	Repo   repo.Storage
	binder repokit.Binder[repo.Storage]
	db     repokit.TxRunner
}

// New constructs the service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage]) *Svc {
	if db == nil {
		panic("accounts.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("accounts.Service requires a non nil Storage binder")
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
	}
}

// ByIdentifier returns the account for a canonical identifier, or (nil, nil) when absent
func (s *Svc) ByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	return s.Repo.ByIdentifier(ctx, identifier)
}

// ByUsernameDomain returns the account for a username and domain pair, or (nil, nil) when absent
func (s *Svc) ByUsernameDomain(ctx context.Context, username, dom string) (*domain.Account, error) {
	return s.Repo.ByUsernameDomain(ctx, username, dom)
}

// CountByIdentifier counts records sharing one identifier
func (s *Svc) CountByIdentifier(ctx context.Context, identifier string) (int, error) {
	return s.Repo.CountByIdentifier(ctx, identifier)
}

// Insert persists a newly discovered account
func (s *Svc) Insert(ctx context.Context, a *domain.Account) error {
	return s.Repo.Insert(ctx, a)
}

// Update persists a refreshed account
func (s *Svc) Update(ctx context.Context, a *domain.Account) error {
	return s.Repo.Update(ctx, a)
}

// ApproveRemote lifts the pending-remote hold inside one transaction so the
// unsuspend and the returned snapshot agree
func (s *Svc) ApproveRemote(ctx context.Context, identifier string) (*domain.Account, error) {
	var out *domain.Account
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		a, err := s.binder.Bind(q).ApproveRemote(ctx, identifier)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RuleFor returns the administrative rule covering a domain, or (nil, nil) when unblocked
func (s *Svc) RuleFor(ctx context.Context, dom string) (*domain.DomainBlock, error) {
	return s.Repo.RuleFor(ctx, dom)
}

// ClearTombstones removes replay-protection markers for an account
func (s *Svc) ClearTombstones(ctx context.Context, identifier string) error {
	return s.Repo.ClearTombstones(ctx, identifier)
}
