// Package service adapts the worker pipeline ports to operator API calls
package service

import (
	"context"

	"herald/internal/core/apjson"
	perr "herald/internal/platform/errors"
	"herald/internal/platform/net/http/bind"
	accdom "herald/internal/services/accounts/domain"
	"herald/internal/services/api/ingest/domain"
	ingdom "herald/internal/services/ingest/domain"
)

// Service is the operator facing port
type Service interface {
	Ingest(ctx context.Context, in domain.IngestInput) (*domain.AccountOutput, error)
	Approve(ctx context.Context, in domain.ApproveInput) (*domain.AccountOutput, error)
}

// Deps are the worker ports the API calls through
type Deps struct {
	Pipeline ingdom.IngestPort
	Writer   accdom.WriterPort
}

type svc struct{ deps Deps }

// New constructs the operator service
func New(deps Deps) Service {
	if deps.Pipeline == nil || deps.Writer == nil {
		panic("api ingest service requires the pipeline and account writer ports")
	}
	return &svc{deps: deps}
}

func (s *svc) Ingest(ctx context.Context, in domain.IngestInput) (*domain.AccountOutput, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	acc, err := s.deps.Pipeline.Ingest(ctx, in.Username, in.Domain, apjson.Doc(in.Document), ingdom.Options{
		RequestID:                 in.RequestID,
		OnlyKeyRefresh:            in.OnlyKey,
		VerifiedViaSecondChannel:  in.Verified,
		SignedWithAlreadyKnownKey: in.KnownKey,
	})
	if err != nil {
		return nil, err
	}
	if acc == nil {
		// every silent abort answers the same way so callers cannot probe policy
		return nil, perr.NotFoundf("no account for %s@%s", in.Username, in.Domain)
	}
	return domain.FromAccount(acc), nil
}

func (s *svc) Approve(ctx context.Context, in domain.ApproveInput) (*domain.AccountOutput, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	acc, err := s.deps.Writer.ApproveRemote(ctx, in.Identifier)
	if err != nil {
		return nil, err
	}
	return domain.FromAccount(acc), nil
}

func validate(in any) error {
	if err := bind.Get().Validator.Struct(in); err != nil {
		field, msg := bind.ValidationFieldAndMessage(err)
		return perr.Newf(perr.ErrorCodeValidation, "%s: %s", field, msg)
	}
	return nil
}
