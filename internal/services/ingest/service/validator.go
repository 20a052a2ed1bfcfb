package service

import (
	"context"

	"herald/internal/core/apjson"
	accdom "herald/internal/services/accounts/domain"
)

// validate screens the document before any state is touched.
// Returns the block rule covering the sender so the create path can apply
// silence severity, and reject=true for a silent abort
func (s *Svc) validate(
	ctx context.Context, doc apjson.Doc, identifier, dom string,
) (block *accdom.DomainBlock, reject bool, err error) {
	if apjson.FirstString(doc, "inbox") == "" {
		return nil, true, nil
	}
	if !s.schemeAllowed(identifier) {
		return nil, true, nil
	}

	block, err = s.accounts.Blocks.RuleFor(ctx, dom)
	if err != nil {
		return nil, false, err
	}
	if block.Suspends() {
		return nil, true, nil
	}

	// moderation screening fails open: a broken screen must not block federation
	for _, probe := range []struct{ field, text string }{
		{"display_name", apjson.Str(doc, "name")},
		{"note", apjson.Str(doc, "summary")},
	} {
		rejected, keyword, rerr := s.rejecter.Reject(ctx, probe.text, probe.field)
		if rerr != nil {
			continue
		}
		if rejected {
			if aerr := s.audit.RecordRejection(ctx, identifier, probe.field, keyword); aerr != nil {
				s.log.Warn().Err(aerr).Str("identifier", identifier).Msg("audit rejection write failed")
			}
			return nil, true, nil
		}
	}

	return block, false, nil
}
