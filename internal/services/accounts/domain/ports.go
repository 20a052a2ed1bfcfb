package domain

import "context"

// ReaderPort resolves canonical accounts
// missing accounts return (nil, nil) so callers can branch without sentinel checks
type ReaderPort interface {
	ByIdentifier(ctx context.Context, identifier string) (*Account, error)
	ByUsernameDomain(ctx context.Context, username, domain string) (*Account, error)

	// CountByIdentifier counts records sharing one identifier, for duplicate detection
	CountByIdentifier(ctx context.Context, identifier string) (int, error)
}

// WriterPort creates and mutates canonical accounts
type WriterPort interface {
	Insert(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error

	// ApproveRemote clears the pending-remote holding state set at discovery time
	ApproveRemote(ctx context.Context, identifier string) (*Account, error)
}

// BlockPort looks up administrative domain rules
// the rule for the longest matching suffix wins, nil means unblocked
type BlockPort interface {
	RuleFor(ctx context.Context, domain string) (*DomainBlock, error)
}

// TombstonePort manages replay-protection markers
type TombstonePort interface {
	ClearTombstones(ctx context.Context, identifier string) error
}
