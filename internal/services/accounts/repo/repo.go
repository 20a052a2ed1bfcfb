// Package repo provides the accounts repository implementation
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"herald/internal/modkit/repokit"
	perr "herald/internal/platform/errors"
	"herald/internal/platform/store"
	"herald/internal/services/accounts/domain"

	"github.com/google/uuid"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the accounts repository
type Storage interface {
	ByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	ByUsernameDomain(ctx context.Context, username, dom string) (*domain.Account, error)
	CountByIdentifier(ctx context.Context, identifier string) (int, error)
	Insert(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, a *domain.Account) error
	ApproveRemote(ctx context.Context, identifier string) (*domain.Account, error)
	RuleFor(ctx context.Context, dom string) (*domain.DomainBlock, error)
	ClearTombstones(ctx context.Context, identifier string) error
}

const accountCols = `
	id, identifier, username, domain, protocol, actor_type, public_key,
	inbox_url, outbox_url, shared_inbox_url, followers_url, featured_url, url,
	display_name, note, locked, discoverable, indexable, memorial,
	fields, also_known_as, searchability, master_settings, settings,
	avatar_remote_url, header_remote_url,
	statuses_count, following_count, followers_count, hide_collections,
	suspended, suspension_origin, remote_pending, suspended_at, silenced_at,
	moved_to_identifier, last_discovered_at, created_at, updated_at`

func (s *pg) ByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	// duplicates behind the same identifier can exist until a merge job
	// reconciles them; any one row serves as the record to mutate
	acc, err := store.One(ctx, s.q, scanAccount,
		`SELECT`+accountCols+` FROM accounts WHERE identifier = $1 LIMIT 1`, identifier)
	return missingIsNil(acc, err)
}

func (s *pg) ByUsernameDomain(ctx context.Context, username, dom string) (*domain.Account, error) {
	acc, err := store.One(ctx, s.q, scanAccount,
		`SELECT`+accountCols+` FROM accounts WHERE lower(username) = lower($1) AND domain = $2 LIMIT 1`,
		username, dom,
	)
	return missingIsNil(acc, err)
}

func (s *pg) CountByIdentifier(ctx context.Context, identifier string) (int, error) {
	n, err := store.Scalar[int](ctx, s.q, `SELECT count(*) FROM accounts WHERE identifier = $1`, identifier)
	if err != nil {
		return 0, perr.Wrapf(err, perr.ErrorCodeDB, "count accounts by identifier")
	}
	return n, nil
}

// missingIsNil maps the helper not-found sentinel to the (nil, nil) lookup
// contract the pipeline resolves against
func missingIsNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, perr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *pg) Insert(ctx context.Context, a *domain.Account) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	fields, alsoKnown, master, settings, err := marshalJSONCols(a)
	if err != nil {
		return err
	}

	_, err = s.q.Exec(ctx, `
		INSERT INTO accounts (`+accountCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
			$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39)`,
		a.ID, a.Identifier, a.Username, a.Domain, a.Protocol, a.ActorType, a.PublicKey,
		a.InboxURL, a.OutboxURL, a.SharedInboxURL, a.FollowersURL, a.FeaturedURL, a.URL,
		a.DisplayName, a.Note, a.Locked, a.Discoverable, a.Indexable, a.Memorial,
		fields, alsoKnown, a.Searchability, master, settings,
		a.AvatarRemoteURL, a.HeaderRemoteURL,
		a.StatusesCount, a.FollowingCount, a.FollowersCount, a.HideCollections,
		a.Suspended, string(a.SuspensionOrigin), a.RemotePending, a.SuspendedAt, a.SilencedAt,
		a.MovedToIdentifier, a.LastDiscoveredAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert account %s", a.Identifier)
	}
	return nil
}

func (s *pg) Update(ctx context.Context, a *domain.Account) error {
	a.UpdatedAt = time.Now().UTC()

	fields, alsoKnown, master, settings, err := marshalJSONCols(a)
	if err != nil {
		return err
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE accounts SET
			protocol = $2, actor_type = $3, public_key = $4,
			inbox_url = $5, outbox_url = $6, shared_inbox_url = $7,
			followers_url = $8, featured_url = $9, url = $10,
			display_name = $11, note = $12, locked = $13,
			discoverable = $14, indexable = $15, memorial = $16,
			fields = $17, also_known_as = $18, searchability = $19,
			master_settings = $20, settings = $21,
			avatar_remote_url = $22, header_remote_url = $23,
			statuses_count = $24, following_count = $25, followers_count = $26,
			hide_collections = $27,
			suspended = $28, suspension_origin = $29, remote_pending = $30,
			suspended_at = $31, silenced_at = $32,
			moved_to_identifier = $33, last_discovered_at = $34, updated_at = $35
		WHERE identifier = $1`,
		a.Identifier, a.Protocol, a.ActorType, a.PublicKey,
		a.InboxURL, a.OutboxURL, a.SharedInboxURL,
		a.FollowersURL, a.FeaturedURL, a.URL,
		a.DisplayName, a.Note, a.Locked,
		a.Discoverable, a.Indexable, a.Memorial,
		fields, alsoKnown, a.Searchability,
		master, settings,
		a.AvatarRemoteURL, a.HeaderRemoteURL,
		a.StatusesCount, a.FollowingCount, a.FollowersCount,
		a.HideCollections,
		a.Suspended, string(a.SuspensionOrigin), a.RemotePending,
		a.SuspendedAt, a.SilencedAt,
		a.MovedToIdentifier, a.LastDiscoveredAt, a.UpdatedAt,
	)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "update account %s", a.Identifier)
	}
	if tag.RowsAffected() == 0 {
		return perr.NotFoundf("account %s", a.Identifier)
	}
	return nil
}

func (s *pg) ApproveRemote(ctx context.Context, identifier string) (*domain.Account, error) {
	tag, err := s.q.Exec(ctx, `
		UPDATE accounts SET
			suspended = FALSE, suspension_origin = '', remote_pending = FALSE,
			suspended_at = NULL, updated_at = now()
		WHERE identifier = $1 AND remote_pending = TRUE`,
		identifier,
	)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "approve remote %s", identifier)
	}
	if tag.RowsAffected() == 0 {
		return nil, perr.NotFoundf("no pending account %s", identifier)
	}
	return s.ByIdentifier(ctx, identifier)
}

func (s *pg) RuleFor(ctx context.Context, dom string) (*domain.DomainBlock, error) {
	// longest matching suffix wins, mirroring subdomain-inclusive blocks
	b, err := store.One(ctx, s.q, scanBlock, `
		SELECT domain, severity, reject_media, created_at
		FROM domain_blocks
		WHERE $1 = domain OR $1 LIKE '%.' || domain
		ORDER BY length(domain) DESC
		LIMIT 1`, dom)
	return missingIsNil(b, err)
}

func scanBlock(row repokit.Row) (*domain.DomainBlock, error) {
	var b domain.DomainBlock
	var severity string
	if err := row.Scan(&b.Domain, &severity, &b.RejectMedia, &b.CreatedAt); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "scan domain block")
	}
	b.Severity = domain.BlockSeverity(severity)
	return &b, nil
}

func (s *pg) ClearTombstones(ctx context.Context, identifier string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM tombstones WHERE account_identifier = $1`, identifier)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "clear tombstones %s", identifier)
	}
	return nil
}

func marshalJSONCols(a *domain.Account) (fields, alsoKnown, master, settings []byte, err error) {
	if fields, err = json.Marshal(a.Fields); err != nil {
		return nil, nil, nil, nil, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal fields")
	}
	if alsoKnown, err = json.Marshal(a.AlsoKnownAs); err != nil {
		return nil, nil, nil, nil, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal also_known_as")
	}
	if master, err = json.Marshal(a.MasterSettings); err != nil {
		return nil, nil, nil, nil, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal master_settings")
	}
	if settings, err = json.Marshal(a.Settings); err != nil {
		return nil, nil, nil, nil, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal settings")
	}
	return fields, alsoKnown, master, settings, nil
}

func scanAccount(row repokit.Row) (*domain.Account, error) {
	var (
		a                                 domain.Account
		fields, alsoKnown, master, extras []byte
		suspensionOrigin, movedTo         string
	)
	err := row.Scan(
		&a.ID, &a.Identifier, &a.Username, &a.Domain, &a.Protocol, &a.ActorType, &a.PublicKey,
		&a.InboxURL, &a.OutboxURL, &a.SharedInboxURL, &a.FollowersURL, &a.FeaturedURL, &a.URL,
		&a.DisplayName, &a.Note, &a.Locked, &a.Discoverable, &a.Indexable, &a.Memorial,
		&fields, &alsoKnown, &a.Searchability, &master, &extras,
		&a.AvatarRemoteURL, &a.HeaderRemoteURL,
		&a.StatusesCount, &a.FollowingCount, &a.FollowersCount, &a.HideCollections,
		&a.Suspended, &suspensionOrigin, &a.RemotePending, &a.SuspendedAt, &a.SilencedAt,
		&movedTo, &a.LastDiscoveredAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "scan account")
	}

	a.SuspensionOrigin = domain.SuspensionOrigin(suspensionOrigin)
	a.MovedToIdentifier = movedTo
	if err := json.Unmarshal(fields, &a.Fields); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "unmarshal fields")
	}
	if err := json.Unmarshal(alsoKnown, &a.AlsoKnownAs); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "unmarshal also_known_as")
	}
	if err := json.Unmarshal(master, &a.MasterSettings); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "unmarshal master_settings")
	}
	if err := json.Unmarshal(extras, &a.Settings); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "unmarshal settings")
	}
	return &a, nil
}
