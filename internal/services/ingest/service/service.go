// Package service implements the actor ingestion pipeline
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"herald/internal/adapters/jobs"
	"herald/internal/core/apjson"
	"herald/internal/core/domains"
	perr "herald/internal/platform/errors"
	"herald/internal/platform/logger"
	"herald/internal/platform/store"
	ptime "herald/internal/platform/time"
	accdom "herald/internal/services/accounts/domain"
	"herald/internal/services/audit"
	emojidom "herald/internal/services/emoji/domain"
	"herald/internal/services/ingest/domain"
)

const instanceMetaPrefix = "instance_meta:"

// Service is the public service port
type Service interface{ domain.IngestPort }

// Accounts bundles the account ports the pipeline mutates through
type Accounts struct {
	Reader     accdom.ReaderPort
	Writer     accdom.WriterPort
	Blocks     accdom.BlockPort
	Tombstones accdom.TombstonePort
}

// Config controls pipeline behavior
type Config struct {
	SubdomainLimit        int
	DiscoveriesPerRequest int
	DiscoveryWindow       time.Duration
	LockTimeout           time.Duration
	LockTTL               time.Duration

	// HoldNewAccounts parks newly discovered accounts in pending-remote
	// unless their domain is in PermitDomains
	HoldNewAccounts bool
	PermitDomains   []string

	MaxFields int
}

// Deps are the collaborator ports the pipeline needs
type Deps struct {
	Accounts Accounts
	Emoji    emojidom.SyncPort
	Software domain.SoftwarePort
	Fetch    domain.FetcherPort
	Rejecter domain.RejecterPort
	Audit    audit.Recorder
	Dispatch jobs.DispatchPort
	Locker   store.Locker
	Counters store.Counters
}

// Svc implements the service port
type Svc struct {
	accounts Accounts
	emoji    emojidom.SyncPort
	software domain.SoftwarePort
	fetch    domain.FetcherPort
	rejecter domain.RejecterPort
	audit    audit.Recorder
	dispatch jobs.DispatchPort
	locker   store.Locker
	counters store.Counters

	cfg Config
	log logger.Logger
	now func() time.Time
}

// New constructs the pipeline service
func New(d Deps, cfg Config) *Svc {
	switch {
	case d.Accounts.Reader == nil, d.Accounts.Writer == nil, d.Accounts.Blocks == nil, d.Accounts.Tombstones == nil:
		panic("ingest.Service requires the full accounts port bundle")
	case d.Emoji == nil:
		panic("ingest.Service requires a non nil emoji SyncPort")
	case d.Software == nil:
		panic("ingest.Service requires a non nil SoftwarePort")
	case d.Fetch == nil:
		panic("ingest.Service requires a non nil FetcherPort")
	case d.Rejecter == nil:
		panic("ingest.Service requires a non nil RejecterPort")
	case d.Audit == nil:
		panic("ingest.Service requires a non nil audit Recorder")
	case d.Dispatch == nil:
		panic("ingest.Service requires a non nil DispatchPort")
	case d.Locker == nil:
		panic("ingest.Service requires a non nil Locker")
	case d.Counters == nil:
		panic("ingest.Service requires non nil Counters")
	}

	if cfg.SubdomainLimit <= 0 {
		cfg.SubdomainLimit = 10
	}
	if cfg.DiscoveriesPerRequest <= 0 {
		cfg.DiscoveriesPerRequest = 400
	}
	if cfg.DiscoveryWindow <= 0 {
		cfg.DiscoveryWindow = 5 * time.Minute
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 30 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	if cfg.MaxFields <= 0 {
		cfg.MaxFields = 16
	}

	return &Svc{
		accounts: d.Accounts,
		emoji:    d.Emoji,
		software: d.Software,
		fetch:    d.Fetch,
		rejecter: d.Rejecter,
		audit:    d.Audit,
		dispatch: d.Dispatch,
		locker:   d.Locker,
		counters: d.Counters,
		cfg:      cfg,
		log:      *logger.Named("ingest"),
		now:      time.Now,
	}
}

// result carries what one reconciliation decided, for post-lock dispatch
type result struct {
	account      *accdom.Account
	created      bool
	ch           changes
	imageRetries []string
	skipPost     bool
	doc          apjson.Doc
	requestID    string
}

// Ingest reconciles one remote actor document into the canonical record.
// A nil account with a nil error is a silent abort; the peer must not be
// able to tell policy refusal apart from a no-op
func (s *Svc) Ingest(
	ctx context.Context, username, dom string, doc apjson.Doc, opts domain.Options,
) (*accdom.Account, error) {
	if doc == nil {
		return nil, nil
	}
	identifier := apjson.Str(doc, "id")
	if identifier == "" {
		return nil, nil
	}
	dom = domains.Normalize(dom)

	block, reject, err := s.validate(ctx, doc, identifier, dom)
	if err != nil {
		return nil, err
	}
	if reject {
		s.recordOutcome(ctx, identifier, "rejected", opts.RequestID)
		return nil, nil
	}

	handle, err := s.locker.Acquire(ctx, "ingest:actor:"+identifier, s.cfg.LockTTL, s.cfg.LockTimeout)
	if err != nil {
		if errors.Is(err, store.ErrLockNotAcquired) {
			return nil, perr.Contentionf("ingest: lock busy for %s", identifier)
		}
		return nil, err
	}

	res, err := s.reconcile(ctx, username, dom, identifier, doc, block, opts)

	// side effects run outside the lock so the next ingest of the same
	// actor is not serialized behind queue pushes and collection checks
	if rerr := handle.Release(ctx); rerr != nil {
		s.log.Warn().Err(rerr).Str("identifier", identifier).Msg("lock release failed")
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	s.dispatchEffects(ctx, res, opts)
	return res.account, nil
}

func (s *Svc) schemeAllowed(identifier string) bool { return domains.AllowedScheme(identifier) }

// reconcile resolves, mutates, and saves the canonical record under the lock
func (s *Svc) reconcile(
	ctx context.Context,
	username, dom, identifier string,
	doc apjson.Doc,
	block *accdom.DomainBlock,
	opts domain.Options,
) (*result, error) {
	acc, created, err := s.resolve(ctx, username, dom, identifier, block, opts)
	if err != nil || acc == nil {
		return nil, err
	}

	before := snapshot{}
	if !created {
		before = snapshotOf(acc)
	}

	suspended, unsuspended := s.applySuspension(acc, doc)

	frozen := acc.Suspended && acc.SuspensionOrigin == accdom.SuspensionLocal && !acc.RemotePending
	skipFetchable := opts.OnlyKeyRefresh || (acc.Suspended && !acc.RemotePending)
	skipDownload := skipFetchable || (block != nil && block.RejectMedia)

	setProtocolAttributes(acc, doc)
	if !frozen {
		s.setKey(ctx, acc, doc)
		s.setImmediateAttributes(ctx, acc, doc, created)
	}

	res := &result{
		account:   acc,
		created:   created,
		skipPost:  skipFetchable,
		doc:       doc,
		requestID: s.requestID(opts.RequestID, username, dom),
	}

	if !skipDownload {
		if ok, failed := s.setImage(ctx, doc, "icon", &acc.AvatarRemoteURL); !ok && failed {
			res.imageRetries = append(res.imageRetries, jobs.KindRedownloadAvatar)
		}
		if ok, failed := s.setImage(ctx, doc, "image", &acc.HeaderRemoteURL); !ok && failed {
			res.imageRetries = append(res.imageRetries, jobs.KindRedownloadHeader)
		}
	}
	if !skipFetchable {
		setCollectionCounts(ctx, newCollector(s.fetch), acc, doc)
	}

	if !opts.OnlyKeyRefresh {
		acc.LastDiscoveredAt = ptime.Ptr(s.now().UTC())
	}

	if created {
		err = s.accounts.Writer.Insert(ctx, acc)
	} else {
		err = s.accounts.Writer.Update(ctx, acc)
	}
	if err != nil {
		return nil, err
	}

	// emoji upserts commit independently of the account row; a failure there
	// is logged inside the synchronizer and never unwinds the save above
	if !skipDownload {
		if serr := s.emoji.Sync(ctx, dom, emojiEntries(doc)); serr != nil {
			s.log.Warn().Err(serr).Str("domain", dom).Msg("emoji sync failed")
		}
	}

	res.ch = diff(before, acc)
	res.ch.suspended = suspended
	res.ch.unsuspended = unsuspended
	if res.ch.keyRotated && !opts.SignedWithAlreadyKnownKey {
		if terr := s.accounts.Tombstones.ClearTombstones(ctx, acc.Identifier); terr != nil {
			return nil, terr
		}
	}
	return res, nil
}

// resolve locates the record to mutate, creating one when discovery budget allows.
// Key-only refresh never creates
func (s *Svc) resolve(
	ctx context.Context,
	username, dom, identifier string,
	block *accdom.DomainBlock,
	opts domain.Options,
) (*accdom.Account, bool, error) {
	if opts.OnlyKeyRefresh {
		acc, err := s.accounts.Reader.ByIdentifier(ctx, identifier)
		return acc, false, err
	}

	acc, err := s.accounts.Reader.ByUsernameDomain(ctx, username, dom)
	if err != nil {
		return nil, false, err
	}
	if acc != nil && acc.Identifier != identifier {
		// the pair maps to a different identity; treat this document as
		// a distinct account rather than overwriting the stored one
		acc, err = s.accounts.Reader.ByIdentifier(ctx, identifier)
		if err != nil {
			return nil, false, err
		}
	}
	if acc != nil {
		return acc, false, nil
	}

	ok, err := s.withinBudget(ctx, dom, s.requestID(opts.RequestID, username, dom))
	if err != nil || !ok {
		return nil, false, err
	}
	return s.newAccount(identifier, username, dom, block), true, nil
}

func (s *Svc) newAccount(identifier, username, dom string, block *accdom.DomainBlock) *accdom.Account {
	now := s.now().UTC()
	acc := &accdom.Account{
		Identifier:    identifier,
		Username:      username,
		Domain:        dom,
		Protocol:      accdom.ProtocolFederated,
		Searchability: accdom.SearchabilityDirect,
		CreatedAt:     now,
	}
	if block.Silences() {
		acc.SilencedAt = ptime.Ptr(block.CreatedAt)
	}
	if s.cfg.HoldNewAccounts && !s.domainPermitted(dom) {
		acc.Suspended = true
		acc.SuspensionOrigin = accdom.SuspensionLocal
		acc.RemotePending = true
		acc.SuspendedAt = &now
	}
	return acc
}

func (s *Svc) domainPermitted(dom string) bool {
	for _, p := range s.cfg.PermitDomains {
		if domains.Normalize(p) == dom {
			return true
		}
	}
	return false
}

// applySuspension honors the stickiness rule: a locally originated
// suspension survives any inbound document. The returned edges report
// whether this document actually toggled state, on creates included
func (s *Svc) applySuspension(acc *accdom.Account, doc apjson.Doc) (suspended, unsuspended bool) {
	declared, ok := apjson.Bool(doc, "suspended")
	if !ok {
		return false, false
	}
	switch {
	case declared && !acc.Suspended:
		acc.Suspended = true
		acc.SuspensionOrigin = accdom.SuspensionRemote
		acc.SuspendedAt = ptime.Ptr(s.now().UTC())
		return true, false
	case !declared && acc.Suspended:
		if acc.SuspensionOrigin == accdom.SuspensionLocal {
			return false, false
		}
		acc.Suspended = false
		acc.SuspensionOrigin = accdom.SuspensionNone
		acc.SuspendedAt = nil
		return false, true
	}
	return false, false
}

// dispatchEffects fans out the asynchronous follow-ups after the lock is gone
func (s *Svc) dispatchEffects(ctx context.Context, res *result, opts domain.Options) {
	acc := res.account

	if res.ch.protocolChanged {
		s.enqueue(ctx, jobs.Job{Kind: jobs.KindProtocolUpgrade, Domain: acc.Domain})
	}
	if res.ch.keyRotated && !opts.SignedWithAlreadyKnownKey {
		s.enqueue(ctx, jobs.Job{Kind: jobs.KindReFollow, Account: acc.Identifier})
	}
	if res.ch.suspended {
		s.enqueue(ctx, jobs.Job{Kind: jobs.KindSuspendPropagate, Account: acc.Identifier})
	}
	if res.ch.unsuspended {
		s.enqueue(ctx, jobs.Job{Kind: jobs.KindUnsuspendPropagate, Account: acc.Identifier})
	}
	for _, kind := range res.imageRetries {
		s.enqueue(ctx, jobs.Job{Kind: kind, Account: acc.Identifier})
	}

	if !res.skipPost {
		s.dispatchPostChecks(ctx, res)
	}

	if opts.VerifiedViaSecondChannel {
		n, err := s.accounts.Reader.CountByIdentifier(ctx, acc.Identifier)
		if err != nil {
			s.log.Warn().Err(err).Str("identifier", acc.Identifier).Msg("duplicate count failed")
		} else if n > 1 {
			s.enqueue(ctx, jobs.Job{Kind: jobs.KindMergeDuplicates, Account: acc.Identifier})
		}
	}

	outcome := "updated"
	if res.created {
		outcome = "created"
	}
	s.recordOutcome(ctx, acc.Identifier, outcome, res.requestID)
}

func (s *Svc) dispatchPostChecks(ctx context.Context, res *result) {
	acc := res.account

	if acc.FeaturedURL != "" {
		s.enqueue(ctx, jobs.Job{
			Kind:    jobs.KindSyncFeatured,
			Account: acc.Identifier,
			Args: map[string]any{
				"hashtag":    apjson.FirstString(res.doc, "featuredTags") == "",
				"request_id": res.requestID,
			},
		})
	}
	if apjson.FirstString(res.doc, "featuredTags") != "" {
		s.enqueue(ctx, jobs.Job{Kind: jobs.KindSyncFeaturedTags, Account: acc.Identifier})
	}
	if fieldsVerifiable(acc.Fields) {
		s.enqueue(ctx, jobs.Job{Kind: jobs.KindVerifyLinks, Account: acc.Identifier})
	}

	// at most one metadata refresh per domain per day
	first, err := s.counters.MarkOnce(ctx, instanceMetaPrefix+acc.Domain, 24*time.Hour)
	if err != nil {
		s.log.Warn().Err(err).Str("domain", acc.Domain).Msg("instance metadata marker failed")
		return
	}
	if first {
		s.enqueue(ctx, jobs.Job{Kind: jobs.KindInstanceMetadata, Domain: acc.Domain})
	}
}

func (s *Svc) enqueue(ctx context.Context, j jobs.Job) {
	if err := s.dispatch.Dispatch(ctx, j); err != nil {
		s.log.Warn().Err(err).Str("kind", j.Kind).Msg("job dispatch failed")
	}
}

func (s *Svc) recordOutcome(ctx context.Context, identifier, outcome, requestID string) {
	if err := s.audit.RecordOutcome(ctx, identifier, outcome, requestID); err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("audit outcome write failed")
	}
}

func fieldsVerifiable(fields []accdom.Field) bool {
	for _, f := range fields {
		if strings.Contains(f.Value, "http://") || strings.Contains(f.Value, "https://") {
			return true
		}
	}
	return false
}

// emojiEntries projects Emoji typed tags into synchronizer entries
func emojiEntries(doc apjson.Doc) []emojidom.Entry {
	var out []emojidom.Entry
	for _, tag := range apjson.Objs(doc, "tag") {
		if !apjson.TypeIs(tag, "Emoji") {
			continue
		}
		shortcode := strings.Trim(apjson.Str(tag, "name"), ":")
		iconURL, _ := apjson.ImageURL(tag, "icon")
		if shortcode == "" || iconURL == "" {
			continue
		}
		e := emojidom.Entry{
			Shortcode:      shortcode,
			URI:            apjson.Str(tag, "id"),
			ImageRemoteURL: iconURL,
			License:        apjson.Str(tag, "license"),
		}
		e.IsSensitive, _ = apjson.Bool(tag, "isSensitive")
		if ts, err := time.Parse(time.RFC3339, apjson.Str(tag, "updated")); err == nil {
			e.UpdatedAt = ptime.Ptr(ts.UTC())
		}
		out = append(out, e)
	}
	return out
}
