// Package module wires the ingest pipeline from its collaborator modules
package module

import (
	"context"

	"herald/internal/adapters/fedi"
	"herald/internal/adapters/jobs"
	"herald/internal/core/apjson"
	"herald/internal/modkit"
	"herald/internal/modkit/httpkit"
	"herald/internal/modkit/repokit"
	accmod "herald/internal/services/accounts/module"
	"herald/internal/services/audit"
	emojirepo "herald/internal/services/emoji/repo"
	emojisvc "herald/internal/services/emoji/service"
	"herald/internal/services/ingest/domain"
	"herald/internal/services/ingest/service"
	instrepo "herald/internal/services/instances/repo"
	instsvc "herald/internal/services/instances/service"
)

// Ports exposed by the ingest module
type Ports struct {
	Ingest domain.IngestPort
}

// Injected are the cross-module ports the ingest module needs at build time
type Injected struct {
	Accounts accmod.Ports
}

// Module implements the ingest service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// fetcherAdapter narrows the fedi client to the pipeline's fetch port
type fetcherAdapter struct{ c *fedi.Client }

func (f fetcherAdapter) FetchDocument(ctx context.Context, url string) (apjson.Doc, error) {
	return f.c.FetchDocument(ctx, url)
}

func (f fetcherAdapter) FetchCollectionHead(ctx context.Context, url string) (*domain.CollectionHead, error) {
	h, err := f.c.FetchCollectionHead(ctx, url)
	if err != nil {
		return nil, err
	}
	return &domain.CollectionHead{TotalItems: h.TotalItems, HasFirstPage: h.HasFirstPage}, nil
}

func (f fetcherAdapter) FetchKeyPem(ctx context.Context, url string) (string, error) {
	return f.c.FetchKeyPem(ctx, url)
}

// New constructs a new ingest module
func New(deps modkit.Deps, in Injected) *Module {
	opts := FromConfig(deps.Cfg)

	if deps.RD == nil {
		panic("ingest module requires the redis seam (locks, budgets, queue)")
	}

	fetch := fetcherAdapter{c: fedi.NewClient(fedi.Options{
		UserAgent: opts.UserAgent,
		Timeout:   opts.FetchTimeout,
		MaxBytes:  opts.FetchMaxBytes,
	})}

	emoji := emojisvc.New(repokit.TxRunner(deps.PG), emojirepo.NewPG())
	software := instsvc.New(repokit.TxRunner(deps.PG), instrepo.NewPG(), instsvc.Config{TTL: opts.SoftwareTTL})

	svc := service.New(service.Deps{
		Accounts: service.Accounts{
			Reader:     in.Accounts.Reader,
			Writer:     in.Accounts.Writer,
			Blocks:     in.Accounts.Blocks,
			Tombstones: in.Accounts.Tombstones,
		},
		Emoji:    emoji,
		Software: software,
		Fetch:    fetch,
		Rejecter: service.NewWordlist(opts.RejectWords),
		Audit:    audit.NewSink(deps.CH),
		Dispatch: jobs.NewDispatcher(deps.RD),
		Locker:   deps.RD,
		Counters: deps.RD,
	}, service.Config{
		SubdomainLimit:        opts.SubdomainLimit,
		DiscoveriesPerRequest: opts.DiscoveriesPerRequest,
		DiscoveryWindow:       opts.DiscoveryWindow,
		LockTimeout:           opts.LockTimeout,
		LockTTL:               opts.LockTTL,
		HoldNewAccounts:       opts.HoldNewAccounts,
		PermitDomains:         opts.PermitDomains,
		MaxFields:             opts.MaxFields,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Ingest: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "ingest" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
