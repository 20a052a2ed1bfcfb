// Package module implements the accounts service module
package module

import (
	"herald/internal/modkit"
	"herald/internal/modkit/httpkit"
	"herald/internal/modkit/repokit"
	"herald/internal/services/accounts/domain"
	"herald/internal/services/accounts/repo"
	"herald/internal/services/accounts/service"
)

// Ports exposed by the accounts module
type Ports struct {
	Reader     domain.ReaderPort
	Writer     domain.WriterPort
	Blocks     domain.BlockPort
	Tombstones domain.TombstonePort
}

// Module implements the accounts service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new accounts module
func New(deps modkit.Deps) *Module {
	binder := repo.NewPG()
	svc := service.New(repokit.TxRunner(deps.PG), binder)

	m := &Module{deps: deps}
	m.ports = Ports{
		Reader:     svc,
		Writer:     svc,
		Blocks:     svc,
		Tombstones: svc,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "accounts" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {}
