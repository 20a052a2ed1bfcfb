// Package module wires the operator ingest endpoints using modkit
package module

import (
	"net/http"

	modkit "herald/internal/modkit"
	"herald/internal/modkit/httpkit"

	accdom "herald/internal/services/accounts/domain"
	ihttp "herald/internal/services/api/ingest/http"
	isvc "herald/internal/services/api/ingest/service"
	ingdom "herald/internal/services/ingest/domain"
)

// Ports declares the worker ports this API module consumes
type Ports struct {
	Ingest ingdom.IngestPort
	Writer accdom.WriterPort
}

// Module implements the operator ingest API module
type Module struct {
	deps modkit.Deps
	name string

	mws      []func(http.Handler) http.Handler
	ports    any
	register func(httpkit.Router)

	svc isvc.Service
}

// New constructs the module; the worker ports arrive via modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("operator"),
	}, opts...)...)

	injected, ok := b.Ports.(Ports)
	if !ok || injected.Ingest == nil || injected.Writer == nil {
		panic("operator API module requires the ingest and account writer ports")
	}

	s := isvc.New(isvc.Deps{Pipeline: injected.Ingest, Writer: injected.Writer})

	m := &Module{deps: deps, name: b.Name, mws: b.Mw, svc: s}
	m.ports = injected

	external := b.Register
	m.register = func(r httpkit.Router) {
		ihttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Group(func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		m.register(rr)
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Ports returns the injected worker ports for registry lookups
func (m *Module) Ports() any { return m.ports }
