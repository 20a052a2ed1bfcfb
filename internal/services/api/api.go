// Package api provides the operator HTTP API for the ingestion service
package api

import (
	"herald/internal/platform/config"
	"herald/internal/platform/logger"
	phttp "herald/internal/platform/net/http"
	"herald/internal/platform/store"

	"herald/internal/modkit"
	"herald/internal/modkit/httpkit"
	"herald/internal/modkit/module"

	accmod "herald/internal/services/accounts/module"
	operatormod "herald/internal/services/api/ingest/module"
	ingestmod "herald/internal/services/ingest/module"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg: opt.Config,
		Log: *opt.Logger,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
		RD:  opt.Store.RD,
	}

	// worker modules first so their ports can be injected into the API layer
	accounts := accmod.New(deps)
	accPorts := module.MustPortsOf[accmod.Ports](accounts)

	pipeline := ingestmod.New(deps, ingestmod.Injected{Accounts: accPorts})
	pipePorts := module.MustPortsOf[ingestmod.Ports](pipeline)

	operator := operatormod.New(deps, modkit.WithPorts(operatormod.Ports{
		Ingest: pipePorts.Ingest,
		Writer: accPorts.Writer,
	}))

	mods := []module.Module{accounts, pipeline, operator}

	httpkit.MountUnder(r, "/v1", httpkit.CommonStack(), func(api httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
