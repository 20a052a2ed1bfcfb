// Package http provides http transport for the operator ingest endpoints
package http

import (
	stdhttp "net/http"

	"herald/internal/core/version"
	"herald/internal/modkit/httpkit"
	"herald/internal/services/api/ingest/domain"
	svc "herald/internal/services/api/ingest/service"
)

// Register mounts the operator endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}
	httpkit.PostJSON[domain.IngestInput](r, "/ingest", h.ingest)
	httpkit.PostJSON[domain.ApproveInput](r, "/admin/accounts/approve", h.approve)
	httpkit.Get(r, "/version", h.version)
}

type handlers struct{ svc svc.Service }

func (h *handlers) ingest(r *stdhttp.Request, in domain.IngestInput) (any, error) {
	return h.svc.Ingest(r.Context(), in)
}

func (h *handlers) approve(r *stdhttp.Request, in domain.ApproveInput) (any, error) {
	return h.svc.Approve(r.Context(), in)
}

func (h *handlers) version(_ *stdhttp.Request) (any, error) {
	return version.Info(), nil
}
