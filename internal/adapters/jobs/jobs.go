// Package jobs enqueues deferred side effects onto the shared work queue
package jobs

import (
	"context"
	"encoding/json"

	perr "herald/internal/platform/errors"
	"herald/internal/platform/store"
)

// QueueName is the list the workers drain
const QueueName = "herald:jobs"

// Job kinds understood by the workers
const (
	KindReFollow           = "re_follow"
	KindProtocolUpgrade    = "protocol_upgrade"
	KindSuspendPropagate   = "suspend_propagate"
	KindUnsuspendPropagate = "unsuspend_propagate"
	KindSyncFeatured       = "sync_featured_collection"
	KindSyncFeaturedTags   = "sync_featured_tags"
	KindVerifyLinks        = "verify_profile_links"
	KindInstanceMetadata   = "fetch_instance_metadata"
	KindRedownloadAvatar   = "redownload_avatar"
	KindRedownloadHeader   = "redownload_header"
	KindMergeDuplicates    = "merge_duplicate_accounts"
)

// Job is one unit of deferred work
type Job struct {
	Kind    string         `json:"job"`
	Account string         `json:"account,omitempty"`
	Domain  string         `json:"domain,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
}

// DispatchPort enqueues jobs for asynchronous execution
type DispatchPort interface {
	Dispatch(ctx context.Context, j Job) error
}

// Dispatcher pushes jobs through the KV queue seam
type Dispatcher struct {
	q store.Queue
}

// NewDispatcher constructs a dispatcher over the given queue seam
func NewDispatcher(q store.Queue) *Dispatcher {
	if q == nil {
		panic("jobs.Dispatcher requires a non nil Queue")
	}
	return &Dispatcher{q: q}
}

// Dispatch serializes and enqueues one job
func (d *Dispatcher) Dispatch(ctx context.Context, j Job) error {
	if j.Kind == "" {
		return perr.Newf(perr.ErrorCodeInvalidArgument, "jobs: empty kind")
	}
	payload, err := json.Marshal(j)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "jobs: marshal %s", j.Kind)
	}
	if err := d.q.Push(ctx, QueueName, payload); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "jobs: push %s", j.Kind)
	}
	return nil
}
