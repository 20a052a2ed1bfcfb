// Package domain defines the ingest pipeline contract
package domain

import (
	"context"

	"herald/internal/core/apjson"
	accdom "herald/internal/services/accounts/domain"
)

// Options control one ingest invocation
type Options struct {
	// RequestID correlates a discovery cascade; empty derives a fresh one
	RequestID string

	// OnlyKeyRefresh resolves strictly by identifier and never creates
	OnlyKeyRefresh bool

	// VerifiedViaSecondChannel asserts an independent identity check passed,
	// enabling duplicate reconciliation
	VerifiedViaSecondChannel bool

	// SignedWithAlreadyKnownKey suppresses the re-follow side effect on key change
	SignedWithAlreadyKnownKey bool
}

// IngestPort is the pipeline entry point.
// A nil account with a nil error is a silent abort
type IngestPort interface {
	Ingest(ctx context.Context, username, domain string, doc apjson.Doc, opts Options) (*accdom.Account, error)
}

// CollectionHead summarizes one remote collection fetch
type CollectionHead struct {
	TotalItems   *int64
	HasFirstPage bool
}

// FetcherPort issues bounded remote fetches.
// Every method is best effort from the pipeline's point of view; a failure
// degrades to unknown rather than failing the invocation
type FetcherPort interface {
	FetchDocument(ctx context.Context, url string) (apjson.Doc, error)
	FetchCollectionHead(ctx context.Context, url string) (*CollectionHead, error)
	FetchKeyPem(ctx context.Context, url string) (string, error)
}

// RejecterPort screens text against moderation word rules.
// Returns whether the text is rejected and the keyword that matched.
// An error means the screen itself failed; callers treat that as not rejected
type RejecterPort interface {
	Reject(ctx context.Context, text, field string) (bool, string, error)
}

// SoftwarePort identifies the software a remote domain runs, empty when unknown
type SoftwarePort interface {
	Software(ctx context.Context, domain string) (string, error)
}
