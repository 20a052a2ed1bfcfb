package service

import (
	"context"

	"herald/internal/core/apjson"
	accdom "herald/internal/services/accounts/domain"
	"herald/internal/services/ingest/domain"
)

// collector memoizes collection head fetches for one pipeline invocation.
// Failures memoize as nil so a flaky collection is asked about at most once
type collector struct {
	fetch domain.FetcherPort
	memo  map[string]*domain.CollectionHead
}

func newCollector(fetch domain.FetcherPort) *collector {
	return &collector{fetch: fetch, memo: map[string]*domain.CollectionHead{}}
}

func (c *collector) head(ctx context.Context, url string) *domain.CollectionHead {
	if url == "" {
		return nil
	}
	if h, seen := c.memo[url]; seen {
		return h
	}
	h, err := c.fetch.FetchCollectionHead(ctx, url)
	if err != nil {
		h = nil
	}
	c.memo[url] = h
	return h
}

// setCollectionCounts populates status/follow counts from the advertised
// collections and derives whether the account hides its social graph.
// Counts stay nil when unknown, never coerced to zero; an account that
// advertises no enumerable graph collections counts as hiding them
func setCollectionCounts(ctx context.Context, c *collector, acc *accdom.Account, doc apjson.Doc) {
	followingURL := apjson.FirstString(doc, "following")

	if h := c.head(ctx, acc.OutboxURL); h != nil && h.TotalItems != nil {
		acc.StatusesCount = h.TotalItems
	}
	following := c.head(ctx, followingURL)
	if following != nil && following.TotalItems != nil {
		acc.FollowingCount = following.TotalItems
	}
	followers := c.head(ctx, acc.FollowersURL)
	if followers != nil && followers.TotalItems != nil {
		acc.FollowersCount = followers.TotalItems
	}

	enumerable := following != nil && following.HasFirstPage &&
		followers != nil && followers.HasFirstPage
	hide := !enumerable
	acc.HideCollections = &hide
}
