// Package fedi provides a bounded ActivityPub fetch client for the ingest pipeline
package fedi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"herald/internal/core/apjson"
	"herald/internal/core/domains"
	perr "herald/internal/platform/errors"
	"herald/internal/platform/logger"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultUA       = "herald"
	defaultMaxBytes = 1 << 20

	acceptActivity = `application/activity+json, application/ld+json; profile="https://www.w3.org/ns/activitystreams"`
)

// Options configures the Client
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// MaxBytes caps each response body; oversized documents are refused
	MaxBytes int64
}

// Client fetches remote actor material with strict bounds.
// The ingest pipeline runs inside a held lock so there are no
// synchronous retries; transient failures surface to the caller
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// CollectionHead is the cheap summary of a remote collection page
type CollectionHead struct {
	// TotalItems is nil when the collection does not advertise a count
	TotalItems *int64

	// HasFirstPage reports whether a first page link is present
	HasFirstPage bool
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = defaultMaxBytes
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("fedi"),
		now:  time.Now,
	}
}

// FetchDocument fetches one ActivityPub document as a generic JSON object
func (c *Client) FetchDocument(ctx context.Context, url string) (apjson.Doc, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var doc apjson.Doc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "fedi document decode %s", url)
	}
	return doc, nil
}

// FetchCollectionHead fetches a collection and summarizes its count and paging
func (c *Client) FetchCollectionHead(ctx context.Context, url string) (*CollectionHead, error) {
	doc, err := c.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	head := &CollectionHead{}
	if n, ok := doc["totalItems"].(float64); ok {
		v := int64(n)
		head.TotalItems = &v
	}
	if _, ok := doc["first"]; ok {
		head.HasFirstPage = doc["first"] != nil
	}
	return head, nil
}

// FetchKeyPem fetches a key document and returns the PEM material.
// The key id may resolve to the actor document itself, so both the
// top-level and the nested publicKey shapes are accepted
func (c *Client) FetchKeyPem(ctx context.Context, url string) (string, error) {
	doc, err := c.FetchDocument(ctx, url)
	if err != nil {
		return "", err
	}
	if pem := apjson.Str(doc, "publicKeyPem"); pem != "" {
		return pem, nil
	}
	if key := apjson.Obj(doc, "publicKey"); key != nil {
		if pem := apjson.Str(key, "publicKeyPem"); pem != "" {
			return pem, nil
		}
	}
	return "", perr.Newf(perr.ErrorCodeNotFound, "fedi no key material at %s", url)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if !domains.AllowedScheme(url) {
		return nil, perr.Newf(perr.ErrorCodeValidation, "fedi refusing scheme for %s", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "fedi new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", acceptActivity)

	start := c.now()
	resp, err := c.http.Do(req)
	lat := c.now().Sub(start)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "fedi fetch %s", url)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("latency", lat).
		Msg("fedi http response")

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, perr.Newf(perr.ErrorCodeNotFound, "fedi remote says gone %s", url)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "fedi remote rate limited %s", url)
	default:
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "fedi unexpected status %d for %s", resp.StatusCode, url)
	}

	// read one byte past the cap to tell truncation from an exact fit
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.opts.MaxBytes+1))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "fedi read %s", url)
	}
	if int64(len(body)) > c.opts.MaxBytes {
		return nil, perr.Newf(perr.ErrorCodeValidation, "fedi document exceeds %d bytes %s", c.opts.MaxBytes, url)
	}
	return body, nil
}
