// Package domain defines the custom emoji model
package domain

import (
	"context"
	"time"
)

// Emoji is one custom emoji owned by a remote domain
type Emoji struct {
	Shortcode      string
	Domain         string
	ImageRemoteURL string
	URI            string
	IsSensitive    bool
	License        string
	UpdatedAt      *time.Time
}

// Entry is an emoji declaration extracted from an actor document
type Entry struct {
	Shortcode      string
	URI            string
	ImageRemoteURL string
	IsSensitive    bool
	License        string
	UpdatedAt      *time.Time
}

// SyncPort reconciles declared emoji against stored state
type SyncPort interface {
	Sync(ctx context.Context, domain string, entries []Entry) error
}

// ShouldReplace reports whether a declared entry supersedes the stored emoji.
// New shortcodes, changed images, and equal-or-newer timestamps all replace;
// a strictly older declaration without an image change is dropped
func ShouldReplace(stored *Emoji, e Entry) bool {
	if stored == nil {
		return true
	}
	if stored.ImageRemoteURL != e.ImageRemoteURL {
		return true
	}
	if e.UpdatedAt == nil {
		return false
	}
	if stored.UpdatedAt == nil {
		return true
	}
	return !e.UpdatedAt.Before(*stored.UpdatedAt)
}
