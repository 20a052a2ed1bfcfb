// Package domain holds DTOs for the operator ingest endpoints
package domain

import (
	"time"

	accdom "herald/internal/services/accounts/domain"
)

// IngestInput carries one actor document through the operator API
type IngestInput struct {
	Username string         `json:"username" validate:"required,min=1,max=255"`
	Domain   string         `json:"domain" validate:"required,hostname_rfc1123"`
	Document map[string]any `json:"document" validate:"required"`

	RequestID string `json:"request_id,omitempty" validate:"omitempty,max=128"`

	// refresh the signing key only, never creating or touching the profile
	OnlyKey bool `json:"only_key,omitempty"`

	// the caller verified the sender through a second channel (webfinger etc)
	Verified bool `json:"verified,omitempty"`

	// the document arrived signed with a key we already store
	KnownKey bool `json:"known_key,omitempty"`
}

// ApproveInput names the pending account to approve
type ApproveInput struct {
	Identifier string `json:"identifier" validate:"required,url"`
}

// AccountOutput is the trimmed account view returned to operators
type AccountOutput struct {
	Identifier    string `json:"identifier"`
	Username      string `json:"username"`
	Domain        string `json:"domain"`
	DisplayName   string `json:"display_name,omitempty"`
	ActorType     string `json:"actor_type,omitempty"`
	Searchability string `json:"searchability"`

	Suspended     bool `json:"suspended"`
	RemotePending bool `json:"remote_pending"`

	StatusesCount  *int64 `json:"statuses_count,omitempty"`
	FollowersCount *int64 `json:"followers_count,omitempty"`

	LastDiscoveredAt *time.Time `json:"last_discovered_at,omitempty"`
}

// FromAccount projects the canonical record into the operator view
func FromAccount(a *accdom.Account) *AccountOutput {
	if a == nil {
		return nil
	}
	return &AccountOutput{
		Identifier:       a.Identifier,
		Username:         a.Username,
		Domain:           a.Domain,
		DisplayName:      a.DisplayName,
		ActorType:        a.ActorType,
		Searchability:    string(a.Searchability),
		Suspended:        a.Suspended,
		RemotePending:    a.RemotePending,
		StatusesCount:    a.StatusesCount,
		FollowersCount:   a.FollowersCount,
		LastDiscoveredAt: a.LastDiscoveredAt,
	}
}
