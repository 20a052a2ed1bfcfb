// Package domain defines the canonical account model shared by the ingestion pipeline
package domain

import "time"

// Protocol is the transport an account federates over
type Protocol string

// Protocols
const (
	ProtocolFederated Protocol = "activitypub"
)

// Searchability controls which audiences may index an account's posts
// never empty after an update; Direct is the safe default
type Searchability string

// Searchability values
const (
	SearchabilityPublic  Searchability = "public"
	SearchabilityPrivate Searchability = "private"
	SearchabilityLimited Searchability = "limited"
	SearchabilityDirect  Searchability = "direct"
)

// SubscriptionPolicy controls who may subscribe to an account's posts
type SubscriptionPolicy string

// SubscriptionPolicy values
const (
	SubscriptionAllow         SubscriptionPolicy = "allow"
	SubscriptionFollowersOnly SubscriptionPolicy = "followers_only"
	SubscriptionBlock         SubscriptionPolicy = "block"
)

// SuspensionOrigin records who suspended an account
type SuspensionOrigin string

// SuspensionOrigin values; empty means not suspended
const (
	SuspensionNone   SuspensionOrigin = ""
	SuspensionLocal  SuspensionOrigin = "local"
	SuspensionRemote SuspensionOrigin = "remote"
)

// BlockSeverity is the administrative domain block level
type BlockSeverity string

// BlockSeverity values
const (
	SeveritySuspend BlockSeverity = "suspend"
	SeveritySilence BlockSeverity = "silence"
)

// Field is one ordered profile metadata pair
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Account is the canonical local record for a remote actor
// Identifier is immutable once set; see the freeze rules in the ingest service
type Account struct {
	ID         string
	Identifier string
	Username   string
	Domain     string

	Protocol  Protocol
	ActorType string
	PublicKey string

	InboxURL       string
	OutboxURL      string
	SharedInboxURL string
	FollowersURL   string
	FeaturedURL    string
	URL            string

	DisplayName  string
	Note         string
	Locked       bool
	Discoverable bool
	Indexable    bool
	Memorial     bool

	Fields      []Field
	AlsoKnownAs []string

	Searchability Searchability

	// MasterSettings holds internal-only settings such as subscription_policy
	MasterSettings map[string]any

	// Settings holds vendor extension pairs accepted verbatim
	Settings map[string]any

	AvatarRemoteURL string
	HeaderRemoteURL string

	// nil means unknown, never coerced to zero
	StatusesCount   *int64
	FollowingCount  *int64
	FollowersCount  *int64
	HideCollections *bool

	Suspended        bool
	SuspensionOrigin SuspensionOrigin
	RemotePending    bool
	SuspendedAt      *time.Time
	SilencedAt       *time.Time

	MovedToIdentifier string

	LastDiscoveredAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsRemote reports whether the account originates off this server
// this pipeline only ever produces remote accounts
func (a *Account) IsRemote() bool { return a.Domain != "" }

// SubscriptionPolicyValue reads the policy out of MasterSettings with the safe default
func (a *Account) SubscriptionPolicyValue() SubscriptionPolicy {
	if a.MasterSettings == nil {
		return SubscriptionAllow
	}
	if s, ok := a.MasterSettings["subscription_policy"].(string); ok && s != "" {
		return SubscriptionPolicy(s)
	}
	return SubscriptionAllow
}

// DomainBlock is an administrative rule applied to a remote domain
type DomainBlock struct {
	Domain      string
	Severity    BlockSeverity
	RejectMedia bool
	CreatedAt   time.Time
}

// Suspends reports whether the block severity suspends accounts
func (b *DomainBlock) Suspends() bool { return b != nil && b.Severity == SeveritySuspend }

// Silences reports whether the block severity silences accounts
func (b *DomainBlock) Silences() bool { return b != nil && b.Severity == SeveritySilence }
