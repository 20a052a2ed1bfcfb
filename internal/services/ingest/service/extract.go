package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"herald/internal/core/apjson"
	"herald/internal/core/domains"
	"herald/internal/core/normalize"
	accdom "herald/internal/services/accounts/domain"
	instdom "herald/internal/services/instances/domain"
)

var supportedActorTypes = []string{"Person", "Service", "Group", "Organization", "Application"}

// audience markers recognized on searchableBy / subscribableBy
var publicCollectionMarkers = map[string]bool{
	"https://www.w3.org/ns/activitystreams#Public": true,
	"as:Public": true,
	"Public":    true,
}

var limitedAudienceMarkers = map[string]bool{
	"kmyblue:Limited": true,
	"as:Limited":      true,
}

// biography markers, newer tag vocabulary and the legacy underscore one
var (
	searchabilityTagRe    = regexp.MustCompile(`\[searchability:(public|followers|reactors|private)\]`)
	searchabilityLegacyRe = regexp.MustCompile(`searchable_by_(all_users|followers_only|reacted_users_only|nobody)`)
)

const subscribableOptOutMarker = "[subscribable:no]"

// setProtocolAttributes applies the transport endpoints taken verbatim from
// the document; these update on every ingest regardless of suspension
func setProtocolAttributes(acc *accdom.Account, doc apjson.Doc) {
	acc.Protocol = accdom.ProtocolFederated
	if t := apjson.PickType(doc, supportedActorTypes); t != "" {
		acc.ActorType = t
	}
	acc.InboxURL = apjson.FirstString(doc, "inbox")
	acc.OutboxURL = apjson.FirstString(doc, "outbox")
	acc.FollowersURL = apjson.FirstString(doc, "followers")
	acc.FeaturedURL = apjson.FirstString(doc, "featured")

	acc.SharedInboxURL = ""
	if ep := apjson.Obj(doc, "endpoints"); ep != nil {
		acc.SharedInboxURL = apjson.Str(ep, "sharedInbox")
	}
	if acc.SharedInboxURL == "" {
		acc.SharedInboxURL = apjson.Str(doc, "sharedInbox")
	}

	// a vanity profile URL is only trusted when it lives on the actor's own host
	if u := pageURL(doc); u != "" && domains.AllowedScheme(u) && domains.SameOrigin(acc.Identifier, u) {
		acc.URL = u
	}
}

// pageURL accepts the profile page as a string, a link object, or an array of either
func pageURL(doc apjson.Doc) string {
	switch v := apjson.First(doc["url"]).(type) {
	case string:
		return v
	case map[string]any:
		if h := apjson.Str(v, "href"); h != "" {
			return h
		}
		return apjson.Str(v, "url")
	default:
		return ""
	}
}

// setKey applies the signing key, dereferencing a key id when the PEM is not inline.
// Fetch failure leaves the stored key untouched
func (s *Svc) setKey(ctx context.Context, acc *accdom.Account, doc apjson.Doc) {
	key := apjson.Obj(doc, "publicKey")
	if key != nil {
		if pem := apjson.Str(key, "publicKeyPem"); pem != "" {
			acc.PublicKey = pem
			return
		}
	}
	ref := apjson.FirstString(doc, "publicKey")
	if ref == "" && key != nil {
		ref = apjson.Str(key, "id")
	}
	if ref == "" {
		return
	}
	pem, err := s.fetch.FetchKeyPem(ctx, ref)
	if err != nil {
		return
	}
	acc.PublicKey = pem
}

// setImmediateAttributes applies the profile attributes that need no network access
func (s *Svc) setImmediateAttributes(ctx context.Context, acc *accdom.Account, doc apjson.Doc, created bool) {
	acc.DisplayName = normalize.Sanitize(apjson.Str(doc, "name"))
	acc.Note = normalize.Sanitize(apjson.Str(doc, "summary"))
	acc.Locked, _ = apjson.Bool(doc, "manuallyApprovesFollowers")
	acc.Discoverable, _ = apjson.Bool(doc, "discoverable")
	acc.Indexable, _ = apjson.Bool(doc, "indexable")
	acc.Memorial, _ = apjson.Bool(doc, "memorial")

	acc.Fields = propertyFields(doc, s.cfg.MaxFields)
	acc.AlsoKnownAs = apjson.Strings(doc, "alsoKnownAs")
	acc.MovedToIdentifier = apjson.FirstString(doc, "movedTo")
	acc.Settings = vendorSettings(doc)

	acc.Searchability = s.inferSearchability(ctx, acc, doc)
	if acc.MasterSettings == nil {
		acc.MasterSettings = map[string]any{}
	}
	acc.MasterSettings["subscription_policy"] = string(inferSubscriptionPolicy(acc, doc))

	if created {
		if ts, err := time.Parse(time.RFC3339, apjson.Str(doc, "published")); err == nil {
			acc.CreatedAt = ts.UTC()
		}
	}
}

// propertyFields projects PropertyValue attachments into ordered fields, capped
func propertyFields(doc apjson.Doc, max int) []accdom.Field {
	pairs := apjson.PropertyValues(doc, "attachment")
	if max > 0 && len(pairs) > max {
		pairs = pairs[:max]
	}
	out := make([]accdom.Field, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, accdom.Field{Name: p[0], Value: p[1]})
	}
	return out
}

// vendorSettings accepts otherSetting property pairs verbatim; later keys win
func vendorSettings(doc apjson.Doc) map[string]any {
	pairs := apjson.PropertyValues(doc, "otherSetting")
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		out[p[0]] = p[1]
	}
	return out
}

// inferSearchability resolves the search audience in strict priority order:
// explicit searchableBy audience, then biography markers, then the indexable
// flag for software families that expose it, then the safe default
func (s *Svc) inferSearchability(ctx context.Context, acc *accdom.Account, doc apjson.Doc) accdom.Searchability {
	if audience := apjson.Strings(doc, "searchableBy"); audience != nil {
		return audienceSearchability(audience, acc.FollowersURL)
	}

	if v := bioSearchability(acc.Note); v != "" {
		return v
	}

	software, err := s.software.Software(ctx, acc.Domain)
	if err == nil && instdom.MisskeyFamily(software) {
		indexable, ok := apjson.Bool(doc, "indexable")
		if !ok || indexable {
			return accdom.SearchabilityPublic
		}
		return accdom.SearchabilityLimited
	}

	return accdom.SearchabilityDirect
}

func audienceSearchability(audience []string, followersURL string) accdom.Searchability {
	for _, a := range audience {
		if publicCollectionMarkers[a] {
			return accdom.SearchabilityPublic
		}
	}
	for _, a := range audience {
		if followersURL != "" && a == followersURL {
			return accdom.SearchabilityPrivate
		}
	}
	for _, a := range audience {
		if limitedAudienceMarkers[a] {
			return accdom.SearchabilityLimited
		}
	}
	return accdom.SearchabilityDirect
}

// the legacy underscore vocabulary outranks the newer bracket tag when a
// biography carries both
func bioSearchability(note string) accdom.Searchability {
	if m := searchabilityLegacyRe.FindStringSubmatch(note); m != nil {
		switch m[1] {
		case "all_users":
			return accdom.SearchabilityPublic
		case "followers_only":
			return accdom.SearchabilityPrivate
		case "reacted_users_only":
			return accdom.SearchabilityDirect
		case "nobody":
			return accdom.SearchabilityLimited
		}
	}
	if m := searchabilityTagRe.FindStringSubmatch(note); m != nil {
		switch m[1] {
		case "public":
			return accdom.SearchabilityPublic
		case "followers":
			return accdom.SearchabilityPrivate
		case "reactors":
			return accdom.SearchabilityDirect
		case "private":
			return accdom.SearchabilityLimited
		}
	}
	return ""
}

// inferSubscriptionPolicy resolves who may subscribe: the explicit audience
// wins, else a literal opt-out marker in the biography blocks
func inferSubscriptionPolicy(acc *accdom.Account, doc apjson.Doc) accdom.SubscriptionPolicy {
	if audience := apjson.Strings(doc, "subscribableBy"); audience != nil {
		for _, a := range audience {
			if publicCollectionMarkers[a] {
				return accdom.SubscriptionAllow
			}
		}
		for _, a := range audience {
			if acc.FollowersURL != "" && a == acc.FollowersURL {
				return accdom.SubscriptionFollowersOnly
			}
		}
		return accdom.SubscriptionBlock
	}
	if strings.Contains(acc.Note, subscribableOptOutMarker) {
		return accdom.SubscriptionBlock
	}
	return accdom.SubscriptionAllow
}

// setImage resolves one image reference, dereferencing a bare id once.
// A document carrying neither an inline URL nor a reference clears the
// stored value so a removed avatar or header federates. Returns whether a
// usable URL was applied; a false return with a non empty reference means
// the caller should schedule a redownload job, keeping the stored value
// until the retry lands
func (s *Svc) setImage(ctx context.Context, doc apjson.Doc, key string, dst *string) (ok, failed bool) {
	url, ref := apjson.ImageURL(doc, key)
	if url != "" {
		*dst = url
		return true, false
	}
	if ref == "" {
		*dst = ""
		return false, false
	}
	fetched, err := s.fetch.FetchDocument(ctx, ref)
	if err != nil {
		return false, true
	}
	if u := apjson.Str(fetched, "url"); u != "" {
		*dst = u
		return true, false
	}
	for _, link := range apjson.Objs(fetched, "url") {
		if h := apjson.Str(link, "href"); h != "" {
			*dst = h
			return true, false
		}
	}
	return false, true
}
