package oauth

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ScopeSet is an unordered set of OAuth scope names. It serializes to the
// whitespace-joined form used on the wire and in the token cache.
type ScopeSet map[string]struct{}

// NewScopeSet builds a set from individual scope names.
func NewScopeSet(scopes ...string) ScopeSet {
	s := make(ScopeSet, len(scopes))
	for _, scope := range scopes {
		if scope != "" {
			s[scope] = struct{}{}
		}
	}
	return s
}

// ParseScopeSet splits a whitespace-joined scope string into a set.
func ParseScopeSet(joined string) ScopeSet {
	return NewScopeSet(strings.Fields(joined)...)
}

// Contains reports whether the scope is in the set.
func (s ScopeSet) Contains(scope string) bool {
	_, ok := s[scope]
	return ok
}

// Equal reports whether both sets hold exactly the same scopes,
// regardless of how either was ordered when built.
func (s ScopeSet) Equal(other ScopeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for scope := range s {
		if _, ok := other[scope]; !ok {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the set.
func (s ScopeSet) Clone() ScopeSet {
	if s == nil {
		return nil
	}
	out := make(ScopeSet, len(s))
	for scope := range s {
		out[scope] = struct{}{}
	}
	return out
}

// Sorted returns the scopes as a sorted slice.
func (s ScopeSet) Sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for scope := range s {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

// String returns the whitespace-joined wire form, sorted for stable output.
func (s ScopeSet) String() string {
	return strings.Join(s.Sorted(), " ")
}

// MarshalText implements encoding.TextMarshaler.
func (s ScopeSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ScopeSet) UnmarshalText(text []byte) error {
	*s = ParseScopeSet(string(text))
	return nil
}

// Token is the credential a flow client manages: the bearer value itself
// plus the expiry and refresh state that drive the lifecycle.
//
// A Token is replaced wholesale on refresh, never mutated field by field.
type Token struct {
	// AccessToken is the opaque bearer credential sent on API requests.
	AccessToken string

	// ExpiresIn is the validity window the token endpoint reported.
	ExpiresIn time.Duration

	// ExpiresAt is the absolute expiry instant. Nil means the expiry is
	// unknown, and the token is treated as already expired.
	ExpiresAt *time.Time

	// RefreshToken renews the access token without user interaction.
	// Empty when the grant did not include one.
	RefreshToken string

	// Scopes is the permission set the server granted.
	Scopes ScopeSet
}

// IsExpired reports whether the token can no longer be used. A token
// without a known expiry counts as expired rather than as immortal.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt == nil {
		return true
	}
	return time.Now().After(*t.ExpiresAt)
}

// CanReauth reports whether the token can be renewed without sending the
// resource owner back through the authorization flow.
func (t *Token) CanReauth() bool {
	return t.RefreshToken != ""
}

// Clone returns an independent copy. Safe to call on a nil token.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	out := *t
	if t.ExpiresAt != nil {
		at := *t.ExpiresAt
		out.ExpiresAt = &at
	}
	out.Scopes = t.Scopes.Clone()
	return &out
}

// Equal reports whether both tokens match in every field, with scope
// comparison done as sets.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.AccessToken != other.AccessToken ||
		t.ExpiresIn != other.ExpiresIn ||
		t.RefreshToken != other.RefreshToken {
		return false
	}
	if (t.ExpiresAt == nil) != (other.ExpiresAt == nil) {
		return false
	}
	if t.ExpiresAt != nil && !t.ExpiresAt.Equal(*other.ExpiresAt) {
		return false
	}
	return t.Scopes.Equal(other.Scopes)
}

// tokenJSON is the cache file layout: expires_in in integer seconds,
// expires_at as ISO-8601, refresh_token nullable, scope space-joined.
type tokenJSON struct {
	AccessToken  string     `json:"access_token"`
	ExpiresIn    int64      `json:"expires_in"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	RefreshToken *string    `json:"refresh_token"`
	Scope        ScopeSet   `json:"scope"`
}

// MarshalJSON implements json.Marshaler using the cache file layout.
func (t Token) MarshalJSON() ([]byte, error) {
	blob := tokenJSON{
		AccessToken: t.AccessToken,
		ExpiresIn:   int64(t.ExpiresIn / time.Second),
		ExpiresAt:   t.ExpiresAt,
		Scope:       t.Scopes,
	}
	if t.RefreshToken != "" {
		rt := t.RefreshToken
		blob.RefreshToken = &rt
	}
	return json.Marshal(blob)
}

// UnmarshalJSON implements json.Unmarshaler using the cache file layout.
func (t *Token) UnmarshalJSON(data []byte) error {
	var blob tokenJSON
	if err := json.Unmarshal(data, &blob); err != nil {
		return fmt.Errorf("failed to parse token: %w", err)
	}
	*t = Token{
		AccessToken: blob.AccessToken,
		ExpiresIn:   time.Duration(blob.ExpiresIn) * time.Second,
		ExpiresAt:   blob.ExpiresAt,
		Scopes:      blob.Scope,
	}
	if blob.RefreshToken != nil {
		t.RefreshToken = *blob.RefreshToken
	}
	return nil
}

// ToOAuth2 converts the token for use with golang.org/x/oauth2.
func (t *Token) ToOAuth2() *oauth2.Token {
	out := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresAt != nil {
		out.Expiry = *t.ExpiresAt
	}
	return out
}

// TokenFromOAuth2 converts an x/oauth2 token into this package's form.
// A zero expiry maps to an unknown (nil) ExpiresAt, so the result counts
// as expired until proven otherwise.
func TokenFromOAuth2(src *oauth2.Token) *Token {
	if src == nil {
		return nil
	}
	out := &Token{
		AccessToken:  src.AccessToken,
		RefreshToken: src.RefreshToken,
	}
	if !src.Expiry.IsZero() {
		at := src.Expiry
		out.ExpiresAt = &at
		out.ExpiresIn = time.Until(at).Truncate(time.Second)
	}
	if scope, ok := src.Extra("scope").(string); ok {
		out.Scopes = ParseScopeSet(scope)
	}
	return out
}
