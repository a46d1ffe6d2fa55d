package oauth

import (
	"fmt"
	"net/url"
)

const (
	// DefaultCachePath is the token cache location when none is
	// configured: a dotfile in the working directory.
	DefaultCachePath = ".oauthkit_token_cache.json"

	// DefaultPaginationChunks is the page size handed to API iterators
	// built on top of a flow client.
	DefaultPaginationChunks = 50
)

// Credentials is the immutable client identity. It is never written to
// the token cache, and its secret never appears in formatted output.
type Credentials struct {
	ID     string
	Secret string
}

// NewCredentials builds a Credentials pair. The id is required; flows that
// authenticate with PKCE may leave the secret empty.
func NewCredentials(id, secret string) (Credentials, error) {
	c := Credentials{ID: id, Secret: secret}
	if err := c.validate(false); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

func (c Credentials) validate(requireSecret bool) error {
	if c.ID == "" {
		return fmt.Errorf("client id is required")
	}
	if requireSecret && c.Secret == "" {
		return fmt.Errorf("client secret is required for this flow")
	}
	return nil
}

// String implements fmt.Stringer, hiding the secret from log output.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ID:%s Secret:[REDACTED]}", c.ID)
}

// GoString implements fmt.GoStringer for %#v formatting, also hiding the
// secret.
func (c Credentials) GoString() string {
	return c.String()
}

// AuthConfig carries the OAuth parameters of the authorization-code
// flows. Immutable once handed to a flow client.
type AuthConfig struct {
	// RedirectURI receives the authorization callback. Required for the
	// authorization-code flows; it must match a URI registered with the
	// provider.
	RedirectURI string

	// State is the anti-forgery value embedded in the authorize URL and
	// checked against the callback. Left empty, a random 16-character
	// alphanumeric value is generated.
	State string

	// Scopes is the permission set requested from the resource owner.
	Scopes ScopeSet

	// Proxy optionally routes the default transport through an HTTP
	// proxy URL. Ignored when a custom Doer is supplied.
	Proxy string
}

// withDefaults validates the config and fills the generated fields,
// returning an independent copy.
func (a AuthConfig) withDefaults() (AuthConfig, error) {
	if a.RedirectURI == "" {
		return AuthConfig{}, fmt.Errorf("redirect URI is required")
	}
	if _, err := url.Parse(a.RedirectURI); err != nil {
		return AuthConfig{}, fmt.Errorf("invalid redirect URI: %w", err)
	}
	if a.Proxy != "" {
		if _, err := url.Parse(a.Proxy); err != nil {
			return AuthConfig{}, fmt.Errorf("invalid proxy URL: %w", err)
		}
	}
	if a.State == "" {
		state, err := GenerateState()
		if err != nil {
			return AuthConfig{}, err
		}
		a.State = state
	}
	a.Scopes = a.Scopes.Clone()
	return a, nil
}

// Endpoints locates the authorization server. Fill it directly or derive
// it from discovered Metadata.
type Endpoints struct {
	// AuthURL is the authorization endpoint the resource owner is sent to.
	AuthURL string

	// TokenURL exchanges authorization codes and refresh tokens for
	// access tokens.
	TokenURL string
}

func (e Endpoints) validate(requireAuthURL bool) error {
	if e.TokenURL == "" {
		return fmt.Errorf("token endpoint URL is required")
	}
	if _, err := url.Parse(e.TokenURL); err != nil {
		return fmt.Errorf("invalid token endpoint URL: %w", err)
	}
	if requireAuthURL {
		if e.AuthURL == "" {
			return fmt.Errorf("authorization endpoint URL is required")
		}
		if _, err := url.Parse(e.AuthURL); err != nil {
			return fmt.Errorf("invalid authorization endpoint URL: %w", err)
		}
	}
	return nil
}

// Config holds the client behavior knobs shared by all flows.
type Config struct {
	// BaseURL is the API prefix for requests made with tokens from this
	// client. The flow clients never call it themselves; it is carried
	// for the request glue built on top.
	BaseURL string

	// CachePath locates the token cache file.
	CachePath string

	// PaginationChunks is the page size hint for API iterators.
	PaginationChunks int

	// TokenRefreshing enables the automatic refresh of expired tokens
	// inside Token, AuthHeader, and Authorize.
	TokenRefreshing bool

	// TokenCaching enables persisting tokens to CachePath after every
	// successful exchange or refresh.
	TokenCaching bool
}

// DefaultConfig returns the stock behavior: caching and refreshing on,
// cache in the working directory, 50-item pages.
func DefaultConfig() Config {
	return Config{
		CachePath:        DefaultCachePath,
		PaginationChunks: DefaultPaginationChunks,
		TokenRefreshing:  true,
		TokenCaching:     true,
	}
}
