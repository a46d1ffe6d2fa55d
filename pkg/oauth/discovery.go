package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultMetadataCacheTTL is how long discovered metadata is reused
// before the well-known endpoint is consulted again.
const DefaultMetadataCacheTTL = 30 * time.Minute

// Metadata is OAuth 2.0 Authorization Server Metadata as defined in
// RFC 8414, plus the OIDC userinfo endpoint.
type Metadata struct {
	// Issuer is the authorization server's issuer identifier.
	Issuer string `json:"issuer"`

	// AuthorizationEndpoint is the URL of the authorization endpoint.
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// TokenEndpoint is the URL of the token endpoint.
	TokenEndpoint string `json:"token_endpoint"`

	// UserinfoEndpoint is the URL of the userinfo endpoint (OIDC).
	UserinfoEndpoint string `json:"userinfo_endpoint,omitempty"`

	// JwksURI is the URL of the JSON Web Key Set.
	JwksURI string `json:"jwks_uri,omitempty"`

	// ScopesSupported lists the OAuth 2.0 scope values supported.
	ScopesSupported []string `json:"scopes_supported,omitempty"`

	// ResponseTypesSupported lists the response_type values supported.
	ResponseTypesSupported []string `json:"response_types_supported,omitempty"`

	// GrantTypesSupported lists the grant types supported.
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// TokenEndpointAuthMethodsSupported lists the client authentication methods.
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE code challenge methods.
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`
}

// Endpoints returns the endpoint pair the flow clients need.
func (m *Metadata) Endpoints() Endpoints {
	return Endpoints{
		AuthURL:  m.AuthorizationEndpoint,
		TokenURL: m.TokenEndpoint,
	}
}

// SupportsPKCE reports whether the server advertises S256. Servers that
// do not list challenge methods at all are assumed to accept it.
func (m *Metadata) SupportsPKCE() bool {
	for _, method := range m.CodeChallengeMethodsSupported {
		if method == "S256" {
			return true
		}
	}
	return len(m.CodeChallengeMethodsSupported) == 0
}

// metadataCacheEntry holds cached metadata with its fetch timestamp.
type metadataCacheEntry struct {
	metadata  *Metadata
	fetchedAt time.Time
}

// Discovery resolves authorization server metadata from the well-known
// URLs, so callers can configure flow clients from an issuer URL alone.
// Results are cached with a TTL, and concurrent lookups for one issuer
// are deduplicated.
type Discovery struct {
	http   Doer
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*metadataCacheEntry
	ttl   time.Duration

	group singleflight.Group
}

// DiscoveryOption configures a Discovery.
type DiscoveryOption func(*Discovery)

// WithDiscoveryHTTPClient sets the transport used for metadata fetches.
func WithDiscoveryHTTPClient(d Doer) DiscoveryOption {
	return func(disc *Discovery) {
		disc.http = d
	}
}

// WithDiscoveryLogger sets a custom logger.
func WithDiscoveryLogger(logger *slog.Logger) DiscoveryOption {
	return func(disc *Discovery) {
		disc.logger = logger
	}
}

// WithMetadataCacheTTL sets how long discovered metadata is reused.
func WithMetadataCacheTTL(ttl time.Duration) DiscoveryOption {
	return func(disc *Discovery) {
		disc.ttl = ttl
	}
}

// NewDiscovery creates a metadata resolver.
func NewDiscovery(opts ...DiscoveryOption) *Discovery {
	disc := &Discovery{
		http:   &http.Client{Timeout: DefaultHTTPTimeout},
		logger: slog.Default(),
		cache:  make(map[string]*metadataCacheEntry),
		ttl:    DefaultMetadataCacheTTL,
	}
	for _, opt := range opts {
		opt(disc)
	}
	return disc
}

// DiscoverMetadata fetches metadata from the issuer's well-known
// endpoint. It tries RFC 8414 (/.well-known/oauth-authorization-server)
// first, then falls back to OpenID Connect
// (/.well-known/openid-configuration).
func (d *Discovery) DiscoverMetadata(ctx context.Context, issuer string) (*Metadata, error) {
	issuer = strings.TrimSuffix(issuer, "/")

	d.mu.RLock()
	if entry, ok := d.cache[issuer]; ok {
		if time.Since(entry.fetchedAt) < d.ttl {
			d.mu.RUnlock()
			return entry.metadata, nil
		}
	}
	d.mu.RUnlock()

	result, err, _ := d.group.Do(issuer, func() (interface{}, error) {
		// Double-check after winning the singleflight slot; a concurrent
		// fetch may have filled the cache already.
		d.mu.RLock()
		if entry, ok := d.cache[issuer]; ok {
			if time.Since(entry.fetchedAt) < d.ttl {
				d.mu.RUnlock()
				return entry.metadata, nil
			}
		}
		d.mu.RUnlock()

		return d.doDiscover(ctx, issuer)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Metadata), nil
}

func (d *Discovery) doDiscover(ctx context.Context, issuer string) (*Metadata, error) {
	metadata, err := d.fetch(ctx, issuer+"/.well-known/oauth-authorization-server")
	if err == nil {
		d.store(issuer, metadata)
		return metadata, nil
	}

	d.logger.Debug("RFC 8414 metadata fetch failed, trying OIDC",
		"issuer", issuer,
		"error", err)

	metadata, err = d.fetch(ctx, issuer+"/.well-known/openid-configuration")
	if err == nil {
		d.store(issuer, metadata)
		return metadata, nil
	}

	return nil, fmt.Errorf("failed to discover OAuth metadata for %s: %w", issuer, err)
}

func (d *Discovery) fetch(ctx context.Context, metadataURL string) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var metadata Metadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &metadata, nil
}

func (d *Discovery) store(issuer string, metadata *Metadata) {
	d.mu.Lock()
	d.cache[issuer] = &metadataCacheEntry{
		metadata:  metadata,
		fetchedAt: time.Now(),
	}
	d.mu.Unlock()

	d.logger.Debug("cached OAuth metadata",
		"issuer", issuer,
		"authorization_endpoint", metadata.AuthorizationEndpoint,
		"token_endpoint", metadata.TokenEndpoint)
}

// ClearCache drops all cached metadata, forcing the next lookup to hit
// the network.
func (d *Discovery) ClearCache() {
	d.mu.Lock()
	d.cache = make(map[string]*metadataCacheEntry)
	d.mu.Unlock()
}
