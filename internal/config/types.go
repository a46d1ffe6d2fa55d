package config

// FlowKind selects which OAuth flow a profile drives.
type FlowKind string

const (
	// FlowAuthCode is the authorization-code flow for confidential
	// clients holding a secret.
	FlowAuthCode FlowKind = "authorization_code"

	// FlowPKCE is the authorization-code flow with PKCE, for public
	// clients without a secret.
	FlowPKCE FlowKind = "pkce"

	// FlowClientCreds is the client-credentials flow for
	// machine-to-machine access.
	FlowClientCreds FlowKind = "client_credentials"
)

// Settings is the top-level structure of config.yaml.
type Settings struct {
	// DefaultProfile names the profile used when none is given on the
	// command line.
	DefaultProfile string `yaml:"defaultProfile,omitempty"`

	// Profiles maps profile names to provider entries.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile describes one provider entry in config.yaml. Client secrets
// never appear here; they are sourced from the environment only.
type Profile struct {
	// Issuer is the authorization server base URL. When the endpoint
	// URLs below are empty they are discovered from the issuer's
	// well-known metadata.
	Issuer string `yaml:"issuer,omitempty"`

	// AuthURL and TokenURL pin the endpoints explicitly, skipping
	// discovery.
	AuthURL  string `yaml:"authURL,omitempty"`
	TokenURL string `yaml:"tokenURL,omitempty"`

	// ClientID identifies the registered client.
	ClientID string `yaml:"clientID,omitempty"`

	// RedirectURI receives the authorization callback. Loopback URIs
	// get a local callback server; anything else falls back to the
	// paste-the-redirect prompt.
	RedirectURI string `yaml:"redirectURI,omitempty"`

	// Scopes to request from the resource owner.
	Scopes []string `yaml:"scopes,omitempty"`

	// Flow defaults to pkce when empty.
	Flow FlowKind `yaml:"flow,omitempty"`

	// BaseURL is the API prefix for requests made with this profile's
	// tokens.
	BaseURL string `yaml:"baseURL,omitempty"`

	// CachePath overrides the per-profile token cache location.
	CachePath string `yaml:"cachePath,omitempty"`

	// PaginationChunks overrides the page size hint.
	PaginationChunks int `yaml:"paginationChunks,omitempty"`

	// TokenRefreshing disables automatic refresh when set to false.
	// Nil means the default (on).
	TokenRefreshing *bool `yaml:"tokenRefreshing,omitempty"`
}

// DefaultSettings returns the configuration used when no config.yaml
// exists: no profiles, everything supplied by flags and environment.
func DefaultSettings() Settings {
	return Settings{
		Profiles: map[string]Profile{},
	}
}
