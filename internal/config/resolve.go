package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"oauthkit/pkg/oauth"
)

// Resolved carries everything a command needs to build a flow client
// for one profile: the merged profile, the credentials, and the
// pkg/oauth configuration structs derived from it.
type Resolved struct {
	// Name is the profile name that was selected.
	Name string

	// Profile is the entry after environment overrides were applied.
	Profile Profile

	// Creds pairs the client id with the environment-sourced secret.
	Creds oauth.Credentials

	// Auth holds the authorization-flow parameters.
	Auth oauth.AuthConfig

	// Endpoints may be incomplete when the profile names an issuer;
	// NeedsDiscovery reports that, and the caller fills them from
	// discovered metadata.
	Endpoints oauth.Endpoints

	// Client is the behavior configuration handed to the flow client.
	Client oauth.Config
}

// NeedsDiscovery reports whether the endpoints must be discovered from
// the issuer before a flow client can be built. The client-credentials
// flow never needs an authorization endpoint, so a missing AuthURL only
// counts for the code flows.
func (r Resolved) NeedsDiscovery() bool {
	if r.Profile.Issuer == "" {
		return false
	}
	if r.Endpoints.TokenURL == "" {
		return true
	}
	return r.Profile.Flow != FlowClientCreds && r.Endpoints.AuthURL == ""
}

// SelectProfile picks the profile to operate on: the explicit name
// when given, else the configured default, else the sole entry.
func (s Settings) SelectProfile(name string) (string, Profile, error) {
	if name != "" {
		profile, ok := s.Profiles[name]
		if !ok {
			return "", Profile{}, fmt.Errorf("unknown profile %q (known: %s)", name, s.profileNames())
		}
		return name, profile, nil
	}
	if s.DefaultProfile != "" {
		profile, ok := s.Profiles[s.DefaultProfile]
		if !ok {
			return "", Profile{}, fmt.Errorf("default profile %q is not defined", s.DefaultProfile)
		}
		return s.DefaultProfile, profile, nil
	}
	if len(s.Profiles) == 1 {
		for name, profile := range s.Profiles {
			return name, profile, nil
		}
	}
	if len(s.Profiles) == 0 {
		return "", Profile{}, fmt.Errorf("no profiles configured; add one to config.yaml")
	}
	return "", Profile{}, fmt.Errorf("multiple profiles configured and no default set; pass --profile (known: %s)", s.profileNames())
}

func (s Settings) profileNames() string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Resolve merges the selected profile with the environment overrides
// and derives the pkg/oauth configuration. configPath locates the
// per-profile token cache default.
func Resolve(settings Settings, overrides EnvOverrides, configPath, name string) (Resolved, error) {
	profileName, profile, err := settings.SelectProfile(name)
	if err != nil {
		return Resolved{}, err
	}

	if overrides.ClientID != "" {
		profile.ClientID = overrides.ClientID
	}
	if overrides.RedirectURI != "" {
		profile.RedirectURI = overrides.RedirectURI
	}
	if profile.Flow == "" {
		profile.Flow = FlowPKCE
	}

	switch profile.Flow {
	case FlowAuthCode, FlowPKCE, FlowClientCreds:
	default:
		return Resolved{}, fmt.Errorf("profile %q has unknown flow %q (known: %s, %s, %s)",
			profileName, profile.Flow, FlowAuthCode, FlowPKCE, FlowClientCreds)
	}

	if profile.ClientID == "" {
		return Resolved{}, fmt.Errorf("profile %q has no client id; set clientID in config.yaml or OAUTHKIT_CLIENT_ID", profileName)
	}
	if profile.Issuer == "" && profile.TokenURL == "" {
		return Resolved{}, fmt.Errorf("profile %q names neither an issuer nor a tokenURL", profileName)
	}
	if profile.Flow != FlowClientCreds && profile.RedirectURI == "" {
		return Resolved{}, fmt.Errorf("profile %q has no redirect URI; set redirectURI in config.yaml or OAUTHKIT_REDIRECT_URI", profileName)
	}
	if profile.Flow != FlowPKCE && overrides.ClientSecret == "" {
		return Resolved{}, fmt.Errorf("profile %q uses the %s flow, which needs OAUTHKIT_CLIENT_SECRET", profileName, profile.Flow)
	}

	client := oauth.DefaultConfig()
	client.BaseURL = profile.BaseURL
	client.CachePath = ProfileCachePath(configPath, profileName, profile)
	if profile.PaginationChunks > 0 {
		client.PaginationChunks = profile.PaginationChunks
	}
	if profile.TokenRefreshing != nil {
		client.TokenRefreshing = *profile.TokenRefreshing
	}

	return Resolved{
		Name:    profileName,
		Profile: profile,
		Creds:   oauth.Credentials{ID: profile.ClientID, Secret: overrides.ClientSecret},
		Auth: oauth.AuthConfig{
			RedirectURI: profile.RedirectURI,
			Scopes:      oauth.NewScopeSet(profile.Scopes...),
		},
		Endpoints: oauth.Endpoints{
			AuthURL:  profile.AuthURL,
			TokenURL: profile.TokenURL,
		},
		Client: client,
	}, nil
}

// TokenCachePath is the default per-profile token cache location under
// the config directory.
func TokenCachePath(configPath, profileName string) string {
	return filepath.Join(configPath, "tokens", profileName+".json")
}

// ProfileCachePath returns the token cache location for a profile,
// honoring its cachePath override. Commands that only inspect or remove
// cached tokens use this directly, without resolving credentials.
func ProfileCachePath(configPath, profileName string, profile Profile) string {
	if profile.CachePath != "" {
		return profile.CachePath
	}
	return TokenCachePath(configPath, profileName)
}
