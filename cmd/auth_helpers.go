package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"oauthkit/internal/cli"
	"oauthkit/internal/config"
	"oauthkit/internal/login"
	"oauthkit/pkg/logging"
	"oauthkit/pkg/oauth"
)

// resolveProfile loads the configuration and environment overrides and
// resolves the selected profile into flow client inputs.
func resolveProfile() (config.Resolved, error) {
	settings, err := config.LoadSettings(authConfigPath)
	if err != nil {
		return config.Resolved{}, err
	}
	overrides, err := config.LoadEnv()
	if err != nil {
		return config.Resolved{}, err
	}
	return config.Resolve(settings, overrides, authConfigPath, authProfile)
}

// ensureEndpoints fills in any endpoint the profile did not pin by
// querying the issuer's metadata document. Pinned endpoints win.
func ensureEndpoints(ctx context.Context, resolved *config.Resolved) error {
	if !resolved.NeedsDiscovery() {
		return nil
	}

	discovery := oauth.NewDiscovery(oauth.WithDiscoveryLogger(logging.Logger()))
	metadata, err := discovery.DiscoverMetadata(ctx, resolved.Profile.Issuer)
	if err != nil {
		if connErr := cli.ClassifyConnectionError(err, resolved.Profile.Issuer); connErr.Type != cli.ConnectionErrorUnknown {
			return connErr
		}
		return fmt.Errorf("failed to discover endpoints for %q: %w", resolved.Profile.Issuer, err)
	}

	endpoints := metadata.Endpoints()
	if resolved.Endpoints.AuthURL == "" {
		resolved.Endpoints.AuthURL = endpoints.AuthURL
	}
	if resolved.Endpoints.TokenURL == "" {
		resolved.Endpoints.TokenURL = endpoints.TokenURL
	}

	if resolved.Profile.Flow == config.FlowPKCE && !metadata.SupportsPKCE() {
		logging.Warn("auth", "issuer %s does not advertise PKCE support, continuing anyway", resolved.Profile.Issuer)
	}
	return nil
}

// clientOptions builds the flow client options every auth command uses.
func clientOptions(resolved config.Resolved) []oauth.Option {
	return []oauth.Option{
		oauth.WithLogger(logging.Logger()),
		oauth.WithConfig(resolved.Client),
	}
}

// codeFlowClient is the slice of an authorization-code flow client the
// auth commands use. Both code flow variants satisfy it.
type codeFlowClient interface {
	login.Client
	RefreshToken(ctx context.Context, refreshToken string) error
}

// newCodeFlowClient constructs the flow client for a code flow profile.
func newCodeFlowClient(resolved config.Resolved) (codeFlowClient, error) {
	opts := clientOptions(resolved)
	switch resolved.Profile.Flow {
	case config.FlowAuthCode:
		client, err := oauth.NewAuthCodeClient(resolved.Creds, resolved.Auth, resolved.Endpoints, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.FlowPKCE:
		client, err := oauth.NewAuthCodePKCEClient(resolved.Creds, resolved.Auth, resolved.Endpoints, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("profile %q uses the %s flow, which has no browser login", resolved.Name, resolved.Profile.Flow)
	}
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		return fmt.Sprintf("%d minute%s", minutes, plural(minutes))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		return fmt.Sprintf("%d hour%s", hours, plural(hours))
	}
	days := int(d.Hours() / 24)
	return fmt.Sprintf("%d day%s", days, plural(days))
}

// formatExpiryWithDirection renders an expiry instant relative to now,
// coloring it when the instant is already in the past.
func formatExpiryWithDirection(expiresAt time.Time) string {
	remaining := time.Until(expiresAt)
	if remaining >= 0 {
		return fmt.Sprintf("in %s", formatDuration(remaining))
	}
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(-remaining))
}

// describeExpiry renders a token's expiry for human output. A token
// without a known expiry is treated as already expired.
func describeExpiry(token *oauth.Token) string {
	if token == nil || token.ExpiresAt == nil {
		return "at an unknown time (treated as expired)"
	}
	return formatExpiryWithDirection(*token.ExpiresAt)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
