package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"oauthkit/internal/cli"
	"oauthkit/internal/config"
	"oauthkit/pkg/logging"
	"oauthkit/pkg/oauth"
)

// authWhoamiCmd represents the auth whoami command
var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity behind the cached token",
	Long: `Show who the cached token authenticates as.

When the profile's issuer exposes a userinfo endpoint, whoami asks the
provider. Otherwise it falls back to the claims embedded in the access
token, without verifying its signature.

Examples:
  oauthkit auth whoami                    # Identity for the default profile
  oauthkit auth whoami --profile spotify  # Identity for a specific profile`,
	RunE: runAuthWhoami,
}

// identity is what whoami could learn about the token's subject.
type identity struct {
	Subject string
	Email   string
	Name    string
	Issuer  string
}

// display picks the most human-friendly label the lookup produced.
func (id *identity) display() string {
	switch {
	case id == nil:
		return ""
	case id.Email != "":
		return id.Email
	case id.Name != "":
		return id.Name
	default:
		return id.Subject
	}
}

func runAuthWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	settings, err := config.LoadSettings(authConfigPath)
	if err != nil {
		return err
	}
	name, profile, err := settings.SelectProfile(authProfile)
	if err != nil {
		return err
	}

	token := oauth.TokenFromCache(config.ProfileCachePath(authConfigPath, name, profile))
	if token == nil {
		return &cli.AuthRequiredError{Profile: name}
	}

	id, err := lookupIdentity(ctx, name, profile, token)
	if err != nil {
		return err
	}

	label := id.display()
	if label == "" {
		label = text.FgHiBlack.Sprint("(not available)")
	}

	fmt.Printf("Identity:  %s\n", label)
	fmt.Printf("Profile:   %s\n", name)

	issuer := profile.Issuer
	if id != nil && id.Issuer != "" {
		issuer = id.Issuer
	}
	if issuer != "" {
		fmt.Printf("Issuer:    %s\n", issuer)
	}

	fmt.Printf("Expires:   %s\n", describeExpiry(token))
	if len(token.Scopes) > 0 {
		fmt.Printf("Scopes:    %s\n", token.Scopes.String())
	}

	if token.IsExpired() && token.CanReauth() {
		fmt.Printf("\nThe token is expired. Run %s to refresh it.\n",
			text.FgHiBlack.Sprint("oauthkit auth refresh"))
	}
	return nil
}

// lookupIdentity resolves the token's subject, preferring the issuer's
// userinfo endpoint and falling back to unverified token claims.
// Opaque tokens without a reachable userinfo endpoint yield nil.
func lookupIdentity(ctx context.Context, profileName string, profile config.Profile, token *oauth.Token) (*identity, error) {
	if profile.Issuer != "" && !token.IsExpired() {
		discovery := oauth.NewDiscovery(oauth.WithDiscoveryLogger(logging.Logger()))
		metadata, err := discovery.DiscoverMetadata(ctx, profile.Issuer)
		switch {
		case err != nil:
			logging.Debug("whoami", "metadata discovery failed: %v", err)
		case metadata.UserinfoEndpoint != "":
			id, challenge, err := fetchUserinfo(ctx, metadata.UserinfoEndpoint, token.AccessToken)
			if err != nil {
				logging.Debug("whoami", "userinfo lookup failed: %v", err)
			} else if challenge != nil {
				logging.Debug("whoami", "provider rejected token: %s %s", challenge.Error, challenge.ErrorDescription)
				return nil, &cli.AuthExpiredError{Profile: profileName}
			} else if id != nil {
				return id, nil
			}
		}
	}

	return identityFromJWT(token.AccessToken), nil
}

// fetchUserinfo calls the userinfo endpoint with the access token. A
// 401 comes back as a parsed challenge rather than an error, since it
// means the token, not the lookup, is the problem.
func fetchUserinfo(ctx context.Context, endpoint, accessToken string) (*identity, *oauth.Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		challenge := oauth.ChallengeFromResponse(resp)
		if challenge == nil {
			challenge = &oauth.Challenge{Scheme: "Bearer"}
		}
		return nil, challenge, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("userinfo endpoint returned status %d", resp.StatusCode)
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return identityFromClaims(claims), nil, nil
}

// identityFromJWT extracts claims from a JWT-shaped access token
// without verifying it. Display only; never trust these claims.
func identityFromJWT(accessToken string) *identity {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil
	}
	return identityFromClaims(map[string]any(claims))
}

func identityFromClaims(claims map[string]any) *identity {
	id := &identity{
		Subject: stringClaim(claims, "sub"),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
		Issuer:  stringClaim(claims, "iss"),
	}
	if id.Name == "" {
		id.Name = stringClaim(claims, "preferred_username")
	}
	if id.Subject == "" && id.Email == "" && id.Name == "" {
		return nil
	}
	return id
}

func stringClaim(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
