package oauth

import (
	"context"
	"net/url"
)

// AuthCodeClient runs the standard authorization-code flow: the resource
// owner approves access in a browser, the provider redirects back with a
// code, and the code plus the client secret buy the first token. Meant
// for confidential clients that can protect a secret; public and native
// clients use AuthCodePKCEClient instead.
type AuthCodeClient struct {
	*clientCore
}

// NewAuthCodeClient builds an authorization-code client. The credentials
// need both id and secret, the auth config needs a redirect URI, and the
// endpoints need both URLs. A previously cached token is loaded
// best-effort when caching is enabled.
func NewAuthCodeClient(creds Credentials, auth AuthConfig, ep Endpoints, opts ...Option) (*AuthCodeClient, error) {
	if err := creds.validate(true); err != nil {
		return nil, err
	}
	auth, err := auth.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := ep.validate(true); err != nil {
		return nil, err
	}
	core, err := newClientCore(creds, auth, ep, false, opts)
	if err != nil {
		return nil, err
	}
	return &AuthCodeClient{clientCore: core}, nil
}

// AuthorizeURL builds the authorization redirect to send the resource
// owner to.
func (c *AuthCodeClient) AuthorizeURL() (string, error) {
	return buildAuthorizeURL(c.ep.AuthURL, c.creds.ID, c.auth, nil)
}

// ParseRedirect extracts the authorization code from the callback URL the
// provider redirected to, verifying the anti-forgery state first.
func (c *AuthCodeClient) ParseRedirect(rawURL string) (string, error) {
	return ParseRedirect(rawURL, c.auth.State)
}

// ExchangeCode trades the callback code for the first token, stores it,
// and persists it to the cache.
func (c *AuthCodeClient) ExchangeCode(ctx context.Context, code string) error {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"redirect_uri": {c.auth.RedirectURI},
		"code":         {code},
	}
	if scope := c.auth.Scopes.String(); scope != "" {
		form.Set("scope", scope)
	}
	form.Set("state", c.auth.State)

	tok, err := c.tokenRequest(ctx, form)
	if err != nil {
		return err
	}
	return c.storeToken(tok)
}

// RefreshToken runs one refresh exchange with the given refresh token and
// replaces the stored token with the result. The automatic path inside
// Token uses the stored token's own refresh token; this entry point
// exists for callers that kept a refresh token across sessions.
func (c *AuthCodeClient) RefreshToken(ctx context.Context, refreshToken string) error {
	return c.refreshAndStore(ctx, refreshToken)
}
