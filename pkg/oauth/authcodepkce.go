package oauth

import (
	"context"
	"fmt"
	"net/url"
)

// AuthCodePKCEClient runs the authorization-code flow with PKCE
// (RFC 7636). The token exchange proves possession of a locally generated
// code verifier instead of a client secret, so the secret never has to
// exist; this is the flow for public and native clients.
type AuthCodePKCEClient struct {
	*clientCore

	// pkce is the verifier/challenge pair generated by AuthorizeURL and
	// consumed by ExchangeCode. Only the challenge leaves the process
	// before the exchange.
	pkce *PKCEChallenge
}

// NewAuthCodePKCEClient builds a PKCE client. The client secret may be
// empty; it is never transmitted either way.
func NewAuthCodePKCEClient(creds Credentials, auth AuthConfig, ep Endpoints, opts ...Option) (*AuthCodePKCEClient, error) {
	if err := creds.validate(false); err != nil {
		return nil, err
	}
	auth, err := auth.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := ep.validate(true); err != nil {
		return nil, err
	}
	core, err := newClientCore(creds, auth, ep, true, opts)
	if err != nil {
		return nil, err
	}
	return &AuthCodePKCEClient{clientCore: core}, nil
}

// AuthorizeURL generates a fresh verifier/challenge pair, retains the
// verifier for the exchange step, and builds the authorization redirect
// with the challenge embedded. Each call invalidates the previous pair.
func (c *AuthCodePKCEClient) AuthorizeURL() (string, error) {
	pkce, err := GeneratePKCE()
	if err != nil {
		return "", err
	}
	c.pkce = pkce
	return buildAuthorizeURL(c.ep.AuthURL, c.creds.ID, c.auth, pkce)
}

// ParseRedirect extracts the authorization code from the callback URL the
// provider redirected to, verifying the anti-forgery state first.
func (c *AuthCodePKCEClient) ParseRedirect(rawURL string) (string, error) {
	return ParseRedirect(rawURL, c.auth.State)
}

// ExchangeCode trades the callback code for the first token, sending the
// retained code verifier in the body in place of a client secret, then
// stores and caches the result.
func (c *AuthCodePKCEClient) ExchangeCode(ctx context.Context, code string) error {
	if c.pkce == nil {
		return fmt.Errorf("no code verifier retained: call AuthorizeURL before ExchangeCode")
	}
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {c.auth.RedirectURI},
		"code":          {code},
		"client_id":     {c.creds.ID},
		"code_verifier": {c.pkce.Verifier},
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
// replaces the stored token with the result. As everywhere in this flow,
// the client identifies itself with client_id in the body, not Basic auth.
func (c *AuthCodePKCEClient) RefreshToken(ctx context.Context, refreshToken string) error {
	return c.refreshAndStore(ctx, refreshToken)
}
