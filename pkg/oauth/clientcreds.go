package oauth

import (
	"context"
	"net/url"
)

// ClientCredsClient runs the client-credentials flow: server-to-server
// authorization with no resource owner involved. There is no authorize
// URL and no refresh token; when a token expires, the client simply
// requests a new one with RequestToken. The automatic refresh inside
// Token never fires for tokens obtained this way.
type ClientCredsClient struct {
	*clientCore
}

// NewClientCredsClient builds a client-credentials client. Both the
// client id and secret are required; only the token endpoint URL is
// needed.
func NewClientCredsClient(creds Credentials, ep Endpoints, opts ...Option) (*ClientCredsClient, error) {
	if err := creds.validate(true); err != nil {
		return nil, err
	}
	if err := ep.validate(false); err != nil {
		return nil, err
	}
	core, err := newClientCore(creds, AuthConfig{}, ep, false, opts)
	if err != nil {
		return nil, err
	}
	return &ClientCredsClient{clientCore: core}, nil
}

// RequestToken obtains a fresh token directly with the client id and
// secret, stores it, and persists it to the cache.
func (c *ClientCredsClient) RequestToken(ctx context.Context) error {
	form := url.Values{
		"grant_type": {"client_credentials"},
	}
	tok, err := c.tokenRequest(ctx, form)
	if err != nil {
		return err
	}
	return c.storeToken(tok)
}
