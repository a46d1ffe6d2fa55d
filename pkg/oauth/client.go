package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultHTTPTimeout bounds requests made by the default transport.
const DefaultHTTPTimeout = 30 * time.Second

// Doer executes a single HTTP request. *http.Client satisfies it; any
// transport carrying retry, backoff, or instrumentation policy can be
// plugged in instead, since none of that lives here.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a flow client at construction time.
type Option func(*clientCore)

// WithHTTPClient sets the transport used for token endpoint requests.
func WithHTTPClient(d Doer) Option {
	return func(c *clientCore) {
		c.http = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientCore) {
		c.logger = logger
	}
}

// WithConfig replaces the stock behavior knobs (cache path, pagination
// chunk size, refresh and caching toggles).
func WithConfig(cfg Config) Option {
	return func(c *clientCore) {
		c.cfg = cfg
	}
}

// clientCore carries everything the three flow clients share: the
// immutable identity and OAuth parameters, the behavior knobs, the single
// token slot, and the transport.
type clientCore struct {
	creds  Credentials
	auth   AuthConfig
	ep     Endpoints
	cfg    Config
	http   Doer
	logger *slog.Logger
	store  tokenStore

	// public marks flows that never transmit a client secret; they
	// identify themselves with client_id in the request body instead of
	// HTTP Basic auth.
	public bool
}

func newClientCore(creds Credentials, auth AuthConfig, ep Endpoints, public bool, opts []Option) (*clientCore, error) {
	core := &clientCore{
		creds:  creds,
		auth:   auth,
		ep:     ep,
		cfg:    DefaultConfig(),
		logger: slog.Default(),
		public: public,
	}
	for _, opt := range opts {
		opt(core)
	}
	if core.http == nil {
		httpClient, err := defaultHTTPClient(auth.Proxy)
		if err != nil {
			return nil, err
		}
		core.http = httpClient
	}
	if core.cfg.TokenCaching {
		if tok := TokenFromCache(core.cfg.CachePath); tok != nil {
			core.store.tok = tok
			core.logger.Debug("loaded cached token",
				"path", core.cfg.CachePath,
				"expired", tok.IsExpired(),
				"refreshable", tok.CanReauth())
		}
	}
	return core, nil
}

func defaultHTTPClient(proxy string) (*http.Client, error) {
	client := &http.Client{Timeout: DefaultHTTPTimeout}
	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return client, nil
}

// Config returns the behavior knobs the client was built with. Request
// glue on top of the client reads BaseURL and PaginationChunks from here.
func (c *clientCore) Config() Config {
	return c.cfg
}

// Token returns the current token, refreshing it first when it is expired
// and refreshable. The write lock is held across the whole
// check-and-maybe-refresh sequence, so N concurrent callers hitting one
// expired token produce exactly one refresh exchange; the rest wait and
// observe the replaced token.
//
// With no token stored, Token fails fast with ErrAuthRequired. An expired
// token without a refresh token is returned as-is: the server will reject
// it, and the caller restarts authorization from AuthorizeURL.
func (c *clientCore) Token(ctx context.Context) (*Token, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	tok := c.store.tok
	if c.cfg.TokenRefreshing && tok != nil && tok.IsExpired() && tok.CanReauth() {
		fresh, err := c.refetchToken(ctx, tok.RefreshToken)
		if err != nil {
			return nil, err
		}
		c.store.tok = fresh
		if err := c.writeCache(fresh); err != nil {
			return nil, err
		}
		c.logger.Debug("access token refreshed", "expires_at", fresh.ExpiresAt)
		tok = fresh
	}
	if tok == nil {
		return nil, ErrAuthRequired
	}
	return tok.Clone(), nil
}

// AuthHeader returns the Authorization header value for the current
// token, refreshing when needed.
func (c *clientCore) AuthHeader(ctx context.Context) (string, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + tok.AccessToken, nil
}

// Authorize attaches the bearer credential to req, refreshing when needed.
func (c *clientCore) Authorize(ctx context.Context, req *http.Request) error {
	header, err := c.AuthHeader(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", header)
	return nil
}

// CurrentToken returns a copy of the stored token without triggering a
// refresh, nil when unauthenticated. Status inspection only; request
// paths go through Token.
func (c *clientCore) CurrentToken() *Token {
	return c.store.peek()
}

// TokenSource adapts the client to golang.org/x/oauth2. Every Token call
// on the source goes through the refresh coordinator.
func (c *clientCore) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, core: c}
}

type tokenSource struct {
	ctx  context.Context
	core *clientCore
}

func (s *tokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.core.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	return tok.ToOAuth2(), nil
}

// tokenResponse is the token endpoint wire format. The endpoint never
// sends expires_at; it is computed from expires_in at receive time.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// tokenRequest posts the form to the token endpoint and decodes the
// response into a Token. Confidential clients authenticate with HTTP
// Basic auth; public clients already carry client_id in the form.
func (c *clientCore) tokenRequest(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ep.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if !c.public {
		req.SetBasicAuth(c.creds.ID, c.creds.Secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Debug("token request rejected",
			"status", resp.StatusCode,
			"grant_type", form.Get("grant_type"))
		return nil, newTokenEndpointError(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response carries no access_token")
	}

	tok := &Token{
		AccessToken:  tr.AccessToken,
		ExpiresIn:    time.Duration(tr.ExpiresIn) * time.Second,
		RefreshToken: tr.RefreshToken,
		Scopes:       ParseScopeSet(tr.Scope),
	}
	if tr.ExpiresIn > 0 {
		at := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
		tok.ExpiresAt = &at
	}
	return tok, nil
}

// refetchToken exchanges a refresh token for a fresh Token. Servers may
// omit refresh_token from the answer; the original is re-attached so the
// session never silently downgrades to code-only.
func (c *clientCore) refetchToken(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrAuthRequired)
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	if c.public {
		form.Set("client_id", c.creds.ID)
	}
	tok, err := c.tokenRequest(ctx, form)
	if err != nil {
		return nil, err
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// refreshAndStore runs one refresh exchange and replaces the stored token
// with the result.
func (c *clientCore) refreshAndStore(ctx context.Context, refreshToken string) error {
	tok, err := c.refetchToken(ctx, refreshToken)
	if err != nil {
		return err
	}
	return c.storeToken(tok)
}

// storeToken replaces the slot wholesale and rewrites the cache when
// caching is enabled. Cache write failures propagate; the in-memory token
// is already replaced at that point.
func (c *clientCore) storeToken(tok *Token) error {
	c.store.replace(tok)
	return c.writeCache(tok)
}

func (c *clientCore) writeCache(tok *Token) error {
	if !c.cfg.TokenCaching {
		return nil
	}
	if err := tok.WriteCache(c.cfg.CachePath); err != nil {
		return err
	}
	c.logger.Debug("token cache written", "path", c.cfg.CachePath)
	return nil
}

// buildAuthorizeURL constructs the user-facing authorization redirect.
func buildAuthorizeURL(authEndpoint, clientID string, auth AuthConfig, pkce *PKCEChallenge) (string, error) {
	u, err := url.Parse(authEndpoint)
	if err != nil {
		return "", fmt.Errorf("invalid authorization endpoint: %w", err)
	}

	query := u.Query()
	query.Set("client_id", clientID)
	query.Set("response_type", "code")
	query.Set("redirect_uri", auth.RedirectURI)
	if scope := auth.Scopes.String(); scope != "" {
		query.Set("scope", scope)
	}
	query.Set("state", auth.State)
	if pkce != nil {
		query.Set("code_challenge", pkce.Challenge)
		query.Set("code_challenge_method", pkce.Method)
	}

	u.RawQuery = query.Encode()
	return u.String(), nil
}
