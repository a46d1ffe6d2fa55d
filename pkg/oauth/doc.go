// Package oauth manages the OAuth 2.0 token lifecycle for API clients:
// it acquires, caches, validates, and transparently refreshes bearer
// tokens so that code making authenticated requests never has to track
// expiry itself.
//
// # Flow Clients
//
// Three flow clients cover the supported grants:
//
//   - AuthCodeClient: standard authorization-code flow, confidential
//     clients holding a secret
//   - AuthCodePKCEClient: authorization-code flow with PKCE (RFC 7636),
//     public clients that cannot protect a secret
//   - ClientCredsClient: client-credentials flow, server-to-server
//
// All three share one token slot and one refresh coordinator. A caller
// asks for a token through Token, AuthHeader, or Authorize; if the stored
// token is expired and carries a refresh token, exactly one refresh
// exchange runs, even under concurrent callers, and everyone observes the
// replaced token.
//
// # Token Cache
//
// Tokens persist as a JSON file so sessions survive process restarts.
// Loading is best-effort: a missing or corrupt cache file is a normal
// unauthenticated start, never an error. Writes are truncate-then-write
// with owner-only permissions.
//
// # Usage
//
//	creds, _ := oauth.NewCredentials(id, secret)
//	client, err := oauth.NewAuthCodeClient(creds, oauth.AuthConfig{
//	    RedirectURI: "http://127.0.0.1:8898/callback",
//	    Scopes:      oauth.NewScopeSet("user-read"),
//	}, endpoints)
//
//	url, _ := client.AuthorizeURL()
//	// ... user approves, provider redirects ...
//	code, _ := client.ParseRedirect(redirectedTo)
//	err = client.ExchangeCode(ctx, code)
//
//	header, err := client.AuthHeader(ctx) // refreshes when needed
//
// The HTTP transport is pluggable through the Doer interface; retries,
// backoff, and timeouts belong to the transport, not to this package.
package oauth
