package oauth

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Challenge is the parsed content of a WWW-Authenticate header. A 401
// carrying a Bearer challenge tells the client where to authenticate
// and which scopes it was missing.
type Challenge struct {
	// Scheme is the authentication scheme, "Bearer" for OAuth 2.0.
	Scheme string

	// Realm is the protection realm, often the authorization server URL.
	Realm string

	// Issuer is the OAuth/OIDC issuer URL, derived from Realm when the
	// realm is a URL.
	Issuer string

	// ResourceMetadataURL points at RFC 9728 protected resource metadata.
	ResourceMetadataURL string

	// Scope is the space-separated list of required scopes.
	Scope string

	// Error is the RFC 6750 error code, if any.
	Error string

	// ErrorDescription is the human-readable error description, if any.
	ErrorDescription string
}

// IsBearer reports whether this is a usable Bearer challenge, meaning
// it names somewhere to authenticate against.
func (c *Challenge) IsBearer() bool {
	if c == nil {
		return false
	}
	if !strings.EqualFold(c.Scheme, "Bearer") {
		return false
	}
	return c.Realm != "" || c.ResourceMetadataURL != "" || c.Issuer != ""
}

// IssuerURL returns the issuer to discover metadata from. It prefers
// the explicit Issuer and falls back to Realm when the realm is a URL.
func (c *Challenge) IssuerURL() string {
	if c == nil {
		return ""
	}
	if c.Issuer != "" {
		return c.Issuer
	}
	if strings.HasPrefix(c.Realm, "http://") || strings.HasPrefix(c.Realm, "https://") {
		return c.Realm
	}
	return ""
}

// ParseWWWAuthenticate parses a WWW-Authenticate header value.
//
// Example headers:
//
//	Bearer realm="https://auth.example.com"
//	Bearer realm="https://auth.example.com", scope="openid profile"
//	Bearer error="invalid_token", error_description="The access token expired"
func ParseWWWAuthenticate(header string) (*Challenge, error) {
	if header == "" {
		return nil, fmt.Errorf("empty WWW-Authenticate header")
	}

	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) == 0 {
		return nil, fmt.Errorf("invalid WWW-Authenticate header format")
	}

	challenge := &Challenge{
		Scheme: parts[0],
	}

	if len(parts) > 1 {
		params := parseAuthParams(parts[1])

		if realm, ok := params["realm"]; ok {
			challenge.Realm = realm
			// A URL-shaped realm is usually the issuer.
			if strings.HasPrefix(realm, "http://") || strings.HasPrefix(realm, "https://") {
				challenge.Issuer = realm
			}
		}

		if resourceMeta, ok := params["resource_metadata"]; ok {
			challenge.ResourceMetadataURL = resourceMeta
		}

		if scope, ok := params["scope"]; ok {
			challenge.Scope = scope
		}

		if errCode, ok := params["error"]; ok {
			challenge.Error = errCode
		}

		if errDesc, ok := params["error_description"]; ok {
			challenge.ErrorDescription = errDesc
		}
	}

	return challenge, nil
}

// parseAuthParams parses the parameter portion of a WWW-Authenticate
// header, formatted as key1="value1", key2="value2".
func parseAuthParams(paramStr string) map[string]string {
	params := make(map[string]string)

	paramRegex := regexp.MustCompile(`(\w+)="([^"]*)"`)
	matches := paramRegex.FindAllStringSubmatch(paramStr, -1)

	for _, match := range matches {
		if len(match) == 3 {
			params[strings.ToLower(match[1])] = match[2]
		}
	}

	return params
}

// ChallengeFromResponse extracts the auth challenge from a 401
// response. Returns nil if the response is not a 401, carries no
// WWW-Authenticate header, or the header does not parse.
func ChallengeFromResponse(resp *http.Response) *Challenge {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return nil
	}

	header := resp.Header.Get("WWW-Authenticate")
	if header == "" {
		return nil
	}

	challenge, err := ParseWWWAuthenticate(header)
	if err != nil {
		return nil
	}

	return challenge
}
