package oauth

import (
	"fmt"
	"net/url"
)

// ParseRedirect extracts the authorization code from the URL the provider
// redirected the resource owner to after the authorize step.
//
// The state on the callback must equal expectedState before the code is
// trusted; a mismatch yields ErrStateMismatch and no code. A provider
// rejection (?error=access_denied&error_description=...) surfaces as
// *AuthorizationError.
func ParseRedirect(rawURL, expectedState string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	query := u.Query()

	if errCode := query.Get("error"); errCode != "" {
		return "", &AuthorizationError{
			Code:        errCode,
			Description: query.Get("error_description"),
		}
	}
	if state := query.Get("state"); state != expectedState {
		return "", fmt.Errorf("%w: authorization response state does not match the request", ErrStateMismatch)
	}
	code := query.Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL carries no authorization code")
	}
	return code, nil
}
