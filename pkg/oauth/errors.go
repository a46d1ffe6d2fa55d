package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired signals that no usable token is available. The
	// caller has to run an authorization flow before making
	// authenticated requests.
	ErrAuthRequired = errors.New("authentication required")

	// ErrStateMismatch signals that the state value on the authorization
	// callback does not match the one sent with the authorize URL. The
	// callback cannot be trusted; treat it as a forged response.
	ErrStateMismatch = errors.New("state mismatch, possible CSRF")
)

// AuthorizationError is the provider's rejection of the authorization
// request, delivered as error/error_description query parameters on the
// redirect callback.
type AuthorizationError struct {
	Code        string
	Description string
}

func (e *AuthorizationError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("authorization failed: %s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("authorization failed: %s", e.Code)
}

// TokenEndpointError is a non-2xx answer from the token endpoint. Code and
// Description carry the RFC 6749 error fields when the server sent a JSON
// body.
type TokenEndpointError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *TokenEndpointError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("token endpoint returned %d: %s: %s", e.StatusCode, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Code)
	default:
		return fmt.Sprintf("token endpoint returned %d", e.StatusCode)
	}
}

// newTokenEndpointError builds a TokenEndpointError from the response,
// pulling out the RFC 6749 fields if the body parses as JSON.
func newTokenEndpointError(statusCode int, body []byte) *TokenEndpointError {
	e := &TokenEndpointError{StatusCode: statusCode}
	var payload struct {
		Code        string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Code = payload.Code
		e.Description = payload.Description
	}
	return e
}

// CacheError wraps a failure touching the token cache file. Read failures
// never surface through the flow clients (a broken cache is treated as no
// cache); write and remove failures do.
type CacheError struct {
	Path string
	Op   string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("token cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
