package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"oauthkit/pkg/oauth"
)

// AuthRequiredError indicates no usable token exists for a profile.
// Implements error with actionable guidance.
type AuthRequiredError struct {
	// Profile is the profile that requires authentication.
	Profile string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	return fmt.Sprintf(`authentication required for profile %q

To authenticate, run:
  oauthkit auth login --profile %s

To check current authentication status:
  oauthkit auth status`, e.Profile, e.Profile)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthExpiredError indicates the stored token can no longer be renewed.
// The provider rejected the refresh token, so only a new login helps.
type AuthExpiredError struct {
	// Profile is the profile whose grant expired.
	Profile string
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf(`authentication expired for profile %q

To re-authenticate, run:
  oauthkit auth login --profile %s`, e.Profile, e.Profile)
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthExpiredError) Is(target error) bool {
	_, ok := target.(*AuthExpiredError)
	return ok
}

// AuthFailedError indicates an authorization flow failed.
type AuthFailedError struct {
	// Profile is the profile whose flow failed.
	Profile string
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	return fmt.Sprintf(`authentication failed for profile %q: %v

To retry, run:
  oauthkit auth login --profile %s`, e.Profile, e.Reason, e.Profile)
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

// ClassifyAuthError maps pkg/oauth errors onto the typed CLI errors that
// drive the exit codes. Errors outside the token lifecycle pass through
// unchanged, and nil stays nil.
func ClassifyAuthError(err error, profile string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, oauth.ErrAuthRequired) {
		return &AuthRequiredError{Profile: profile}
	}
	if errors.Is(err, oauth.ErrStateMismatch) {
		return &AuthFailedError{Profile: profile, Reason: err}
	}

	var tokenErr *oauth.TokenEndpointError
	if errors.As(err, &tokenErr) {
		// invalid_grant means the refresh token itself was rejected;
		// the grant is gone and the user has to log in again.
		if tokenErr.Code == "invalid_grant" {
			return &AuthExpiredError{Profile: profile}
		}
		return &AuthFailedError{Profile: profile, Reason: err}
	}

	var authzErr *oauth.AuthorizationError
	if errors.As(err, &authzErr) {
		return &AuthFailedError{Profile: profile, Reason: err}
	}

	return err
}

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates a failure reaching an authorization server or
// API endpoint. It wraps the underlying error and categorizes it for
// better user feedback.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached.
	Endpoint string
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

// Error returns the categorized failure with the endpoint it hit.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s reaching %s: %v", e.Type, e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError analyzes an error and returns a ConnectionError
// with the appropriate type. If the error is nil, returns nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}

	kind := ConnectionErrorUnknown
	switch {
	case isTLSError(err):
		kind = ConnectionErrorTLS
	case isDNSError(err):
		kind = ConnectionErrorDNS
	case isTimeoutError(err):
		kind = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		kind = ConnectionErrorNetwork
	}

	return &ConnectionError{
		Endpoint: endpoint,
		Type:     kind,
		Reason:   err,
	}
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isDNSError checks if the error is a name resolution failure.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	// net.Error is an interface, so walk the chain manually.
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok && ne.Timeout() {
			return true
		}
		if u, ok := e.(interface{ Unwrap() error }); ok {
			e = u.Unwrap()
		} else {
			break
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network
// connectivity issue.
func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}
