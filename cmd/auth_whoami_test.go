package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"oauthkit/internal/cli"
	"oauthkit/internal/config"
)

func signedJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

// fakeProvider serves discovery metadata plus a userinfo endpoint that
// responds with the given status and body.
func fakeProvider(t *testing.T, userinfoStatus int, userinfoBody string) (*httptest.Server, *int32) {
	t.Helper()

	var hits int32
	var server *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/oauth-authorization-server", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"issuer": %q,
			"authorization_endpoint": %q,
			"token_endpoint": %q,
			"userinfo_endpoint": %q
		}`, server.URL, server.URL+"/authorize", server.URL+"/token", server.URL+"/userinfo")
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
			t.Errorf("Expected bearer authorization, got %q", auth)
		}
		if userinfoStatus == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="The access token expired"`)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userinfoStatus)
		fmt.Fprint(w, userinfoBody)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &hits
}

func TestIdentityDisplay(t *testing.T) {
	var nilIdentity *identity
	if got := nilIdentity.display(); got != "" {
		t.Errorf("Expected empty display for nil identity, got %q", got)
	}

	full := &identity{Subject: "u-1", Email: "jane@example.com", Name: "Jane"}
	if got := full.display(); got != "jane@example.com" {
		t.Errorf("Expected email to win, got %q", got)
	}

	named := &identity{Subject: "u-1", Name: "Jane"}
	if got := named.display(); got != "Jane" {
		t.Errorf("Expected name fallback, got %q", got)
	}

	bare := &identity{Subject: "u-1"}
	if got := bare.display(); got != "u-1" {
		t.Errorf("Expected subject fallback, got %q", got)
	}
}

func TestIdentityFromClaims(t *testing.T) {
	t.Run("full claims", func(t *testing.T) {
		id := identityFromClaims(map[string]any{
			"sub":   "u-1",
			"email": "jane@example.com",
			"name":  "Jane",
			"iss":   "https://idp.example.com",
		})
		if id == nil {
			t.Fatal("Expected an identity")
		}
		if id.Subject != "u-1" || id.Email != "jane@example.com" || id.Name != "Jane" {
			t.Errorf("Unexpected identity: %+v", id)
		}
		if id.Issuer != "https://idp.example.com" {
			t.Errorf("Expected issuer claim, got %q", id.Issuer)
		}
	})

	t.Run("preferred_username fallback", func(t *testing.T) {
		id := identityFromClaims(map[string]any{
			"sub":                "u-1",
			"preferred_username": "jane",
		})
		if id == nil || id.Name != "jane" {
			t.Fatalf("Expected preferred_username fallback, got %+v", id)
		}
	})

	t.Run("non-string claims are ignored", func(t *testing.T) {
		if id := identityFromClaims(map[string]any{"sub": 42}); id != nil {
			t.Errorf("Expected nil identity, got %+v", id)
		}
	})

	t.Run("empty claims", func(t *testing.T) {
		if id := identityFromClaims(map[string]any{}); id != nil {
			t.Errorf("Expected nil identity, got %+v", id)
		}
	})
}

func TestIdentityFromJWT(t *testing.T) {
	t.Run("jwt access token", func(t *testing.T) {
		raw := signedJWT(t, jwt.MapClaims{
			"sub":   "u-1",
			"email": "jane@example.com",
			"iss":   "https://idp.example.com",
		})

		id := identityFromJWT(raw)
		if id == nil {
			t.Fatal("Expected an identity")
		}
		if id.Email != "jane@example.com" {
			t.Errorf("Expected email claim, got %q", id.Email)
		}
		if id.Issuer != "https://idp.example.com" {
			t.Errorf("Expected issuer claim, got %q", id.Issuer)
		}
	})

	t.Run("opaque access token", func(t *testing.T) {
		if id := identityFromJWT("opaque-access-token"); id != nil {
			t.Errorf("Expected nil identity for opaque token, got %+v", id)
		}
	})
}

func TestFetchUserinfo(t *testing.T) {
	t.Run("returns the provider claims", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer live-token" {
				t.Errorf("Expected bearer header, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"sub": "u-1", "email": "jane@example.com", "name": "Jane"}`)
		}))
		defer server.Close()

		id, challenge, err := fetchUserinfo(context.Background(), server.URL, "live-token")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if challenge != nil {
			t.Fatalf("Expected no challenge, got %+v", challenge)
		}
		if id == nil || id.Email != "jane@example.com" {
			t.Fatalf("Expected userinfo identity, got %+v", id)
		}
	})

	t.Run("401 surfaces the challenge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="The access token expired"`)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		id, challenge, err := fetchUserinfo(context.Background(), server.URL, "stale-token")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if id != nil {
			t.Fatalf("Expected no identity, got %+v", id)
		}
		if challenge == nil || challenge.Error != "invalid_token" {
			t.Fatalf("Expected invalid_token challenge, got %+v", challenge)
		}
	})

	t.Run("401 without header still yields a challenge", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		_, challenge, err := fetchUserinfo(context.Background(), server.URL, "stale-token")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if challenge == nil || challenge.Scheme != "Bearer" {
			t.Fatalf("Expected a bearer challenge, got %+v", challenge)
		}
	})

	t.Run("unexpected status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, _, err := fetchUserinfo(context.Background(), server.URL, "live-token")
		if err == nil || !strings.Contains(err.Error(), "status 500") {
			t.Fatalf("Expected a status error, got %v", err)
		}
	})
}

func TestLookupIdentity(t *testing.T) {
	t.Run("prefers the userinfo endpoint", func(t *testing.T) {
		server, hits := fakeProvider(t, http.StatusOK, `{"sub": "u-1", "email": "userinfo@example.com"}`)

		token := liveToken()
		token.AccessToken = signedJWT(t, jwt.MapClaims{"sub": "u-1", "email": "claims@example.com"})

		id, err := lookupIdentity(context.Background(), "spotify", config.Profile{Issuer: server.URL}, token)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if id == nil || id.Email != "userinfo@example.com" {
			t.Fatalf("Expected the userinfo identity, got %+v", id)
		}
		if got := atomic.LoadInt32(hits); got != 1 {
			t.Errorf("Expected 1 userinfo call, got %d", got)
		}
	})

	t.Run("rejected token maps to auth expired", func(t *testing.T) {
		server, _ := fakeProvider(t, http.StatusUnauthorized, `{}`)

		_, err := lookupIdentity(context.Background(), "spotify", config.Profile{Issuer: server.URL}, liveToken())
		var expired *cli.AuthExpiredError
		if !errors.As(err, &expired) {
			t.Fatalf("Expected AuthExpiredError, got %v", err)
		}
		if expired.Profile != "spotify" {
			t.Errorf("Expected profile to be carried, got %q", expired.Profile)
		}
	})

	t.Run("falls back to token claims without an issuer", func(t *testing.T) {
		token := liveToken()
		token.AccessToken = signedJWT(t, jwt.MapClaims{"sub": "u-1", "email": "claims@example.com"})

		id, err := lookupIdentity(context.Background(), "spotify", config.Profile{}, token)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if id == nil || id.Email != "claims@example.com" {
			t.Fatalf("Expected the token claims identity, got %+v", id)
		}
	})

	t.Run("expired token skips the provider", func(t *testing.T) {
		server, hits := fakeProvider(t, http.StatusOK, `{"sub": "u-1"}`)

		token := expiredToken("refresh-token")
		token.AccessToken = signedJWT(t, jwt.MapClaims{"sub": "u-1", "exp": time.Now().Add(-time.Hour).Unix()})

		id, err := lookupIdentity(context.Background(), "spotify", config.Profile{Issuer: server.URL}, token)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if id == nil || id.Subject != "u-1" {
			t.Fatalf("Expected the token claims identity, got %+v", id)
		}
		if got := atomic.LoadInt32(hits); got != 0 {
			t.Errorf("Expected the provider to stay untouched, got %d calls", got)
		}
	})

	t.Run("opaque token yields no identity", func(t *testing.T) {
		id, err := lookupIdentity(context.Background(), "spotify", config.Profile{}, liveToken())
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if id != nil {
			t.Errorf("Expected nil identity, got %+v", id)
		}
	})
}
