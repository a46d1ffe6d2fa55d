package oauth

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewCredentials(t *testing.T) {
	t.Run("requires an id", func(t *testing.T) {
		if _, err := NewCredentials("", "secret"); err == nil {
			t.Error("expected error for missing client id")
		}
	})

	t.Run("secret is optional", func(t *testing.T) {
		creds, err := NewCredentials("client-id", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if creds.ID != "client-id" {
			t.Errorf("ID = %q, want client-id", creds.ID)
		}
	})
}

func TestCredentialsRedaction(t *testing.T) {
	creds := Credentials{ID: "client-id", Secret: "super-secret-value"}

	t.Run("%v hides the secret", func(t *testing.T) {
		out := fmt.Sprintf("%v", creds)
		if strings.Contains(out, "super-secret-value") {
			t.Errorf("formatted credentials leak the secret: %s", out)
		}
		if !strings.Contains(out, "[REDACTED]") {
			t.Errorf("expected [REDACTED] marker, got %s", out)
		}
	})

	t.Run("%#v hides the secret", func(t *testing.T) {
		out := fmt.Sprintf("%#v", creds)
		if strings.Contains(out, "super-secret-value") {
			t.Errorf("formatted credentials leak the secret: %s", out)
		}
	})

	t.Run("%s hides the secret", func(t *testing.T) {
		out := fmt.Sprintf("%s", creds)
		if strings.Contains(out, "super-secret-value") {
			t.Errorf("formatted credentials leak the secret: %s", out)
		}
	})
}

func TestAuthConfigDefaults(t *testing.T) {
	t.Run("requires a redirect URI", func(t *testing.T) {
		if _, err := (AuthConfig{}).withDefaults(); err == nil {
			t.Error("expected error for missing redirect URI")
		}
	})

	t.Run("generates a state value", func(t *testing.T) {
		out, err := (AuthConfig{RedirectURI: "http://localhost:8080/callback"}).withDefaults()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.State) != 16 {
			t.Errorf("state length = %d, want 16", len(out.State))
		}
	})

	t.Run("keeps an explicit state value", func(t *testing.T) {
		in := AuthConfig{RedirectURI: "http://localhost:8080/callback", State: "chosen"}
		out, err := in.withDefaults()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.State != "chosen" {
			t.Errorf("state = %q, want chosen", out.State)
		}
	})

	t.Run("clones the scope set", func(t *testing.T) {
		scopes := NewScopeSet("profile")
		in := AuthConfig{RedirectURI: "http://localhost:8080/callback", Scopes: scopes}
		out, err := in.withDefaults()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		scopes["email"] = struct{}{}
		if out.Scopes.Contains("email") {
			t.Error("config scopes changed through the caller's set")
		}
	})

	t.Run("rejects an invalid proxy URL", func(t *testing.T) {
		in := AuthConfig{RedirectURI: "http://localhost:8080/callback", Proxy: "://bad"}
		if _, err := in.withDefaults(); err == nil {
			t.Error("expected error for invalid proxy URL")
		}
	})
}

func TestEndpointsValidate(t *testing.T) {
	t.Run("token URL always required", func(t *testing.T) {
		if err := (Endpoints{AuthURL: "https://a.example.com/auth"}).validate(false); err == nil {
			t.Error("expected error for missing token URL")
		}
	})

	t.Run("auth URL required only when asked", func(t *testing.T) {
		ep := Endpoints{TokenURL: "https://a.example.com/token"}
		if err := ep.validate(false); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if err := ep.validate(true); err == nil {
			t.Error("expected error for missing auth URL")
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.CachePath != DefaultCachePath {
		t.Errorf("CachePath = %q, want %q", cfg.CachePath, DefaultCachePath)
	}
	if cfg.PaginationChunks != DefaultPaginationChunks {
		t.Errorf("PaginationChunks = %d, want %d", cfg.PaginationChunks, DefaultPaginationChunks)
	}
	if !cfg.TokenRefreshing {
		t.Error("expected TokenRefreshing to default on")
	}
	if !cfg.TokenCaching {
		t.Error("expected TokenCaching to default on")
	}
}
