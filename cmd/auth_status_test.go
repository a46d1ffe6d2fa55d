package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"oauthkit/internal/config"
	"oauthkit/pkg/oauth"
)

func liveToken() *oauth.Token {
	expiresAt := time.Now().Add(time.Hour)
	return &oauth.Token{
		AccessToken:  "live-token",
		ExpiresAt:    &expiresAt,
		RefreshToken: "refresh-token",
	}
}

func expiredToken(refreshToken string) *oauth.Token {
	expiresAt := time.Now().Add(-time.Hour)
	return &oauth.Token{
		AccessToken:  "stale-token",
		ExpiresAt:    &expiresAt,
		RefreshToken: refreshToken,
	}
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		name     string
		token    *oauth.Token
		expected string
	}{
		{
			name:     "no token",
			token:    nil,
			expected: "Not authenticated",
		},
		{
			name:     "live token",
			token:    liveToken(),
			expected: "Authenticated",
		},
		{
			name:     "expired with refresh token",
			token:    expiredToken("refresh-token"),
			expected: "Expired",
		},
		{
			name:     "expired without refresh token",
			token:    expiredToken(""),
			expected: "Expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Labels carry color escapes, so match on content.
			if got := statusLabel(tt.token); !strings.Contains(got, tt.expected) {
				t.Errorf("statusLabel() = %q, expected it to contain %q", got, tt.expected)
			}
		})
	}
}

func TestRefreshLabel(t *testing.T) {
	if got := refreshLabel(nil); got != "" {
		t.Errorf("Expected empty label for nil token, got %q", got)
	}
	if got := refreshLabel(liveToken()); got != "Available" {
		t.Errorf("Expected 'Available', got %q", got)
	}
	if got := refreshLabel(expiredToken("")); got != "Not available" {
		t.Errorf("Expected 'Not available', got %q", got)
	}
}

func TestPrintStatusTable(t *testing.T) {
	origConfigPath := authConfigPath
	authConfigPath = t.TempDir()
	t.Cleanup(func() { authConfigPath = origConfigPath })

	settings := config.Settings{
		DefaultProfile: "spotify",
		Profiles: map[string]config.Profile{
			"spotify": {Flow: config.FlowPKCE, Issuer: "https://accounts.spotify.com"},
			"backend": {Flow: config.FlowClientCreds, TokenURL: "https://idp.example.com/token"},
		},
	}

	cachePath := config.ProfileCachePath(authConfigPath, "spotify", settings.Profiles["spotify"])
	if err := liveToken().WriteCache(cachePath); err != nil {
		t.Fatalf("Failed to seed token cache: %v", err)
	}

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printStatusTable(cmd, settings)
	output := buf.String()

	if !strings.Contains(output, "PROFILE") || !strings.Contains(output, "STATUS") || !strings.Contains(output, "ISSUER") {
		t.Errorf("Expected table header, got:\n%s", output)
	}
	if !strings.Contains(output, "spotify (default)") {
		t.Errorf("Expected default profile to be marked, got:\n%s", output)
	}
	if !strings.Contains(output, "backend") {
		t.Errorf("Expected backend profile row, got:\n%s", output)
	}
	if !strings.Contains(output, "Authenticated") {
		t.Errorf("Expected spotify to show as authenticated, got:\n%s", output)
	}
	if !strings.Contains(output, "Not authenticated") {
		t.Errorf("Expected backend to show as not authenticated, got:\n%s", output)
	}
	if !strings.Contains(output, "accounts.spotify.com") {
		t.Errorf("Expected the issuer column to be filled, got:\n%s", output)
	}
}
