package oauth

import (
	"net/http"
	"testing"
)

func TestParseWWWAuthenticate(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    *Challenge
		wantErr bool
	}{
		{
			name:   "simple bearer",
			header: "Bearer",
			want: &Challenge{
				Scheme: "Bearer",
			},
		},
		{
			name:   "bearer with realm",
			header: `Bearer realm="https://auth.example.com"`,
			want: &Challenge{
				Scheme: "Bearer",
				Realm:  "https://auth.example.com",
				Issuer: "https://auth.example.com",
			},
		},
		{
			name:   "bearer with realm and scope",
			header: `Bearer realm="https://auth.example.com", scope="openid profile"`,
			want: &Challenge{
				Scheme: "Bearer",
				Realm:  "https://auth.example.com",
				Issuer: "https://auth.example.com",
				Scope:  "openid profile",
			},
		},
		{
			name:   "bearer with resource_metadata",
			header: `Bearer realm="https://auth.example.com", resource_metadata="https://api.example.com/.well-known/oauth-protected-resource"`,
			want: &Challenge{
				Scheme:              "Bearer",
				Realm:               "https://auth.example.com",
				Issuer:              "https://auth.example.com",
				ResourceMetadataURL: "https://api.example.com/.well-known/oauth-protected-resource",
			},
		},
		{
			name:   "bearer with error",
			header: `Bearer error="invalid_token", error_description="The access token expired"`,
			want: &Challenge{
				Scheme:           "Bearer",
				Error:            "invalid_token",
				ErrorDescription: "The access token expired",
			},
		},
		{
			name:   "non-url realm stays out of the issuer",
			header: `Bearer realm="My Application"`,
			want: &Challenge{
				Scheme: "Bearer",
				Realm:  "My Application",
			},
		},
		{
			name:    "empty header",
			header:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWWWAuthenticate(tt.header)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseWWWAuthenticate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if got.Scheme != tt.want.Scheme {
				t.Errorf("Scheme = %q, want %q", got.Scheme, tt.want.Scheme)
			}
			if got.Realm != tt.want.Realm {
				t.Errorf("Realm = %q, want %q", got.Realm, tt.want.Realm)
			}
			if got.Issuer != tt.want.Issuer {
				t.Errorf("Issuer = %q, want %q", got.Issuer, tt.want.Issuer)
			}
			if got.Scope != tt.want.Scope {
				t.Errorf("Scope = %q, want %q", got.Scope, tt.want.Scope)
			}
			if got.ResourceMetadataURL != tt.want.ResourceMetadataURL {
				t.Errorf("ResourceMetadataURL = %q, want %q", got.ResourceMetadataURL, tt.want.ResourceMetadataURL)
			}
			if got.Error != tt.want.Error {
				t.Errorf("Error = %q, want %q", got.Error, tt.want.Error)
			}
			if got.ErrorDescription != tt.want.ErrorDescription {
				t.Errorf("ErrorDescription = %q, want %q", got.ErrorDescription, tt.want.ErrorDescription)
			}
		})
	}
}

func TestChallengeIsBearer(t *testing.T) {
	tests := []struct {
		name      string
		challenge *Challenge
		want      bool
	}{
		{
			name:      "nil challenge",
			challenge: nil,
			want:      false,
		},
		{
			name: "bearer with realm",
			challenge: &Challenge{
				Scheme: "Bearer",
				Realm:  "https://auth.example.com",
			},
			want: true,
		},
		{
			name: "lowercase bearer with issuer",
			challenge: &Challenge{
				Scheme: "bearer",
				Issuer: "https://auth.example.com",
			},
			want: true,
		},
		{
			name: "bearer with resource_metadata",
			challenge: &Challenge{
				Scheme:              "Bearer",
				ResourceMetadataURL: "https://api.example.com/.well-known/oauth-protected-resource",
			},
			want: true,
		},
		{
			name: "bearer without a target",
			challenge: &Challenge{
				Scheme: "Bearer",
			},
			want: false,
		},
		{
			name: "basic auth",
			challenge: &Challenge{
				Scheme: "Basic",
				Realm:  "My App",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.challenge.IsBearer(); got != tt.want {
				t.Errorf("IsBearer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChallengeIssuerURL(t *testing.T) {
	tests := []struct {
		name      string
		challenge *Challenge
		want      string
	}{
		{
			name:      "nil challenge",
			challenge: nil,
			want:      "",
		},
		{
			name: "explicit issuer wins",
			challenge: &Challenge{
				Issuer: "https://issuer.example.com",
				Realm:  "https://realm.example.com",
			},
			want: "https://issuer.example.com",
		},
		{
			name: "url realm as issuer",
			challenge: &Challenge{
				Realm: "https://auth.example.com",
			},
			want: "https://auth.example.com",
		},
		{
			name: "non-url realm",
			challenge: &Challenge{
				Realm: "My Application",
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.challenge.IssuerURL(); got != tt.want {
				t.Errorf("IssuerURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChallengeFromResponse(t *testing.T) {
	tests := []struct {
		name       string
		resp       *http.Response
		wantNil    bool
		wantIssuer string
	}{
		{
			name:    "nil response",
			resp:    nil,
			wantNil: true,
		},
		{
			name: "200 OK",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{"Www-Authenticate": []string{`Bearer realm="https://auth.example.com"`}},
			},
			wantNil: true,
		},
		{
			name: "401 without header",
			resp: &http.Response{
				StatusCode: 401,
				Header:     http.Header{},
			},
			wantNil: true,
		},
		{
			name: "401 with header",
			resp: &http.Response{
				StatusCode: 401,
				Header:     http.Header{"Www-Authenticate": []string{`Bearer realm="https://auth.example.com"`}},
			},
			wantNil:    false,
			wantIssuer: "https://auth.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChallengeFromResponse(tt.resp)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ChallengeFromResponse() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("ChallengeFromResponse() = nil, want non-nil")
			}
			if got.IssuerURL() != tt.wantIssuer {
				t.Errorf("IssuerURL() = %q, want %q", got.IssuerURL(), tt.wantIssuer)
			}
		})
	}
}
