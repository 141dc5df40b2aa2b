package config

import (
	"slices"
	"strings"
	"testing"

	"github.com/crmarques/mgmtbridge/faults"
)

func TestHTTPAuthValidate(t *testing.T) {
	t.Parallel()

	oauth := func() *OAuth2 {
		return &OAuth2{TokenURL: "https://idp.example.com/token", GrantType: OAuthClientCreds, ClientID: "bridge", ClientSecret: "secret"}
	}

	tests := []struct {
		name    string
		auth    *HTTPAuth
		problem string
	}{
		{name: "basic", auth: &HTTPAuth{BasicAuth: &BasicAuth{Username: "admin", Password: `{{secret "mgmt/admin"}}`}}},
		{name: "bearer", auth: &HTTPAuth{BearerToken: &BearerTokenAuth{Token: "abc"}}},
		{name: "custom_header", auth: &HTTPAuth{CustomHeader: &HeaderTokenAuth{Header: "X-Token", Token: "abc"}}},
		{name: "oauth2", auth: &HTTPAuth{OAuth2: oauth()}},
		{name: "missing", auth: nil, problem: "management.http.auth is required"},
		{name: "none", auth: &HTTPAuth{}, problem: "exactly one of"},
		{name: "two_methods", auth: &HTTPAuth{
			BasicAuth:   &BasicAuth{Username: "admin", Password: "secret"},
			BearerToken: &BearerTokenAuth{Token: "abc"},
		}, problem: "exactly one of"},
		{name: "blank_password", auth: &HTTPAuth{BasicAuth: &BasicAuth{Username: "admin", Password: "  "}}, problem: "basic-auth requires"},
		{name: "bearer_without_token", auth: &HTTPAuth{BearerToken: &BearerTokenAuth{}}, problem: "bearer-token.token is required"},
		{name: "header_without_name", auth: &HTTPAuth{CustomHeader: &HeaderTokenAuth{Token: "abc"}}, problem: "custom-header requires"},
		{name: "oauth2_password_grant", auth: func() *HTTPAuth {
			cfg := oauth()
			cfg.GrantType = "password"
			return &HTTPAuth{OAuth2: cfg}
		}(), problem: "grant-type supports only"},
		{name: "oauth2_relative_token_url", auth: func() *HTTPAuth {
			cfg := oauth()
			cfg.TokenURL = "/token"
			return &HTTPAuth{OAuth2: cfg}
		}(), problem: "token-url is not an absolute URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.auth.Validate()
			if tt.problem == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			if !faults.IsCategory(err, faults.ValidationError) || !strings.Contains(err.Error(), tt.problem) {
				t.Fatalf("expected validation error containing %q, got %v", tt.problem, err)
			}
		})
	}
}

func TestHTTPAuthMethods(t *testing.T) {
	t.Parallel()

	var unset *HTTPAuth
	if methods := unset.Methods(); methods != nil {
		t.Fatalf("expected no methods, got %v", methods)
	}
	auth := &HTTPAuth{CustomHeader: &HeaderTokenAuth{}, OAuth2: &OAuth2{}}
	if methods := auth.Methods(); !slices.Equal(methods, []string{AuthOAuth2, AuthCustomHeader}) {
		t.Fatalf("unexpected methods %v", methods)
	}
}
