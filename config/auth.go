package config

import (
	"net/url"
	"strings"

	"github.com/crmarques/mgmtbridge/faults"
)

const (
	AuthOAuth2       = "oauth2"
	AuthBasic        = "basic-auth"
	AuthBearerToken  = "bearer-token"
	AuthCustomHeader = "custom-header"
)

// Methods lists the configured auth methods in declaration order.
func (a *HTTPAuth) Methods() []string {
	if a == nil {
		return nil
	}
	var methods []string
	if a.OAuth2 != nil {
		methods = append(methods, AuthOAuth2)
	}
	if a.BasicAuth != nil {
		methods = append(methods, AuthBasic)
	}
	if a.BearerToken != nil {
		methods = append(methods, AuthBearerToken)
	}
	if a.CustomHeader != nil {
		methods = append(methods, AuthCustomHeader)
	}
	return methods
}

// Validate requires exactly one complete auth method. Secret values may
// still be {{secret}} placeholders at this point.
func (a *HTTPAuth) Validate() error {
	methods := a.Methods()
	switch {
	case a == nil:
		return authError("", "is required")
	case len(methods) != 1:
		return authError("", "must define exactly one of "+strings.Join([]string{AuthOAuth2, AuthBasic, AuthBearerToken, AuthCustomHeader}, ", "))
	}

	switch methods[0] {
	case AuthOAuth2:
		oauth := a.OAuth2
		if blank(oauth.TokenURL, oauth.GrantType, oauth.ClientID, oauth.ClientSecret) {
			return authError(AuthOAuth2, "requires token-url, grant-type, client-id, client-secret")
		}
		if strings.TrimSpace(oauth.GrantType) != OAuthClientCreds {
			return authError(AuthOAuth2+".grant-type", "supports only "+OAuthClientCreds)
		}
		if tokenURL, err := url.Parse(oauth.TokenURL); err != nil || tokenURL.Scheme == "" || tokenURL.Host == "" {
			return authError(AuthOAuth2+".token-url", "is not an absolute URL")
		}
	case AuthBasic:
		if blank(a.BasicAuth.Username, a.BasicAuth.Password) {
			return authError(AuthBasic, "requires username and password")
		}
	case AuthBearerToken:
		if blank(a.BearerToken.Token) {
			return authError(AuthBearerToken+".token", "is required")
		}
	case AuthCustomHeader:
		if blank(a.CustomHeader.Header, a.CustomHeader.Token) {
			return authError(AuthCustomHeader, "requires header and token")
		}
	}
	return nil
}

func blank(values ...string) bool {
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			return true
		}
	}
	return false
}

func authError(field string, problem string) error {
	key := "management.http.auth"
	if field != "" {
		key += "." + field
	}
	return faults.NewTypedError(faults.ValidationError, key+" "+problem, nil)
}
