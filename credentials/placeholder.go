package credentials

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/faults"
)

// Placeholder renders the reference to key as written in a catalog.
func Placeholder(key string) string {
	return "{{secret " + strconv.Quote(key) + "}}"
}

// ParsePlaceholder reports whether value is exactly one {{secret key}}
// reference and returns the key. The key may be quoted.
func ParsePlaceholder(value string) (string, bool, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "{{") || !strings.HasSuffix(trimmed, "}}") {
		return "", false, nil
	}

	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(trimmed, "{{"), "}}"))
	if !strings.HasPrefix(inner, "secret") {
		return "", false, nil
	}
	if len(inner) > len("secret") && !unicode.IsSpace(rune(inner[len("secret")])) {
		return "", false, nil
	}

	argument := strings.TrimSpace(strings.TrimPrefix(inner, "secret"))
	if argument == "" {
		return "", true, validationError("secret placeholder key is required", nil)
	}
	if strings.HasPrefix(argument, "\"") {
		key, err := strconv.Unquote(argument)
		if err != nil {
			return "", true, validationError("secret placeholder key is invalid", err)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return "", true, validationError("secret placeholder key must not be empty", nil)
		}
		return key, true, nil
	}
	if strings.ContainsAny(argument, " \t\r\n") {
		return "", true, validationError("secret placeholder key with spaces must be quoted", nil)
	}
	return argument, true, nil
}

// HasPlaceholders reports whether any secret-bearing auth field refers to
// the credential store.
func HasPlaceholders(auth *config.HTTPAuth) bool {
	for _, field := range secretFields(auth) {
		if _, ok, _ := ParsePlaceholder(*field.value); ok {
			return true
		}
	}
	return false
}

// ResolveAuth returns a copy of auth with every {{secret ...}} reference
// replaced by its stored value. A nil lookup fails on the first reference.
func ResolveAuth(ctx context.Context, auth *config.HTTPAuth, lookup LookupFunc) (*config.HTTPAuth, error) {
	if auth == nil {
		return nil, nil
	}
	resolved := cloneAuth(auth)

	for _, field := range secretFields(resolved) {
		key, ok, err := ParsePlaceholder(*field.value)
		if err != nil {
			return nil, faults.NewTypedError(faults.ConfigurationError, field.name+" has an invalid secret placeholder", err)
		}
		if !ok {
			continue
		}
		if lookup == nil {
			return nil, faults.NewTypedError(
				faults.ConfigurationError,
				fmt.Sprintf("%s refers to credential %q but the context has no credentials store", field.name, key),
				nil,
			)
		}
		value, err := lookup(ctx, key)
		if err != nil {
			return nil, err
		}
		*field.value = value
	}
	return resolved, nil
}

type secretField struct {
	name  string
	value *string
}

func secretFields(auth *config.HTTPAuth) []secretField {
	if auth == nil {
		return nil
	}
	var fields []secretField
	if auth.OAuth2 != nil {
		fields = append(fields, secretField{name: "management.http.auth.oauth2.client-secret", value: &auth.OAuth2.ClientSecret})
	}
	if auth.BasicAuth != nil {
		fields = append(fields, secretField{name: "management.http.auth.basic-auth.password", value: &auth.BasicAuth.Password})
	}
	if auth.BearerToken != nil {
		fields = append(fields, secretField{name: "management.http.auth.bearer-token.token", value: &auth.BearerToken.Token})
	}
	if auth.CustomHeader != nil {
		fields = append(fields, secretField{name: "management.http.auth.custom-header.token", value: &auth.CustomHeader.Token})
	}
	return fields
}

func cloneAuth(auth *config.HTTPAuth) *config.HTTPAuth {
	cloned := &config.HTTPAuth{}
	if auth.OAuth2 != nil {
		value := *auth.OAuth2
		cloned.OAuth2 = &value
	}
	if auth.BasicAuth != nil {
		value := *auth.BasicAuth
		cloned.BasicAuth = &value
	}
	if auth.BearerToken != nil {
		value := *auth.BearerToken
		cloned.BearerToken = &value
	}
	if auth.CustomHeader != nil {
		value := *auth.CustomHeader
		cloned.CustomHeader = &value
	}
	return cloned
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
