package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/crmarques/mgmtbridge/config"
)

// tokenRefreshMargin renews an access token this long before it expires.
const tokenRefreshMargin = 30 * time.Second

// authenticator adds credentials to an outgoing request. The dispatcher is
// passed for requests of its own, such as fetching a token.
type authenticator interface {
	authenticate(ctx context.Context, d *Dispatcher, request *http.Request) error
}

type headerAuthenticator struct {
	name  string
	value string
}

func (h headerAuthenticator) authenticate(_ context.Context, _ *Dispatcher, request *http.Request) error {
	request.Header.Set(h.name, h.value)
	return nil
}

type basicAuthenticator config.BasicAuth

func (b basicAuthenticator) authenticate(_ context.Context, _ *Dispatcher, request *http.Request) error {
	request.SetBasicAuth(b.Username, b.Password)
	return nil
}

// clientCredentialsAuthenticator holds one cached access token. Concurrent
// requests wait for a single refresh.
type clientCredentialsAuthenticator struct {
	cfg config.OAuth2

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (c *clientCredentialsAuthenticator) authenticate(ctx context.Context, d *Dispatcher, request *http.Request) error {
	token, err := c.accessToken(ctx, d)
	if err != nil {
		return err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *clientCredentialsAuthenticator) accessToken(ctx context.Context, d *Dispatcher) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Add(tokenRefreshMargin).Before(c.expiresAt) {
		return c.token, nil
	}
	token, lifetime, err := c.requestToken(ctx, d)
	if err != nil {
		return "", err
	}
	c.token = token
	c.expiresAt = time.Now().Add(lifetime)
	return token, nil
}

func (c *clientCredentialsAuthenticator) requestToken(ctx context.Context, d *Dispatcher) (string, time.Duration, error) {
	form := url.Values{
		"grant_type":    {c.cfg.GrantType},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}
	for key, value := range map[string]string{"scope": c.cfg.Scope, "audience": c.cfg.Audience} {
		if strings.TrimSpace(value) != "" {
			form.Set(key, value)
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, internalError("failed to create oauth2 token request", err)
	}
	request.Header.Set("Accept", defaultMediaType)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := d.doRequest(ctx, "oauth2-token", request)
	if err != nil {
		return "", 0, transportError("oauth2 token request failed", err)
	}
	defer response.Body.Close()

	body, err := d.readBody(response.Body, "oauth2 token response")
	if err != nil {
		return "", 0, err
	}
	if response.StatusCode >= http.StatusBadRequest {
		return "", 0, authError(fmt.Sprintf("oauth2 token endpoint answered %d: %s", response.StatusCode, summarizeBody(body)), nil)
	}

	var issued struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &issued); err != nil {
		return "", 0, authError("oauth2 token response is not valid JSON", err)
	}
	if strings.TrimSpace(issued.AccessToken) == "" {
		return "", 0, authError("oauth2 token response has no access_token", nil)
	}

	lifetime := time.Hour
	if issued.ExpiresIn > 0 {
		lifetime = time.Duration(issued.ExpiresIn) * time.Second
	}
	return issued.AccessToken, lifetime, nil
}

// newAuthenticator validates cfg and returns the authenticator of its one
// configured method.
func newAuthenticator(cfg *config.HTTPAuth) (authenticator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Methods()[0] {
	case config.AuthOAuth2:
		return &clientCredentialsAuthenticator{cfg: *cfg.OAuth2}, nil
	case config.AuthBasic:
		return basicAuthenticator(*cfg.BasicAuth), nil
	case config.AuthBearerToken:
		return headerAuthenticator{name: "Authorization", value: "Bearer " + cfg.BearerToken.Token}, nil
	default:
		return headerAuthenticator{name: cfg.CustomHeader.Header, value: cfg.CustomHeader.Token}, nil
	}
}
