// Package http dispatches management operations to a remote endpoint as
// JSON request trees posted over HTTP.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/crmarques/mgmtbridge/config"
	"github.com/crmarques/mgmtbridge/dispatch"
	"github.com/crmarques/mgmtbridge/operation"
	"github.com/crmarques/mgmtbridge/tree"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMediaType   = "application/json"
	managementPath     = "management"
	maxResponseBytes   = 16 << 20
)

var _ dispatch.Dispatcher = (*Dispatcher)(nil)

type Dispatcher struct {
	endpoint       *url.URL
	defaultHeaders map[string]string
	auth           authenticator
	client         *http.Client
	limiter        *rate.Limiter
	maxResponse    int64
	tlsDebug       tlsDebugInfo
}

type Option func(*Dispatcher)

// WithTransport replaces the round tripper built from the TLS settings.
func WithTransport(transport http.RoundTripper) Option {
	return func(d *Dispatcher) {
		if d == nil || transport == nil {
			return
		}
		d.client.Transport = transport
	}
}

// WithMaxResponseBytes caps the size of a response body. Recursive reads
// of large subsystems may need more than the default.
func WithMaxResponseBytes(limit int64) Option {
	return func(d *Dispatcher) {
		if d == nil || limit <= 0 {
			return
		}
		d.maxResponse = limit
	}
}

func New(cfg config.HTTPEndpoint, opts ...Option) (*Dispatcher, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	auth, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := buildTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}

	timeout := defaultHTTPTimeout
	if strings.TrimSpace(cfg.Timeout) != "" {
		timeout, err = time.ParseDuration(cfg.Timeout)
		if err != nil || timeout <= 0 {
			return nil, validationError("management.http.timeout must be a positive duration", err)
		}
	}

	limiter, err := buildLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	endpoint := *baseURL
	endpoint.Path = path.Join(baseURL.Path, managementPath)

	dispatcher := &Dispatcher{
		endpoint:       &endpoint,
		defaultHeaders: cloneStringMap(cfg.DefaultHeaders),
		auth:           auth,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		limiter:     limiter,
		maxResponse: maxResponseBytes,
		tlsDebug:    newTLSDebugInfo(cfg.TLS),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(dispatcher)
	}
	return dispatcher, nil
}

// Execute posts the request tree and decodes the response tree. A response
// body carrying an outcome is returned as a Response whatever the HTTP
// status; errors are reserved for requests that produced no response.
func (d *Dispatcher) Execute(ctx context.Context, op operation.Operation) (dispatch.Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return dispatch.Response{}, transportError("management request was not sent", err)
		}
	}

	payload, err := json.Marshal(op.Node())
	if err != nil {
		return dispatch.Response{}, internalError("failed to encode management request", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return dispatch.Response{}, internalError("failed to create management request", err)
	}
	request.Header.Set("Accept", defaultMediaType)
	request.Header.Set("Content-Type", defaultMediaType)
	for _, key := range sortedKeys(d.defaultHeaders) {
		request.Header.Set(key, d.defaultHeaders[key])
	}
	if err := d.auth.authenticate(ctx, d, request); err != nil {
		return dispatch.Response{}, err
	}

	response, err := d.doRequest(ctx, "operation", request)
	if err != nil {
		return dispatch.Response{}, transportError("management request failed", err)
	}
	defer response.Body.Close()

	body, err := d.readBody(response.Body, "management response")
	if err != nil {
		return dispatch.Response{}, err
	}

	node, decodeErr := tree.Parse(body)
	if decodeErr == nil && node.Kind() == tree.Object && node.Has("outcome") {
		return dispatch.ParseResponse(node)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return dispatch.Response{}, classifyStatusError(response.StatusCode, body)
	}
	if decodeErr != nil {
		return dispatch.Response{}, decodeTypeError("management response is not valid JSON", decodeErr)
	}
	return dispatch.ParseResponse(node)
}

// readBody reads at most maxResponse bytes. A longer body is an error
// rather than a silently truncated document.
func (d *Dispatcher) readBody(body io.Reader, what string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, d.maxResponse+1))
	if err != nil {
		return nil, transportError("failed to read "+what+" body", err)
	}
	if int64(len(data)) > d.maxResponse {
		return nil, transportError(fmt.Sprintf("%s exceeds the %d byte limit", what, d.maxResponse), nil)
	}
	return data, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, validationError("management.http.base-url is required", nil)
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return nil, validationError("management.http.base-url is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("management.http.base-url must use http or https", nil)
	}
	if parsed.Host == "" {
		return nil, validationError("management.http.base-url host is required", nil)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed, nil
}

// buildLimiter returns nil when no rate limit is configured. The burst
// defaults to the per-second rate rounded up.
func buildLimiter(cfg *config.RateLimit) (*rate.Limiter, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, validationError("management.http.rate-limit.requests-per-second must be positive", nil)
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Ceil(cfg.RequestsPerSecond))
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst), nil
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}

	cloned := make(map[string]string, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}
