package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"
)

// doRequest sends the request through the client, logging both ends at
// debug verbosity with credentials stripped from the URL.
func (d *Dispatcher) doRequest(ctx context.Context, purpose string, request *http.Request) (*http.Response, error) {
	logger := logr.FromContextOrDiscard(ctx).WithValues(
		"purpose", purpose,
		"method", request.Method,
		"url", redactURL(request.URL),
	)
	logger.V(2).Info(
		"http request",
		"tlsEnabled", d.tlsDebug.enabled,
		"mtlsEnabled", d.tlsDebug.clientCertFile != "",
		"tlsInsecureSkipVerify", d.tlsDebug.insecureSkipVerify,
		"tlsCACertFile", d.tlsDebug.caCertFile,
	)

	response, err := d.client.Do(request)
	if err != nil {
		logger.V(1).Info("http request failed", "error", err.Error())
		return nil, err
	}

	logger.V(2).Info("http response", "status", response.StatusCode)
	return response, nil
}

func redactURL(value *url.URL) string {
	if value == nil {
		return ""
	}

	cloned := *value
	cloned.User = nil

	query := cloned.Query()
	if len(query) > 0 {
		for key, values := range query {
			redacted := make([]string, len(values))
			for idx := range values {
				redacted[idx] = "<redacted>"
			}
			query[key] = redacted
		}
		cloned.RawQuery = query.Encode()
	}

	return cloned.String()
}
