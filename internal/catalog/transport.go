package catalog

import (
	"net/http"

	"golang.org/x/time/rate"
)

// transport paces outgoing catalog requests and attaches the API key.
type transport struct {
	base    http.RoundTripper
	apiKey  string
	limiter *rate.Limiter
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	if t.apiKey != "" {
		req = req.Clone(req.Context())
		q := req.URL.Query()
		q.Set("key", t.apiKey)
		req.URL.RawQuery = q.Encode()
	}

	return t.base.RoundTrip(req)
}
