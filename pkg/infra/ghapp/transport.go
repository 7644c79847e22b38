package ghapp

import (
	"context"
	"net/http"
)

// headerTransport injects per-request headers produced by a header source
// into every outgoing request. The provider client always goes through the
// auth header builder this way; no call bypasses it.
type headerTransport struct {
	base    http.RoundTripper
	headers func(ctx context.Context) (http.Header, error)
}

func (x *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	headers, err := x.headers(req.Context())
	if err != nil {
		return nil, err
	}

	clone := req.Clone(req.Context())
	for key, values := range headers {
		clone.Header.Del(key)
		for _, v := range values {
			clone.Header.Add(key, v)
		}
	}

	base := x.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
