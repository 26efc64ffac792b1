package apiclient

import (
	"net/http"
)

// TokenSource yields the bearer credential for the next request. An empty
// string means the request goes out unauthenticated.
type TokenSource func() string

// BearerTransport decorates every outgoing request with the current token.
// It never retries and never inspects the response.
type BearerTransport struct {
	Base  http.RoundTripper
	Token TokenSource
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	var token string
	if t.Token != nil {
		token = t.Token()
	}
	if token == "" {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request
	decorated := req.Clone(req.Context())
	decorated.Header.Set("Authorization", "Bearer "+token)
	return base.RoundTrip(decorated)
}
