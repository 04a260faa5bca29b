package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// graphQLEnvelope is the subset of a GraphQL response the watcher inspects.
type graphQLEnvelope struct {
	Errors []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

// GraphQLErrorWatcher is the inbound half of the forced-logout contract: it
// watches API responses for authorization failures the server reports
// mid-session (HTTP 401 or a GraphQL UNAUTHENTICATED error) and triggers
// the session manager's clear-and-redirect path. The response body is
// restored for downstream consumers.
type GraphQLErrorWatcher struct {
	Base  http.RoundTripper
	Guard SessionGuard
}

func NewGraphQLErrorWatcher(base http.RoundTripper, guard SessionGuard) *GraphQLErrorWatcher {
	if base == nil {
		base = http.DefaultTransport
	}
	return &GraphQLErrorWatcher{Base: base, Guard: guard}
}

func (w *GraphQLErrorWatcher) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := w.Base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		w.Guard.ClearAuthAndRedirect(req.Context())
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	closeErr := resp.Body.Close()
	if err != nil {
		// A truncated body must not be handed downstream looking complete.
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close response body: %w", closeErr)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var envelope graphQLEnvelope
	if json.Unmarshal(body, &envelope) != nil {
		return resp, nil
	}
	for _, gqlErr := range envelope.Errors {
		if gqlErr.Extensions.Code == "UNAUTHENTICATED" {
			w.Guard.ClearAuthAndRedirect(req.Context())
			break
		}
	}
	return resp, nil
}
