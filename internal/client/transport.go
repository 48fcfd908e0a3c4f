package client

import (
	"context"
	"net/http"
)

type refresher interface {
	// Exchange the stored refresh token for a new pair and store it
	Refresh(ctx context.Context) error
}

// authTransport decorates every outgoing request with the bearer token and
// transparently retries once after a refresh when the backend answers 401.
// One retry per original call, never more: if the backend keeps rejecting
// refreshed tokens the error reaches the caller instead of looping
type authTransport struct {
	base      http.RoundTripper
	session   *Session
	refresher refresher
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(t.withBearer(req))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || !t.session.Authenticated() {
		return resp, nil
	}

	// The session believed itself authenticated and got rejected:
	// refresh and replay the original request exactly once
	if err := t.refresher.Refresh(req.Context()); err != nil {
		// The refresh failure wins over the original 401: the caller
		// learns why the session ended, not that it had expired
		t.session.Clear()
		resp.Body.Close()
		return nil, err
	}

	retry, err := cloneRequest(req)
	if err != nil {
		return resp, nil
	}
	resp.Body.Close()

	return t.base.RoundTrip(t.withBearer(retry))
}

// withBearer returns a clone with the current access token attached, or the
// request untouched when the session has no token
func (t *authTransport) withBearer(req *http.Request) *http.Request {
	access := t.session.AccessToken()
	if access == "" {
		return req
	}

	decorated := req.Clone(req.Context())
	decorated.Header.Set("Authorization", "Bearer "+access)
	return decorated
}

// cloneRequest prepares a replayable copy of the request. Bodyless requests
// clone trivially; requests with a body need GetBody to rewind it
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())

	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errNotReplayable
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body

	return clone, nil
}
