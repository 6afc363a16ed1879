// Package identity wraps the external identity service this core
// delegates authentication to (spec.md §6.2): the five inbound credential
// shapes all resolve to one upstream verification call, after which the
// returned user record is upserted locally. Pattern grounded on the
// teacher's internal/middleware/auth.go JWT-claims-to-context flow, but
// verification itself is delegated rather than performed locally.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/f0rbit/media-timeline/internal/domainerr"
)

// CredentialKind discriminates which of the five inbound shapes produced
// a Verify call, purely for structured logging at the call site.
type CredentialKind string

const (
	KindAuthTokenHeader CredentialKind = "auth_token_header"
	KindBearerJWT        CredentialKind = "bearer_jwt"
	KindDevpadCookie     CredentialKind = "devpad_cookie"
	KindSessionCookie    CredentialKind = "session_cookie"
	KindBearerAPIKey     CredentialKind = "bearer_api_key"
)

// VerifiedUser is the upstream identity record returned on success.
type VerifiedUser struct {
	ExternalUserID string `json:"external_user_id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email"`
}

// Client talks to DEVPAD_URL (spec.md §6.4) to verify inbound credentials.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://devpad.tools"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify checks a raw credential value of the given kind against the
// external identity service. Any non-2xx response, or a transport
// failure, is reported as domainerr.Unauthenticated — callers try the
// next credential shape in the chain rather than surfacing the cause.
func (c *Client) Verify(ctx context.Context, kind CredentialKind, value string) (VerifiedUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/verify", nil)
	if err != nil {
		return VerifiedUser{}, domainerr.Unauthenticated(err.Error())
	}
	switch kind {
	case KindAuthTokenHeader:
		req.Header.Set("Auth-Token", value)
	case KindBearerJWT, KindBearerAPIKey:
		req.Header.Set("Authorization", "Bearer "+value)
	case KindDevpadCookie:
		req.AddCookie(&http.Cookie{Name: "devpad_jwt", Value: value})
	case KindSessionCookie:
		req.Header.Set("Cookie", value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return VerifiedUser{}, domainerr.Unauthenticated(fmt.Sprintf("identity service unreachable: %s", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerifiedUser{}, domainerr.Unauthenticated("credential rejected by identity service")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return VerifiedUser{}, domainerr.Unauthenticated(err.Error())
	}
	var user VerifiedUser
	if err := json.Unmarshal(body, &user); err != nil {
		return VerifiedUser{}, domainerr.Unauthenticated("malformed identity response")
	}
	return user, nil
}
