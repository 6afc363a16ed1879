package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/f0rbit/media-timeline/internal/platform"
)

// tokenResponse is the standard OAuth2 refresh-token grant response shape
// shared by every platform.SupportsRefresh provider.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new access token against the
// platform's declared token endpoint (spec.md §4.5 step 5). Platforms
// that don't support refresh (platform.SupportsRefresh == false) never
// reach this call — the Account Processor checks that first.
func Refresh(ctx context.Context, doer HTTPDoer, tag platform.Tag, token Token) (accessToken, refreshToken string, perr *Error) {
	endpoint := platform.TokenRefreshURL(tag)
	if endpoint == "" {
		return "", "", BadRequest("platform does not support token refresh")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", token.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", NetworkError(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token.ClientID != "" {
		req.SetBasicAuth(token.ClientID, token.ClientSecret)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return "", "", NetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", NetworkError(err)
	}
	if resp.StatusCode >= 300 {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return "", "", FromHTTPStatus(resp.StatusCode, retryAfter, string(body))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", ParseError(err.Error())
	}
	if parsed.RefreshToken == "" {
		// some providers omit refresh_token when it is unchanged.
		parsed.RefreshToken = token.RefreshToken
	}
	return parsed.AccessToken, parsed.RefreshToken, nil
}
