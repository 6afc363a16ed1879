package socialb

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/store"
)

type fakeDoer struct {
	status int
	body   string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: f.status, Body: io.NopCloser(strings.NewReader(f.body)), Header: http.Header{}}, nil
}

func TestFetchReturnsRawPayload(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `[{"id":"1","content":"hello","url":"https://example.social/1","created_at":"2026-01-01T00:00:00Z","account":{"acct":"alice"}}]`}
	p := New(doer, "")
	result, perr := p.Fetch(context.Background(), provider.Token{AccessToken: "tok"})
	if perr != nil {
		t.Fatalf("Fetch: %v", perr)
	}
	payload, ok := result.Payload.(store.SocialBPayload)
	if !ok || len(payload.Posts) != 1 {
		t.Fatalf("unexpected payload: %+v", result.Payload)
	}
	if payload.Posts[0].Author != "alice" {
		t.Fatalf("got author %q", payload.Posts[0].Author)
	}
}

func TestFetchMapsErrorStatus(t *testing.T) {
	doer := &fakeDoer{status: 500, body: "server error"}
	p := New(doer, "")
	_, perr := p.Fetch(context.Background(), provider.Token{AccessToken: "tok"})
	if perr == nil || perr.Kind != provider.ErrAPIError {
		t.Fatalf("expected api_error, got %+v", perr)
	}
}

func TestNewDefaultsInstanceURL(t *testing.T) {
	p := New(&fakeDoer{}, "")
	if p.instance != baseURL {
		t.Fatalf("instance = %q, want default baseURL", p.instance)
	}
}
