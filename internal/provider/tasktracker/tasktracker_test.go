package tasktracker

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
	req    *http.Request
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.req = req
	return &http.Response{StatusCode: f.status, Body: io.NopCloser(strings.NewReader(f.body)), Header: http.Header{}}, nil
}

func TestFetchParsesAssignedIssues(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"data":{"viewer":{"assignedIssues":{"nodes":[{"id":"i1","title":"Fix bug","url":"https://linear.app/i1","state":{"name":"In Progress"},"updatedAt":"2026-01-01T00:00:00Z"}]}}}}`}
	p := New(doer)
	result, perr := p.Fetch(context.Background(), provider.Token{AccessToken: "tok"})
	if perr != nil {
		t.Fatalf("Fetch: %v", perr)
	}
	payload := result.Payload.(store.TaskTrackerPayload)
	if len(payload.Tasks) != 1 || payload.Tasks[0].Status != "In Progress" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestFetchSendsTokenAsRawAuthorizationHeader(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"data":{"viewer":{"assignedIssues":{"nodes":[]}}}}`}
	p := New(doer)
	if _, perr := p.Fetch(context.Background(), provider.Token{AccessToken: "raw-token"}); perr != nil {
		t.Fatalf("Fetch: %v", perr)
	}
	if got := doer.req.Header.Get("Authorization"); got != "raw-token" {
		t.Fatalf("Authorization = %q, want raw-token (no Bearer prefix)", got)
	}
}

func TestFetchRejectsUnparsableUpdatedAt(t *testing.T) {
	doer := &fakeDoer{status: 200, body: `{"data":{"viewer":{"assignedIssues":{"nodes":[{"id":"i1","updatedAt":"not-a-time"}]}}}}`}
	p := New(doer)
	_, perr := p.Fetch(context.Background(), provider.Token{AccessToken: "tok"})
	if perr == nil || perr.Kind != provider.ErrParseError {
		t.Fatalf("expected parse_error, got %+v", perr)
	}
}
