package sociala

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/f0rbit/media-timeline/internal/provider"
)

type routedDoer struct {
	t      *testing.T
	routes map[string]string
}

func (d *routedDoer) Do(req *http.Request) (*http.Response, error) {
	keys := make([]string, 0, len(d.routes))
	for k := range d.routes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	url := req.URL.String()
	for _, substr := range keys {
		if strings.Contains(url, substr) {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(d.routes[substr])), Header: http.Header{}}, nil
		}
	}
	d.t.Fatalf("unexpected request: %s", url)
	return nil, nil
}

const postsListing = `{"data":{"children":[{"data":{"id":"p1","subreddit":"golang","title":"hi","permalink":"/r/golang/p1","created_utc":1700000000,"score":5,"num_comments":2}}]}}`
const commentsListing = `{"data":{"children":[{"data":{"id":"c1","link_title":"hi","link_permalink":"/r/golang/p1","body":"nice","created_utc":1700000100,"is_submitter":true}}]}}`

func TestFetchDerivesUsernameFromMeWhenNotProvided(t *testing.T) {
	doer := &routedDoer{t: t, routes: map[string]string{
		"/api/v1/me": `{"name":"alice"}`,
		"/submitted": postsListing,
		"/comments":  commentsListing,
	}}
	p := New(doer)
	result, perr := p.Fetch(context.Background(), provider.Token{AccessToken: "tok"})
	if perr != nil {
		t.Fatalf("Fetch: %v", perr)
	}
	if result.Meta.Username != "alice" {
		t.Fatalf("got username %q", result.Meta.Username)
	}
	if len(result.Meta.Subreddits) != 1 || result.Meta.Subreddits[0] != "golang" {
		t.Fatalf("got subreddits %v", result.Meta.Subreddits)
	}
	if len(result.Collections) != 2 {
		t.Fatalf("expected posts + comments collections, got %d", len(result.Collections))
	}
}

func TestFetchForUsernameSkipsMeLookup(t *testing.T) {
	doer := &routedDoer{t: t, routes: map[string]string{
		"/submitted": postsListing,
		"/comments":  commentsListing,
	}}
	p := New(doer)
	result, perr := p.FetchForUsername(context.Background(), provider.Token{AccessToken: "tok"}, "bob")
	if perr != nil {
		t.Fatalf("FetchForUsername: %v", perr)
	}
	if result.Meta.Username != "bob" {
		t.Fatalf("got username %q", result.Meta.Username)
	}
}

func TestFetchSurfacesUpstreamErrorAsProviderError(t *testing.T) {
	p := New(&erroringDoer{})
	_, perr := p.FetchForUsername(context.Background(), provider.Token{AccessToken: "tok"}, "bob")
	if perr == nil || perr.Kind != provider.ErrNetworkError {
		t.Fatalf("expected network_error, got %+v", perr)
	}
}

type erroringDoer struct{}

func (erroringDoer) Do(req *http.Request) (*http.Response, error) {
	return nil, io.ErrClosedPipe
}
