package sync

import (
	"net/http"
	"testing"

	"github.com/f0rbit/media-timeline/internal/platform"
)

type noopDoer struct{}

func (noopDoer) Do(req *http.Request) (*http.Response, error) { return nil, nil }

func TestProviderRegistryResolvesMultiAndSingleStoreProviders(t *testing.T) {
	reg := NewProviderRegistry(noopDoer{}, "social.example")

	for _, p := range []platform.Tag{platform.CodeHost, platform.SocialA, platform.Microblog} {
		if _, ok := reg.MultiStore(p); !ok {
			t.Fatalf("expected a multi-store provider registered for %s", p)
		}
		if _, ok := reg.SingleStore(p); ok {
			t.Fatalf("%s should not also resolve as single-store", p)
		}
	}

	for _, p := range []platform.Tag{platform.SocialB, platform.VideoHost, platform.TaskTracker} {
		if _, ok := reg.SingleStore(p); !ok {
			t.Fatalf("expected a single-store provider registered for %s", p)
		}
		if _, ok := reg.MultiStore(p); ok {
			t.Fatalf("%s should not also resolve as multi-store", p)
		}
	}
}

func TestUsernameFetcherOnlySatisfiedBySociaAAndMicroblog(t *testing.T) {
	reg := NewProviderRegistry(noopDoer{}, "social.example")

	social, _ := reg.MultiStore(platform.SocialA)
	if _, ok := UsernameFetcher(social); !ok {
		t.Fatal("expected social-A provider to satisfy UsernameFetcher")
	}

	micro, _ := reg.MultiStore(platform.Microblog)
	if _, ok := UsernameFetcher(micro); !ok {
		t.Fatal("expected microblog provider to satisfy UsernameFetcher")
	}

	codeHost, _ := reg.MultiStore(platform.CodeHost)
	if _, ok := UsernameFetcher(codeHost); ok {
		t.Fatal("code-host provider fetches by authenticated user only, should not satisfy UsernameFetcher")
	}
}
