package sync

import (
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/provider/codehost"
	"github.com/f0rbit/media-timeline/internal/provider/microblog"
	"github.com/f0rbit/media-timeline/internal/provider/sociala"
	"github.com/f0rbit/media-timeline/internal/provider/socialb"
	"github.com/f0rbit/media-timeline/internal/provider/tasktracker"
	"github.com/f0rbit/media-timeline/internal/provider/videohost"
)

// ProviderRegistry holds one concrete Platform Provider (C1) per platform
// tag, matching the "provider factory" the design notes (spec.md §9) say
// should be bundled alongside the database handle and encryption key.
type ProviderRegistry struct {
	multi  map[platform.Tag]provider.MultiStoreProvider
	single map[platform.Tag]provider.SingleStoreProvider
}

// NewProviderRegistry wires every platform concretization against a single
// shared HTTPDoer (a plain *http.Client in production, a fake in tests —
// spec.md explicitly scopes out exercising real upstream credentials).
func NewProviderRegistry(doer provider.HTTPDoer, socialBInstance string) *ProviderRegistry {
	return &ProviderRegistry{
		multi: map[platform.Tag]provider.MultiStoreProvider{
			platform.CodeHost:  codehost.New(doer),
			platform.SocialA:   sociala.New(doer),
			platform.Microblog: microblog.New(doer),
		},
		single: map[platform.Tag]provider.SingleStoreProvider{
			platform.SocialB:     socialb.New(doer, socialBInstance),
			platform.VideoHost:   videohost.New(doer),
			platform.TaskTracker: tasktracker.New(doer),
		},
	}
}

func (r *ProviderRegistry) MultiStore(t platform.Tag) (provider.MultiStoreProvider, bool) {
	p, ok := r.multi[t]
	return p, ok
}

func (r *ProviderRegistry) SingleStore(t platform.Tag) (provider.SingleStoreProvider, bool) {
	p, ok := r.single[t]
	return p, ok
}

// UsernameFetcher returns p's provider.UsernameFetcher facet when it has
// one, used for the social-A bring-your-own-script-app identity path
// (spec.md §9 open question 1).
func UsernameFetcher(p provider.MultiStoreProvider) (provider.UsernameFetcher, bool) {
	uf, ok := p.(provider.UsernameFetcher)
	return uf, ok
}
