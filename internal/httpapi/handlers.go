package httpapi

import (
	"github.com/f0rbit/media-timeline/internal/sync"
)

// Handlers holds the sync.Service every handler delegates business logic
// to, the same thin-adapter shape as the teacher's internal/handlers/*
// (a Service field plus one method per route).
type Handlers struct {
	svc *sync.Service
}

func NewHandlers(svc *sync.Service) *Handlers {
	return &Handlers{svc: svc}
}
