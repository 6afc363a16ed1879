// Package store implements the Versioned Store (spec.md §4.2): an
// append-only, content-addressed log of typed snapshots keyed by store id,
// with parent lineage tracked as edges rather than materialized pointers
// (spec.md §9 design note).
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// ParentRole names why a snapshot references a parent in its lineage DAG.
type ParentRole string

const (
	// RoleBase marks the snapshot this one was diffed/merged against.
	RoleBase ParentRole = "base"
	// RoleSource marks a raw collection snapshot a derived (e.g. timeline)
	// snapshot was assembled from.
	RoleSource ParentRole = "source"
)

// ParentRef is one edge in a snapshot's lineage DAG.
type ParentRef struct {
	StoreID string
	Version int64
	Role    ParentRole
}

// Snapshot is one immutable version of a store id's content.
type Snapshot struct {
	StoreID     string
	Version     int64
	ContentHash string
	CreatedAt   time.Time
	Tags        []string
	Payload     json.RawMessage
	Parents     []ParentRef
}

// DecodePayload unmarshals the snapshot's raw payload into out, for
// callers that only know the concrete type at runtime (e.g. dispatching
// on a platform tag rather than a compile-time type parameter).
func (s Snapshot) DecodePayload(out any) error {
	return json.Unmarshal(s.Payload, out)
}

// SnapshotMeta is the summary shape List returns — everything about a
// Snapshot except its payload, which callers fetch on demand with Get.
type SnapshotMeta struct {
	StoreID     string
	Version     int64
	ContentHash string
	CreatedAt   time.Time
	Tags        []string
}

// PutOptions carries the optional lineage and tagging metadata for a write.
type PutOptions struct {
	Tags    []string
	Parents []ParentRef
}

// ListOptions bounds a List call. Zero value lists every version, newest first.
type ListOptions struct {
	Limit int
}

// Backend is the storage contract every typed store is built on. A single
// store id's history is an append-only sequence of versions; Put never
// overwrites a prior version, matching the spec's audit-trail invariant
// (spec.md §8 invariant 1).
type Backend interface {
	// Put appends a new version under storeID unless its content hash
	// matches the current latest version, in which case it is a no-op and
	// the existing version is returned (dedup, spec.md §4.2).
	Put(ctx context.Context, storeID string, payload []byte, opts PutOptions) (Snapshot, error)
	// GetLatest returns the newest snapshot for storeID, or a domainerr
	// not_found error if storeID has never been written.
	GetLatest(ctx context.Context, storeID string) (Snapshot, error)
	// Get returns a specific version of storeID.
	Get(ctx context.Context, storeID string, version int64) (Snapshot, error)
	// List returns version summaries for storeID, newest first.
	List(ctx context.Context, storeID string, opts ListOptions) ([]SnapshotMeta, error)
	// DeleteByTag removes every version of every store id carrying tag,
	// returning the number of snapshots deleted. Used when an account is
	// disconnected (spec.md §6.1's "remove account + its stores"); it is
	// the one place the append-only invariant yields to data removal.
	DeleteByTag(ctx context.Context, tag string) (int, error)
}

// hashContent computes the content-addressing hash Put uses for dedup.
func hashContent(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Put marshals data as JSON and writes it through b, returning the decoded
// snapshot actually stored (which may be an earlier version if content was
// unchanged). Generic helper over Backend.Put so callers work in typed
// payloads instead of raw bytes.
func Put[T any](ctx context.Context, b Backend, storeID string, data T, opts PutOptions) (Snapshot, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Snapshot{}, err
	}
	return b.Put(ctx, storeID, raw, opts)
}

// GetLatest fetches storeID's newest snapshot and decodes its payload into T.
func GetLatest[T any](ctx context.Context, b Backend, storeID string) (T, Snapshot, error) {
	var zero T
	snap, err := b.GetLatest(ctx, storeID)
	if err != nil {
		return zero, Snapshot{}, err
	}
	var v T
	if err := json.Unmarshal(snap.Payload, &v); err != nil {
		return zero, Snapshot{}, err
	}
	return v, snap, nil
}

// Get fetches a specific version of storeID and decodes its payload into T.
func Get[T any](ctx context.Context, b Backend, storeID string, version int64) (T, Snapshot, error) {
	var zero T
	snap, err := b.Get(ctx, storeID, version)
	if err != nil {
		return zero, Snapshot{}, err
	}
	var v T
	if err := json.Unmarshal(snap.Payload, &v); err != nil {
		return zero, Snapshot{}, err
	}
	return v, snap, nil
}
