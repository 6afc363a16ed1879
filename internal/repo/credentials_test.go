package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/platform"
)

func TestPlatformCredentialsUpsertResetsVerificationOnOverwrite(t *testing.T) {
	db := newTestDB(t)
	creds := NewPlatformCredentials(db)
	ctx := context.Background()
	profileID := uuid.New()

	if err := creds.Upsert(ctx, profileID, platform.CodeHost, "client-1", "enc-1"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := creds.MarkVerified(ctx, profileID, platform.CodeHost); err != nil {
		t.Fatalf("MarkVerified: %v", err)
	}
	got, err := creds.Get(ctx, profileID, platform.CodeHost)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsVerified {
		t.Fatal("expected credential to be verified")
	}

	if err := creds.Upsert(ctx, profileID, platform.CodeHost, "client-2", "enc-2"); err != nil {
		t.Fatalf("Upsert (overwrite): %v", err)
	}
	got2, err := creds.Get(ctx, profileID, platform.CodeHost)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got2.IsVerified {
		t.Fatal("expected overwriting the credential to reset is_verified to false")
	}
	if got2.ClientID != "client-2" {
		t.Fatalf("got client id %q, want client-2", got2.ClientID)
	}
}

func TestPlatformCredentialsDeleteAndListForProfile(t *testing.T) {
	db := newTestDB(t)
	creds := NewPlatformCredentials(db)
	ctx := context.Background()
	profileID := uuid.New()

	creds.Upsert(ctx, profileID, platform.CodeHost, "c1", "e1")
	creds.Upsert(ctx, profileID, platform.SocialA, "c2", "e2")

	list, err := creds.ListForProfile(ctx, profileID)
	if err != nil {
		t.Fatalf("ListForProfile: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 credentials, got %d", len(list))
	}

	if err := creds.Delete(ctx, profileID, platform.CodeHost); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := creds.Get(ctx, profileID, platform.CodeHost); err == nil {
		t.Fatal("expected Get to fail after Delete")
	}
}
