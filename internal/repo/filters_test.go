package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/model"
)

func TestProfileFiltersCreateListDelete(t *testing.T) {
	db := newTestDB(t)
	filters := NewProfileFilters(db)
	ctx := context.Background()

	profileID := uuid.New()
	accountID := uuid.New()
	f := &model.ProfileFilter{ProfileID: profileID, AccountID: accountID, Type: model.FilterInclude, Key: model.FilterKeyRepo, Value: "acme/widget"}
	if err := filters.Create(ctx, f); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.ID == uuid.Nil {
		t.Fatal("expected Create to assign an id")
	}

	got, err := filters.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Value != "acme/widget" {
		t.Fatalf("got %+v", got)
	}

	list, err := filters.ListForProfile(ctx, profileID)
	if err != nil {
		t.Fatalf("ListForProfile: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(list))
	}

	if err := filters.Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := filters.Get(ctx, f.ID); err == nil {
		t.Fatal("expected Get to fail after Delete")
	}
}
