package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sol/model"
)

func seedContacts(t *testing.T, store *ContactStore, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := store.Upsert(context.Background(), model.Contact{Name: name}); err != nil {
			t.Fatalf("Upsert(%s) error = %v", name, err)
		}
	}
}

func TestContactStore_FindByName(t *testing.T) {
	store := openTestDB(t).Contacts()
	seedContacts(t, store, "Sarah Chen", "Sara Lopez", "Marcus Webb", "Priya Natarajan")

	tests := []struct {
		query string
		want  []string
	}{
		{"Sarah", []string{"Sarah Chen"}},
		{"sarah chen", []string{"Sarah Chen"}},
		{"chen", []string{"Sarah Chen"}},
		{"mwebb", []string{"Marcus Webb"}},
		{"Zed", nil},
		{"  ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			found, err := store.FindByName(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("FindByName() error = %v", err)
			}
			var got []string
			for _, c := range found {
				got = append(got, c.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindByName(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestContactStore_UpsertAndList(t *testing.T) {
	store := openTestDB(t).Contacts()
	ctx := context.Background()

	met := time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC)
	c, err := store.Upsert(ctx, model.Contact{Name: "  Sarah Chen ", Email: "sarah@old.example", LastInteraction: met})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if c.ID == "" || c.Name != "Sarah Chen" {
		t.Fatalf("Upsert() = %+v", c)
	}

	c.Email = "sarah@example.com"
	c.Company = "Acme"
	if _, err := store.Upsert(ctx, *c); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}
	seedContacts(t, store, "adam Brooks")

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("List() returned %d contacts, want 2", len(all))
	}
	if all[0].Name != "adam Brooks" {
		t.Errorf("List() not ordered case-insensitively: %s first", all[0].Name)
	}
	got := all[1]
	if got.Email != "sarah@example.com" || got.Company != "Acme" || !got.LastInteraction.Equal(met) {
		t.Errorf("updated contact = %+v", got)
	}

	if _, err := store.Upsert(ctx, model.Contact{Name: " "}); err == nil {
		t.Error("Upsert() without name should fail")
	}
}
