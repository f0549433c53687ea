package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"sol/model"
)

// steppingClock advances by one minute per call.
func steppingClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

func TestContextStore_Recent(t *testing.T) {
	db := openTestDB(t)
	db.now = steppingClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := db.Context(nil)
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		if _, err := store.Add(ctx, content, "Notes"); err != nil {
			t.Fatalf("Add(%s) error = %v", content, err)
		}
	}

	got, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 || got[0].Content != "third" || got[1].Content != "second" {
		t.Errorf("Recent(2) = %+v", got)
	}
	if got[0].SourceApp != "Notes" {
		t.Errorf("SourceApp = %q", got[0].SourceApp)
	}

	none, err := store.Recent(ctx, 0)
	if err != nil || none != nil {
		t.Errorf("Recent(0) = %v, %v", none, err)
	}

	if _, err := store.Add(ctx, "   ", ""); err == nil {
		t.Error("Add() of blank content should fail")
	}
}

func TestContextStore_Search(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	db.now = steppingClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	convs, err := NewConversationStorage(dir)
	if err != nil {
		t.Fatalf("NewConversationStorage() error = %v", err)
	}
	store := db.Context(NewSearchIndex(convs))
	ctx := context.Background()

	if _, err := store.Add(ctx, "Quarterly budget draft v2", "Sheets"); err != nil {
		t.Fatal(err)
	}
	if err := store.AddNote(ctx, "Budget review", "Move the review to Thursday"); err != nil {
		t.Fatal(err)
	}
	if err := store.AddNote(ctx, "Groceries", "eggs, oat milk"); err != nil {
		t.Fatal(err)
	}

	conv, err := convs.Create(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	err = convs.Append(ctx, conv.ID, model.ChatMessage{
		ID:        "m1",
		Role:      model.RoleUser,
		Content:   "Can you pull up the budget numbers?",
		Timestamp: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(ctx, "BUDGET", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	var sources []string
	for _, h := range hits {
		sources = append(sources, h.Source)
	}
	want := []string{SourceConversation, SourceNote, SourceClipboard}
	if strings.Join(sources, ",") != strings.Join(want, ",") {
		t.Fatalf("hit sources = %v, want %v (newest first)", sources, want)
	}
	if hits[1].Title != "Budget review" || hits[2].Title != "Sheets" {
		t.Errorf("titles = %q, %q", hits[1].Title, hits[2].Title)
	}
	if hits[0].Snippet != "User: Can you pull up the budget numbers?" {
		t.Errorf("conversation snippet = %q", hits[0].Snippet)
	}

	limited, err := store.Search(ctx, "budget", 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("Search(limit 1) = %d hits, %v", len(limited), err)
	}

	empty, err := store.Search(ctx, "flights", 10)
	if err != nil || len(empty) != 0 {
		t.Errorf("Search(no match) = %v, %v", empty, err)
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("a", 300) + "needle" + strings.Repeat("b", 300)

	got := snippet(long, "needle")
	if !strings.Contains(got, "needle") {
		t.Errorf("snippet lost the match: %q", got)
	}
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "...") {
		t.Errorf("snippet should be elided on both sides: %q", got)
	}
	if short := snippet("short text", "text"); short != "short text" {
		t.Errorf("snippet(short) = %q", short)
	}
}
