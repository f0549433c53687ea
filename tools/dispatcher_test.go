package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sol/model"
	"sol/testutil"
)

var fixedNow = time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)

func newTestDispatcher() (*Dispatcher, *testutil.MemoryStore, *testutil.Calendar) {
	memory := testutil.NewMemoryStore(
		model.MemoryFact{ID: "m1", Category: model.MemoryUserPreference, Key: "coffee", Value: "flat white", Confidence: 0.9},
		model.MemoryFact{ID: "m2", Category: model.MemoryRelationship, Key: "sarah", Value: "manager at Acme", Confidence: 0.7},
	)
	calendar := &testutil.Calendar{}
	d := NewDispatcher(Deps{
		Contacts: &testutil.ContactStore{Contacts: []model.Contact{
			{ID: "c1", Name: "Sarah Chen", Email: "sarah@acme.test", Company: "Acme"},
			{ID: "c2", Name: "Tom Baker", Email: "tom@example.test"},
		}},
		Memory: memory,
		Context: &testutil.ContextSearcher{Hits: []model.ContextHit{
			{Source: "note", Title: "Roadmap", Snippet: "Q3 roadmap draft"},
		}},
		Calendar: calendar,
		Now:      func() time.Time { return fixedNow },
	})
	return d, memory, calendar
}

func decodeResult(t *testing.T, outcome model.ToolOutcome, dst any) {
	t.Helper()
	if err := json.Unmarshal([]byte(outcome.ResultJSON), dst); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, outcome.ResultJSON)
	}
}

func errorBody(t *testing.T, outcome model.ToolOutcome) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeResult(t, outcome, &body)
	return body.Error
}

func TestDispatchPreservesCallID(t *testing.T) {
	d, _, _ := newTestDispatcher()

	intents := []model.ToolCallIntent{
		{ID: "t1", ToolName: "lookup_contact", ArgumentsJSON: `{"name":"Sarah"}`},
		{ID: "t2", ToolName: "delete_everything", ArgumentsJSON: `{}`},
		{ID: "t3", ToolName: "save_memory", ArgumentsJSON: `not json`},
		{ID: "t4", ToolName: "search_context", ArgumentsJSON: `{"query":"roadmap"}`},
		{ID: "t5", ToolName: "send_email", ArgumentsJSON: ``},
	}

	for i, intent := range intents {
		outcome := d.Dispatch(context.Background(), intent)
		if outcome.ToolCallID != intent.ID {
			t.Errorf("outcome %d has id %q, want %q", i, outcome.ToolCallID, intent.ID)
		}
		if !json.Valid([]byte(outcome.ResultJSON)) {
			t.Errorf("outcome %d body is not JSON: %s", i, outcome.ResultJSON)
		}
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d, _, _ := newTestDispatcher()

	got := d.Dispatch(context.Background(), model.ToolCallIntent{ID: "x", ToolName: "delete_everything", ArgumentsJSON: `{}`})
	if got.Success {
		t.Fatal("unknown tool should fail")
	}
	if msg := errorBody(t, got); msg != "Unknown tool: delete_everything" {
		t.Errorf("error = %q", msg)
	}
}

func TestDispatchInvalidArguments(t *testing.T) {
	tests := []struct {
		name     string
		tool     string
		args     string
		contains string
	}{
		{"malformed json", "lookup_contact", `{"name":`, "Invalid arguments for lookup_contact"},
		{"wrong type", "lookup_contact", `{"name":42}`, "Invalid arguments for lookup_contact"},
		{"missing required", "send_email", `{"to":"a@b.test"}`, "missing required field: body, subject"},
		{"bad email", "send_email", `{"to":"nobody","subject":"s","body":"b"}`, "not an email address"},
		{"bad category", "save_memory", `{"category":"favouriteColour","key":"k","value":"v"}`, `unknown memory category "favouriteColour"`},
		{"bad confidence", "save_memory", `{"category":"userPreference","key":"k","value":"v","confidence":3}`, "outside [0, 1]"},
		{"bad search category", "search_memory", `{"query":"x","category":"nope"}`, "unknown memory category"},
		{"bad date", "check_calendar", `{"date":"next tuesday"}`, "date must be YYYY-MM-DD"},
		{"bad clock", "create_calendar_event", `{"title":"t","date":"2026-03-10","start_time":"3pm"}`, "start_time must be HH:MM"},
		{"trailing data", "search_context", `{"query":"a"} {"query":"b"}`, "trailing data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, memory, _ := newTestDispatcher()
			got := d.Dispatch(context.Background(), model.ToolCallIntent{ID: "id", ToolName: tt.tool, ArgumentsJSON: tt.args})
			if got.Success {
				t.Fatalf("expected failure, got %s", got.ResultJSON)
			}
			msg := errorBody(t, got)
			if !strings.HasPrefix(msg, "Invalid arguments for "+tt.tool) {
				t.Errorf("error %q should start with the invalid arguments prefix", msg)
			}
			if !strings.Contains(msg, tt.contains) {
				t.Errorf("error %q should contain %q", msg, tt.contains)
			}
			if len(memory.Facts()) != 2 {
				t.Error("invalid arguments must not write to memory")
			}
		})
	}
}

func TestDispatchLookupContact(t *testing.T) {
	d, _, _ := newTestDispatcher()

	got := d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t1", ToolName: "lookup_contact", ArgumentsJSON: `{"name":"sarah"}`})
	if !got.Success {
		t.Fatalf("lookup failed: %s", got.ResultJSON)
	}
	var body contactLookupResult
	decodeResult(t, got, &body)
	if !body.Found || body.Count != 1 || body.Contacts[0].Email != "sarah@acme.test" {
		t.Errorf("unexpected result %+v", body)
	}

	got = d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t2", ToolName: "lookup_contact", ArgumentsJSON: `{"name":"Zed"}`})
	decodeResult(t, got, &body)
	if !got.Success || body.Found || body.Count != 0 {
		t.Errorf("expected empty success, got %s", got.ResultJSON)
	}
}

func TestDispatchLookupContactDedupesAndCaps(t *testing.T) {
	var many []model.Contact
	for _, id := range []string{"a", "a", "b", "c", "d", "e", "f"} {
		many = append(many, model.Contact{ID: id, Name: "Lee " + id})
	}
	d := NewDispatcher(Deps{Contacts: &testutil.ContactStore{Contacts: many}})

	got := d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t", ToolName: "lookup_contact", ArgumentsJSON: `{"name":"Lee"}`})
	var body contactLookupResult
	decodeResult(t, got, &body)
	ids := make([]string, 0, len(body.Contacts))
	for _, c := range body.Contacts {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d", "e"}, ids); diff != "" {
		t.Errorf("contact ids mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchSearchMemory(t *testing.T) {
	d, memory, _ := newTestDispatcher()

	got := d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t1", ToolName: "search_memory", ArgumentsJSON: `{"query":"What coffee do I like?"}`})
	if !got.Success {
		t.Fatalf("search failed: %s", got.ResultJSON)
	}
	var body memorySearchResult
	decodeResult(t, got, &body)
	want := memorySearchResult{Count: 1, Memories: []memoryHit{
		{ID: "m1", Category: model.MemoryUserPreference, Key: "coffee", Value: "flat white", Confidence: 0.9},
	}}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
	if memory.Usage("m1") != 1 {
		t.Errorf("usage(m1) = %d, want 1", memory.Usage("m1"))
	}

	got = d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t2", ToolName: "search_memory", ArgumentsJSON: `{"query":"sarah coffee","category":"relationship"}`})
	decodeResult(t, got, &body)
	if body.Count != 1 || body.Memories[0].ID != "m2" {
		t.Errorf("category filter not applied: %s", got.ResultJSON)
	}
}

func TestDispatchSaveMemory(t *testing.T) {
	d, memory, _ := newTestDispatcher()

	got := d.Dispatch(context.Background(), model.ToolCallIntent{
		ID:            "t1",
		ToolName:      "save_memory",
		ArgumentsJSON: `{"category":"userPreference","key":"coffee","value":"oat milk"}`,
	})
	if !got.Success || got.ToolCallID != "t1" {
		t.Fatalf("save failed: %+v", got)
	}
	var body saveMemoryResult
	decodeResult(t, got, &body)
	if body.Status != "saved" || body.ID != "m1" || body.Message != "Remembered coffee: oat milk" {
		t.Errorf("unexpected result %+v", body)
	}

	facts := memory.Facts()
	if len(facts) != 2 {
		t.Fatalf("save should upsert, have %d facts", len(facts))
	}
	if facts[0].Value != "oat milk" || facts[0].Confidence != 0.8 || facts[0].Source != "tool" {
		t.Errorf("unexpected stored fact %+v", facts[0])
	}
}

func TestDispatchSearchContext(t *testing.T) {
	d, _, _ := newTestDispatcher()

	got := d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t", ToolName: "search_context", ArgumentsJSON: `{"query":"nothing here"}`})
	if got.ResultJSON != `{"count":0,"results":[]}` {
		t.Errorf("empty search = %s", got.ResultJSON)
	}

	got = d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t", ToolName: "search_context", ArgumentsJSON: `{"query":"roadmap","limit":3}`})
	var body contextSearchResult
	decodeResult(t, got, &body)
	if body.Count != 1 || body.Results[0].Title != "Roadmap" {
		t.Errorf("unexpected result %s", got.ResultJSON)
	}
}

func TestDispatchCalendar(t *testing.T) {
	d, _, calendar := newTestDispatcher()

	got := d.Dispatch(context.Background(), model.ToolCallIntent{
		ID:            "t1",
		ToolName:      "check_calendar",
		ArgumentsJSON: `{"date":"2026-03-10","start_time":"15:00","duration_minutes":45}`,
	})
	if !got.Success {
		t.Fatalf("check failed: %s", got.ResultJSON)
	}
	req := calendar.Checks[0]
	if want := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC); !req.Start.Equal(want) || req.Duration != 45*time.Minute {
		t.Errorf("request = %+v", req)
	}
	var availability model.Availability
	decodeResult(t, got, &availability)
	if availability.Date != "2026-03-10" || !availability.Available {
		t.Errorf("unexpected availability %+v", availability)
	}

	got = d.Dispatch(context.Background(), model.ToolCallIntent{
		ID:            "t2",
		ToolName:      "create_calendar_event",
		ArgumentsJSON: `{"title":"Sync with Sarah","date":"2026-03-10","start_time":"15:00","attendees":["sarah@acme.test"]}`,
	})
	if !got.Success {
		t.Fatalf("create failed: %s", got.ResultJSON)
	}
	created := calendar.Created[0]
	if created.Title != "Sync with Sarah" || created.End.Sub(created.Start) != 30*time.Minute {
		t.Errorf("unexpected event %+v", created)
	}
	var body createEventResult
	decodeResult(t, got, &body)
	if !body.Created || body.Event.ID == "" {
		t.Errorf("unexpected result %s", got.ResultJSON)
	}
}

func TestDispatchCalendarErrors(t *testing.T) {
	d := NewDispatcher(Deps{})
	got := d.Dispatch(context.Background(), model.ToolCallIntent{ID: "t", ToolName: "check_calendar", ArgumentsJSON: `{"date":"2026-03-10"}`})
	if got.Success || errorBody(t, got) != "check_calendar failed: calendar unavailable" {
		t.Errorf("missing calendar = %s", got.ResultJSON)
	}

	d = NewDispatcher(Deps{Calendar: &testutil.Calendar{
		CreateFunc: func(ctx context.Context, event model.CalendarEvent) (*model.CalendarEvent, error) {
			return nil, errors.New("companion offline")
		},
	}})
	got = d.Dispatch(context.Background(), model.ToolCallIntent{
		ID:            "t",
		ToolName:      "create_calendar_event",
		ArgumentsJSON: `{"title":"x","date":"2026-03-10","start_time":"09:00"}`,
	})
	if got.Success || !strings.Contains(errorBody(t, got), "companion offline") {
		t.Errorf("executor error = %s", got.ResultJSON)
	}
}

func TestDispatchSendEmailIsDraftOnly(t *testing.T) {
	d, _, _ := newTestDispatcher()

	got := d.Dispatch(context.Background(), model.ToolCallIntent{
		ID:            "t1",
		ToolName:      "send_email",
		ArgumentsJSON: `{"to":"sarah@acme.test","subject":"Next week","body":"Does Tuesday work?"}`,
	})
	if !got.Success {
		t.Fatalf("draft failed: %s", got.ResultJSON)
	}
	want := `{"status":"draft_created","to":"sarah@acme.test","cc":[],"subject":"Next week","body":"Does Tuesday work?"}`
	if got.ResultJSON != want {
		t.Errorf("draft = %s\nwant  %s", got.ResultJSON, want)
	}
}
