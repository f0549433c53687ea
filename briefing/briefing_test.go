package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/goleak"

	"sol/model"
	ptestutil "sol/provider/testutil"
	"sol/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

type harness struct {
	calendar *testutil.Calendar
	contacts *testutil.ContactStore
	mock     *ptestutil.MockCompleter
	actions  *testutil.ActionSink
	preparer *Preparer
}

func newHarness(t *testing.T, events ...model.CalendarEvent) *harness {
	t.Helper()
	h := &harness{
		calendar: &testutil.Calendar{Created: events},
		contacts: &testutil.ContactStore{Contacts: []model.Contact{
			{ID: "c1", Name: "Sarah Chen", Email: "sarah.chen@acme.com", Company: "Acme", Title: "VP Engineering", Notes: "Prefers async updates"},
		}},
		mock:    ptestutil.NewMockCompleter("test-model"),
		actions: &testutil.ActionSink{},
	}
	h.mock.CompleteFunc = func(ctx context.Context, messages []model.ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
		return ptestutil.TextResponse("# Brief\n\nTalk about the roadmap."), nil
	}
	h.preparer = New(Deps{
		Calendar:    h.calendar,
		Contacts:    h.contacts,
		WorkContext: testutil.WorkContext{Text: "Working in Xcode on the Acme integration"},
		Completer:   h.mock,
		Actions:     h.actions,
		Now:         func() time.Time { return now },
	}, 1024)
	return h
}

func ids(events []model.CalendarEvent) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.ID)
	}
	return out
}

func TestUpcoming(t *testing.T) {
	h := newHarness(t,
		model.CalendarEvent{ID: "past", Title: "Breakfast", Start: at(2, 9), External: true},
		model.CalendarEvent{ID: "standup", Title: "Standup", Start: at(2, 11)},
		model.CalendarEvent{ID: "acme", Title: "Acme kickoff", Start: at(2, 15), External: true},
		model.CalendarEvent{ID: "early", Title: "Vendor call", Start: at(3, 9), External: true},
		model.CalendarEvent{ID: "late", Title: "Board prep", Start: at(3, 11), External: true},
	)

	got, err := h.preparer.Upcoming(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("Upcoming() error = %v", err)
	}
	if diff := cmp.Diff([]string{"acme", "early"}, ids(got)); diff != "" {
		t.Errorf("upcoming mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Time{at(2, 0), at(3, 0)}, h.calendar.Days); diff != "" {
		t.Errorf("days listed mismatch (-want +got):\n%s", diff)
	}
}

func TestUpcoming_DeduplicatesMultiDayEvents(t *testing.T) {
	offsite := model.CalendarEvent{ID: "offsite", Title: "Partner offsite", Start: at(2, 13), End: at(3, 17), External: true}
	h := newHarness(t)
	h.calendar.EventsFunc = func(ctx context.Context, day time.Time) ([]model.CalendarEvent, error) {
		return []model.CalendarEvent{offsite}, nil
	}

	got, err := h.preparer.Upcoming(context.Background(), 30*time.Hour)
	if err != nil {
		t.Fatalf("Upcoming() error = %v", err)
	}
	if diff := cmp.Diff([]string{"offsite"}, ids(got)); diff != "" {
		t.Errorf("upcoming mismatch (-want +got):\n%s", diff)
	}
}

func TestUpcoming_CalendarError(t *testing.T) {
	h := newHarness(t)
	boom := errors.New("companion down")
	h.calendar.EventsFunc = func(ctx context.Context, day time.Time) ([]model.CalendarEvent, error) {
		return nil, boom
	}
	if _, err := h.preparer.Upcoming(context.Background(), 0); !errors.Is(err, boom) {
		t.Errorf("Upcoming() error = %v, want %v", err, boom)
	}
}

func TestPrepare(t *testing.T) {
	h := newHarness(t)
	event := model.CalendarEvent{
		ID:        "acme",
		Title:     "Acme kickoff",
		Start:     at(2, 15),
		End:       at(2, 16),
		Location:  "Zoom",
		Calendar:  "Work",
		Attendees: []string{"sarah.chen@acme.com", "Guest Person", " "},
		External:  true,
	}

	res := h.preparer.Prepare(context.Background(), event)
	if res.Err != nil {
		t.Fatalf("Prepare() error = %v", res.Err)
	}
	if res.ActionID != "action-1" || res.Brief != "# Brief\n\nTalk about the roadmap." {
		t.Errorf("result = %+v", res)
	}
	if len(res.Attendees) != 2 || res.Attendees[0].Contact == nil || res.Attendees[0].Contact.ID != "c1" || res.Attendees[1].Contact != nil {
		t.Errorf("attendees = %+v", res.Attendees)
	}

	want := []model.Action{{
		Type:              model.ActionMeetingBrief,
		Title:             "Meeting Brief: Acme kickoff",
		Summary:           "Prepared brief for meeting with sarah.chen@acme.com, Guest Person",
		DraftContent:      "# Brief\n\nTalk about the roadmap.",
		RelatedEventID:    "acme",
		RelatedEventTitle: "Acme kickoff",
	}}
	if diff := cmp.Diff(want, h.actions.Actions()); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}

	calls := h.mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("completer called %d times, want 1", len(calls))
	}
	call := calls[0]
	if call.SystemPrompt != SystemPrompt || len(call.Tools) != 0 || call.MaxTokens != 1024 {
		t.Errorf("call = %+v", call)
	}
	prompt := call.Messages[0].Content
	for _, wantText := range []string{
		"- Title: Acme kickoff\n",
		"- Location: Zoom\n",
		"- Calendar: Work\n",
		"### sarah.chen@acme.com\n- Name: Sarah Chen\n- Role: VP Engineering at Acme\n",
		"- Notes: Prefers async updates\n",
		"### Guest Person\n- Not in contacts\n",
		"## Current Work Context\nWorking in Xcode on the Acme integration\n",
	} {
		if !strings.Contains(prompt, wantText) {
			t.Errorf("prompt missing %q:\n%s", wantText, prompt)
		}
	}
}

func TestPrepare_Failures(t *testing.T) {
	event := model.CalendarEvent{ID: "acme", Title: "Acme kickoff", Start: at(2, 15), Attendees: []string{"Sarah Chen"}}
	boom := errors.New("boom")

	tests := []struct {
		name        string
		setup       func(h *harness)
		wantErr     bool
		wantActions int
	}{
		{
			name: "completer fails",
			setup: func(h *harness) {
				h.mock.CompleteFunc = func(ctx context.Context, messages []model.ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
					return nil, boom
				}
			},
			wantErr: true,
		},
		{
			name: "empty brief",
			setup: func(h *harness) {
				h.mock.CompleteFunc = func(ctx context.Context, messages []model.ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
					return ptestutil.TextResponse("  "), nil
				}
			},
			wantErr: true,
		},
		{
			name:    "queue refuses",
			setup:   func(h *harness) { h.actions.Err = boom },
			wantErr: true,
		},
		{
			name: "contact lookup fails",
			setup: func(h *harness) {
				h.contacts.FindByNameFunc = func(ctx context.Context, name string) ([]model.Contact, error) {
					return nil, boom
				}
			},
			wantActions: 1,
		},
		{
			name:        "work context unavailable",
			setup:       func(h *harness) { h.preparer.deps.WorkContext = testutil.WorkContext{Err: boom} },
			wantActions: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			res := h.preparer.Prepare(context.Background(), event)
			if (res.Err != nil) != tt.wantErr {
				t.Fatalf("Prepare() error = %v, wantErr %v", res.Err, tt.wantErr)
			}
			if got := len(h.actions.Actions()); got != tt.wantActions {
				t.Errorf("submitted %d actions, want %d", got, tt.wantActions)
			}
		})
	}
}

func TestRun_EventID(t *testing.T) {
	internal := model.CalendarEvent{ID: "standup", Title: "Standup", Start: at(3, 9)}

	t.Run("found", func(t *testing.T) {
		h := newHarness(t, internal)
		results, err := h.preparer.Run(context.Background(), Options{Date: at(3, 0), EventID: "standup"})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(results) != 1 || results[0].Event.ID != "standup" || results[0].Err != nil {
			t.Errorf("results = %+v", results)
		}
	})

	t.Run("defaults to today", func(t *testing.T) {
		h := newHarness(t, internal)
		_, err := h.preparer.Run(context.Background(), Options{EventID: "standup"})
		if !errors.Is(err, ErrEventNotFound) {
			t.Errorf("Run() error = %v, want ErrEventNotFound", err)
		}
		if len(h.calendar.Days) != 1 || !h.calendar.Days[0].Equal(now) {
			t.Errorf("days listed = %v, want [%v]", h.calendar.Days, now)
		}
	})
}

func TestRun_Upcoming(t *testing.T) {
	h := newHarness(t,
		model.CalendarEvent{ID: "acme", Title: "Acme kickoff", Start: at(2, 15), External: true},
		model.CalendarEvent{ID: "globex", Title: "Globex renewal", Start: at(2, 12), External: true},
		model.CalendarEvent{ID: "standup", Title: "Standup", Start: at(2, 11)},
	)
	h.mock.CompleteFunc = func(ctx context.Context, messages []model.ChatMessage, systemPrompt string, tools []mcptypes.Tool, maxTokens int64) (*model.LLMResponse, error) {
		if strings.Contains(messages[0].Content, "Globex") {
			return nil, errors.New("overloaded")
		}
		return ptestutil.TextResponse("# Brief"), nil
	}

	results, err := h.preparer.Run(context.Background(), Options{Window: 12 * time.Hour})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Event.ID != "globex" || results[0].Err == nil {
		t.Errorf("first result = %+v, want failed globex", results[0])
	}
	if results[1].Event.ID != "acme" || results[1].Err != nil || results[1].ActionID == "" {
		t.Errorf("second result = %+v, want submitted acme", results[1])
	}
}

func TestContactQuery(t *testing.T) {
	tests := map[string]string{
		"Sarah Chen":             "Sarah Chen",
		"sarah.chen@acme.com":    "sarah chen",
		"j_doe-smith@globex.com": "j doe smith",
		"ops+alerts@acme.com":    "ops alerts",
	}
	for in, want := range tests {
		if got := contactQuery(in); got != want {
			t.Errorf("contactQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		attendees []string
		want      string
	}{
		{nil, "Prepared brief for meeting"},
		{[]string{"Sarah"}, "Prepared brief for meeting with Sarah"},
		{[]string{"A", "B", "C", "D"}, "Prepared brief for meeting with A, B, C..."},
	}
	for _, tt := range tests {
		if got := summarize(tt.attendees); got != tt.want {
			t.Errorf("summarize(%v) = %q, want %q", tt.attendees, got, tt.want)
		}
	}
}
