// Package briefing prepares meeting briefs for upcoming external meetings
// and submits them to the companion's action queue for review.
//
// For each meeting the attendees are looked up in the contact book, the
// current work context is fetched, and the completer writes a markdown brief
// from both. Nothing is sent to the attendees; the brief only lands in the
// queue, where the user approves or dismisses it.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sol/config"
	"sol/model"
)

const (
	DefaultWindow      = 24 * time.Hour
	DefaultConcurrency = 2

	maxSummaryNames = 3
)

// ErrEventNotFound is returned by Run when the requested event id is not on
// the calendar for the given day.
var ErrEventNotFound = errors.New("event not found")

// SystemPrompt frames every brief request.
const SystemPrompt = `You are Sol, a personal assistant preparing the user for meetings.

You receive the event details, what the user's contact book says about each attendee, and what the user is working on right now.

Write a meeting brief that covers:
- Who the attendees are and their background
- Any notes or context the user has about them
- Relevant recent work context
- Suggested talking points

Keep it concise and scannable. Do not invent facts about people that are not in the notes.`

// Deps are the collaborators a Preparer needs.
type Deps struct {
	Calendar    model.EventLister
	Contacts    model.ContactStore
	WorkContext model.WorkContextProvider
	Completer   model.Completer
	Actions     model.ActionSink
	Now         func() time.Time
}

// Preparer writes and submits meeting briefs. It is safe for concurrent use.
type Preparer struct {
	deps        Deps
	maxTokens   int64
	concurrency int
}

func New(deps Deps, maxTokens int64) *Preparer {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}
	return &Preparer{deps: deps, maxTokens: maxTokens, concurrency: DefaultConcurrency}
}

// Attendee is one attendee and the contact they resolved to, if any.
type Attendee struct {
	Name    string
	Contact *model.Contact
}

// Result is the outcome of preparing one meeting.
type Result struct {
	Event     model.CalendarEvent
	Attendees []Attendee
	Brief     string
	ActionID  string
	Err       error
}

// Options selects the meetings Run prepares. With an EventID only that
// event on Date is prepared, external or not. Otherwise every external
// meeting starting within Window of now is.
type Options struct {
	Date    time.Time
	EventID string
	Window  time.Duration
}

// Run prepares the selected meetings. Per-meeting failures are reported in
// the results; the error covers only failures to list the calendar.
func (p *Preparer) Run(ctx context.Context, opts Options) ([]Result, error) {
	var events []model.CalendarEvent
	if opts.EventID != "" {
		day := opts.Date
		if day.IsZero() {
			day = p.deps.Now()
		}
		dayEvents, err := p.deps.Calendar.Events(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		i := slices.IndexFunc(dayEvents, func(e model.CalendarEvent) bool { return e.ID == opts.EventID })
		if i < 0 {
			return nil, fmt.Errorf("%w: %s on %s", ErrEventNotFound, opts.EventID, day.Format("2006-01-02"))
		}
		events = dayEvents[i : i+1]
	} else {
		var err error
		if events, err = p.Upcoming(ctx, opts.Window); err != nil {
			return nil, err
		}
	}

	config.DebugLog.Debugf("[Briefing] preparing %d meetings", len(events))

	results := make([]Result, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, event := range events {
		g.Go(func() error {
			results[i] = p.Prepare(gctx, event)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// Upcoming returns the external meetings starting within window of now,
// earliest first. Every calendar day the window touches is listed.
func (p *Preparer) Upcoming(ctx context.Context, window time.Duration) ([]model.CalendarEvent, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	now := p.deps.Now()
	cutoff := now.Add(window)

	seen := map[string]bool{}
	var out []model.CalendarEvent
	for day := startOfDay(now); !day.After(cutoff); day = day.AddDate(0, 0, 1) {
		events, err := p.deps.Calendar.Events(ctx, day)
		if err != nil {
			return nil, fmt.Errorf("failed to list events for %s: %w", day.Format("2006-01-02"), err)
		}
		for _, e := range events {
			if !e.External || e.Start.Before(now) || e.Start.After(cutoff) {
				continue
			}
			key := e.ID
			if key == "" {
				key = e.Title + "\x00" + e.Start.String()
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, e)
		}
	}

	slices.SortStableFunc(out, func(a, b model.CalendarEvent) int { return a.Start.Compare(b.Start) })
	return out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Prepare writes the brief for one event and submits it. A missing contact
// or work context does not fail the brief.
func (p *Preparer) Prepare(ctx context.Context, event model.CalendarEvent) Result {
	res := Result{Event: event, Attendees: p.lookupAttendees(ctx, event.Attendees)}

	workContext, err := p.deps.WorkContext.WorkContext(ctx)
	if err != nil {
		config.DebugLog.Debugf("[Briefing] work context unavailable: %v", err)
		workContext = ""
	}

	prompt := BuildPrompt(event, res.Attendees, workContext)
	msg := []model.ChatMessage{{Role: model.RoleUser, Content: prompt, Timestamp: p.deps.Now()}}
	resp, err := p.deps.Completer.Complete(ctx, msg, SystemPrompt, nil, p.maxTokens)
	if err != nil {
		res.Err = fmt.Errorf("failed to write brief for %q: %w", event.Title, err)
		return res
	}
	res.Brief = strings.TrimSpace(resp.Content)
	if res.Brief == "" {
		res.Err = fmt.Errorf("failed to write brief for %q: empty reply", event.Title)
		return res
	}

	res.ActionID, err = p.deps.Actions.CreateAction(ctx, model.Action{
		Type:              model.ActionMeetingBrief,
		Title:             "Meeting Brief: " + titleOf(event),
		Summary:           summarize(attendeeNames(res.Attendees)),
		DraftContent:      res.Brief,
		RelatedEventID:    event.ID,
		RelatedEventTitle: event.Title,
	})
	if err != nil {
		res.Err = fmt.Errorf("failed to submit brief for %q: %w", event.Title, err)
		return res
	}

	config.DebugLog.Debugf("[Briefing] event=%s action=%s", event.ID, res.ActionID)
	return res
}

func (p *Preparer) lookupAttendees(ctx context.Context, names []string) []Attendee {
	out := make([]Attendee, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		a := Attendee{Name: name}
		matches, err := p.deps.Contacts.FindByName(ctx, contactQuery(name))
		switch {
		case err != nil:
			config.DebugLog.Debugf("[Briefing] contact lookup for %q failed: %v", name, err)
		case len(matches) > 0:
			a.Contact = &matches[0]
		}
		out = append(out, a)
	}
	return out
}

// contactQuery turns an attendee into a name search. For an email address
// the local part is used with separators read as spaces, so
// sarah.chen@acme.com searches for "sarah chen".
func contactQuery(attendee string) string {
	local, _, isEmail := strings.Cut(attendee, "@")
	if !isEmail {
		return attendee
	}
	return strings.Join(strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	}), " ")
}

func attendeeNames(attendees []Attendee) []string {
	names := make([]string, len(attendees))
	for i, a := range attendees {
		names[i] = a.Name
	}
	return names
}

func titleOf(e model.CalendarEvent) string {
	if e.Title == "" {
		return "Untitled"
	}
	return e.Title
}

func summarize(attendees []string) string {
	names := attendees
	more := ""
	if len(names) > maxSummaryNames {
		names, more = names[:maxSummaryNames], "..."
	}
	if len(names) == 0 {
		return "Prepared brief for meeting"
	}
	return "Prepared brief for meeting with " + strings.Join(names, ", ") + more
}
