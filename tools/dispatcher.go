package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sol/assembler"
	"sol/config"
	"sol/model"
)

const maxContactResults = 5

// Deps are the collaborators tools execute against. Any of them may be nil;
// a tool whose collaborator is missing reports a failed outcome.
type Deps struct {
	Contacts model.ContactStore
	Memory   model.MemoryStore
	Context  model.ContextSearcher
	Calendar model.CalendarExecutor
	Now      func() time.Time
}

// Dispatcher routes tool-call intents to their executors.
type Dispatcher struct {
	deps Deps
}

func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Dispatcher{deps: deps}
}

// Dispatch executes one intent. The returned outcome always carries the
// intent's id; failures are encoded in the outcome body.
func (d *Dispatcher) Dispatch(ctx context.Context, intent model.ToolCallIntent) model.ToolOutcome {
	name, ok := ParseToolName(intent.ToolName)
	if !ok {
		config.DebugLog.Debugf("[Dispatcher] Unknown tool %q (call %s)", intent.ToolName, intent.ID)
		return failure(intent.ID, fmt.Sprintf("Unknown tool: %s", intent.ToolName))
	}

	result, err := d.run(ctx, name, intent.ArgumentsJSON)
	if err != nil {
		var argErr *argumentError
		if errors.As(err, &argErr) {
			config.DebugLog.Debugf("[Dispatcher] %s invalid arguments: %v", name, argErr.err)
			return failure(intent.ID, fmt.Sprintf("Invalid arguments for %s: %v", name, argErr.err))
		}
		config.DebugLog.Debugf("[Dispatcher] %s failed: %v", name, err)
		return failure(intent.ID, fmt.Sprintf("%s failed: %v", name, err))
	}

	body, err := json.Marshal(result)
	if err != nil {
		return failure(intent.ID, fmt.Sprintf("%s failed: encode result: %v", name, err))
	}
	config.DebugLog.Debugf("[Dispatcher] %s succeeded (call %s, %d bytes)", name, intent.ID, len(body))
	return model.ToolOutcome{ToolCallID: intent.ID, ResultJSON: string(body), Success: true}
}

type argumentError struct {
	err error
}

func (e *argumentError) Error() string { return e.err.Error() }
func (e *argumentError) Unwrap() error { return e.err }

func invalid(err error) error { return &argumentError{err: err} }

func (d *Dispatcher) run(ctx context.Context, name ToolName, raw string) (any, error) {
	switch name {
	case ToolLookupContact:
		var args lookupContactArgs
		if err := decodeAndValidate(raw, &args, args.validate); err != nil {
			return nil, err
		}
		return d.lookupContact(ctx, args)

	case ToolSearchMemory:
		var args searchMemoryArgs
		if err := decodeAndValidate(raw, &args, args.validate); err != nil {
			return nil, err
		}
		return d.searchMemory(ctx, args)

	case ToolSearchContext:
		var args searchContextArgs
		if err := decodeAndValidate(raw, &args, args.validate); err != nil {
			return nil, err
		}
		return d.searchContext(ctx, args)

	case ToolSaveMemory:
		var args saveMemoryArgs
		if err := decodeAndValidate(raw, &args, args.validate); err != nil {
			return nil, err
		}
		return d.saveMemory(ctx, args)

	case ToolCheckCalendar:
		var args checkCalendarArgs
		loc := d.deps.Now().Location()
		if err := decodeAndValidate(raw, &args, func() error { return args.validate(loc) }); err != nil {
			return nil, err
		}
		return d.checkCalendar(ctx, args)

	case ToolCreateCalendarEvent:
		var args createEventArgs
		loc := d.deps.Now().Location()
		if err := decodeAndValidate(raw, &args, func() error { return args.validate(loc) }); err != nil {
			return nil, err
		}
		return d.createEvent(ctx, args)

	case ToolSendEmail:
		var args sendEmailArgs
		if err := decodeAndValidate(raw, &args, args.validate); err != nil {
			return nil, err
		}
		return draftEmail(args), nil
	}
	return nil, fmt.Errorf("no executor for %s", name)
}

func decodeAndValidate(raw string, dst any, validate func() error) error {
	if err := decodeArgs(raw, dst); err != nil {
		return invalid(err)
	}
	if err := validate(); err != nil {
		return invalid(err)
	}
	return nil
}

type contactLookupResult struct {
	Found    bool            `json:"found"`
	Count    int             `json:"count"`
	Contacts []model.Contact `json:"contacts"`
}

func (d *Dispatcher) lookupContact(ctx context.Context, args lookupContactArgs) (any, error) {
	if d.deps.Contacts == nil {
		return nil, errors.New("contact store unavailable")
	}
	found, err := d.deps.Contacts.FindByName(ctx, args.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %q: %w", args.Name, err)
	}

	seen := make(map[string]bool)
	contacts := make([]model.Contact, 0, len(found))
	for _, c := range found {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		contacts = append(contacts, c)
		if len(contacts) == maxContactResults {
			break
		}
	}
	return contactLookupResult{Found: len(contacts) > 0, Count: len(contacts), Contacts: contacts}, nil
}

type memoryHit struct {
	ID         string               `json:"id"`
	Category   model.MemoryCategory `json:"category"`
	Key        string               `json:"key"`
	Value      string               `json:"value"`
	Confidence float64              `json:"confidence"`
}

type memorySearchResult struct {
	Count    int         `json:"count"`
	Memories []memoryHit `json:"memories"`
}

func (d *Dispatcher) searchMemory(ctx context.Context, args searchMemoryArgs) (any, error) {
	if d.deps.Memory == nil {
		return nil, errors.New("memory store unavailable")
	}

	keywords := assembler.ExtractEntities(args.Query).Keywords
	if len(keywords) == 0 {
		keywords = []string{args.Query}
	}
	facts, err := d.deps.Memory.Query(ctx, model.MemoryQuery{
		Keywords: keywords,
		Category: args.category,
		Limit:    limitOr(args.Limit, defaultSearchLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}

	hits := make([]memoryHit, 0, len(facts))
	for _, f := range facts {
		if err := d.deps.Memory.RecordUsage(ctx, f.ID); err != nil {
			config.DebugLog.Debugf("[Dispatcher] record usage for %s: %v", f.ID, err)
		}
		hits = append(hits, memoryHit{ID: f.ID, Category: f.Category, Key: f.Key, Value: f.Value, Confidence: f.Confidence})
	}
	return memorySearchResult{Count: len(hits), Memories: hits}, nil
}

type contextSearchResult struct {
	Count   int                `json:"count"`
	Results []model.ContextHit `json:"results"`
}

func (d *Dispatcher) searchContext(ctx context.Context, args searchContextArgs) (any, error) {
	if d.deps.Context == nil {
		return nil, errors.New("context search unavailable")
	}
	hits, err := d.deps.Context.Search(ctx, args.Query, limitOr(args.Limit, defaultSearchLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to search context: %w", err)
	}
	if hits == nil {
		hits = []model.ContextHit{}
	}
	return contextSearchResult{Count: len(hits), Results: hits}, nil
}

type saveMemoryResult struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (d *Dispatcher) saveMemory(ctx context.Context, args saveMemoryArgs) (any, error) {
	if d.deps.Memory == nil {
		return nil, errors.New("memory store unavailable")
	}
	saved, err := d.deps.Memory.Save(ctx, model.MemoryFact{
		Category:   args.category,
		Key:        args.Key,
		Value:      args.Value,
		Confidence: args.confidence(),
		Source:     "tool",
		CreatedAt:  d.deps.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save memory: %w", err)
	}
	return saveMemoryResult{
		Status:  "saved",
		ID:      saved.ID,
		Message: fmt.Sprintf("Remembered %s: %s", args.Key, args.Value),
	}, nil
}

func (d *Dispatcher) checkCalendar(ctx context.Context, args checkCalendarArgs) (any, error) {
	if d.deps.Calendar == nil {
		return nil, errors.New("calendar unavailable")
	}
	availability, err := d.deps.Calendar.CheckAvailability(ctx, args.request)
	if err != nil {
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}
	return availability, nil
}

type createEventResult struct {
	Created bool                `json:"created"`
	Event   model.CalendarEvent `json:"event"`
}

func (d *Dispatcher) createEvent(ctx context.Context, args createEventArgs) (any, error) {
	if d.deps.Calendar == nil {
		return nil, errors.New("calendar unavailable")
	}
	event, err := d.deps.Calendar.CreateEvent(ctx, args.event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return createEventResult{Created: true, Event: *event}, nil
}

type emailDraft struct {
	Status  string   `json:"status"`
	To      string   `json:"to"`
	CC      []string `json:"cc"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// draftEmail never touches a mail transport.
func draftEmail(args sendEmailArgs) emailDraft {
	cc := args.CC
	if cc == nil {
		cc = []string{}
	}
	return emailDraft{Status: "draft_created", To: args.To, CC: cc, Subject: args.Subject, Body: args.Body}
}

func failure(callID, msg string) model.ToolOutcome {
	body, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{msg})
	return model.ToolOutcome{ToolCallID: callID, ResultJSON: string(body), Success: false}
}
