// Package testutil provides in-memory fakes for the collaborator interfaces in
// package model. Each fake has optional Func fields that override the default
// in-memory behaviour.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"sol/model"
)

// MemoryStore is an in-memory model.MemoryStore.
type MemoryStore struct {
	QueryFunc    func(ctx context.Context, q model.MemoryQuery) ([]model.MemoryFact, error)
	MostUsedFunc func(ctx context.Context, limit int) ([]model.MemoryFact, error)
	LearnFunc    func(ctx context.Context, in model.Interaction) error

	mu           sync.Mutex
	facts        []model.MemoryFact
	usage        map[string]int
	interactions []model.Interaction
	nextID       int
}

func NewMemoryStore(facts ...model.MemoryFact) *MemoryStore {
	s := &MemoryStore{usage: make(map[string]int)}
	for _, f := range facts {
		if f.ID == "" {
			s.nextID++
			f.ID = fmt.Sprintf("mem-%d", s.nextID)
		}
		s.facts = append(s.facts, f)
	}
	return s
}

func (s *MemoryStore) Query(ctx context.Context, q model.MemoryQuery) ([]model.MemoryFact, error) {
	if s.QueryFunc != nil {
		return s.QueryFunc(ctx, q)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.MemoryFact
	for _, f := range s.facts {
		if f.Confidence < q.MinConfidence {
			continue
		}
		if q.Category != "" && f.Category != q.Category {
			continue
		}
		text := strings.ToLower(f.Key + " " + f.Value)
		for _, kw := range q.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, f)
				break
			}
		}
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) MostUsed(ctx context.Context, limit int) ([]model.MemoryFact, error) {
	if s.MostUsedFunc != nil {
		return s.MostUsedFunc(ctx, limit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.MemoryFact, len(s.facts))
	copy(out, s.facts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UsageCount+s.usage[out[i].ID] > out[j].UsageCount+s.usage[out[j].ID]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) RecordUsage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[id]++
	return nil
}

func (s *MemoryStore) Save(ctx context.Context, fact model.MemoryFact) (*model.MemoryFact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.facts {
		if f.Category == fact.Category && f.Key == fact.Key {
			fact.ID = f.ID
			s.facts[i] = fact
			return &fact, nil
		}
	}
	s.nextID++
	fact.ID = fmt.Sprintf("mem-%d", s.nextID)
	s.facts = append(s.facts, fact)
	return &fact, nil
}

func (s *MemoryStore) LearnFromInteraction(ctx context.Context, in model.Interaction) error {
	if s.LearnFunc != nil {
		return s.LearnFunc(ctx, in)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, in)
	return nil
}

// Usage returns how many times RecordUsage was called for id.
func (s *MemoryStore) Usage(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[id]
}

// Facts returns a copy of all stored facts.
func (s *MemoryStore) Facts() []model.MemoryFact {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.MemoryFact, len(s.facts))
	copy(out, s.facts)
	return out
}

// Interactions returns the interactions recorded by LearnFromInteraction.
func (s *MemoryStore) Interactions() []model.Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Interaction, len(s.interactions))
	copy(out, s.interactions)
	return out
}

// ContactStore matches contacts whose name contains the query, case-insensitively.
type ContactStore struct {
	FindByNameFunc func(ctx context.Context, name string) ([]model.Contact, error)
	Contacts       []model.Contact
}

func (s *ContactStore) FindByName(ctx context.Context, name string) ([]model.Contact, error) {
	if s.FindByNameFunc != nil {
		return s.FindByNameFunc(ctx, name)
	}
	var out []model.Contact
	for _, c := range s.Contacts {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(name)) {
			out = append(out, c)
		}
	}
	return out, nil
}

// ClipboardStore returns Entries newest first as given.
type ClipboardStore struct {
	Entries []model.ClipboardEntry
	Err     error
	Calls   int
}

func (s *ClipboardStore) Recent(ctx context.Context, n int) ([]model.ClipboardEntry, error) {
	s.Calls++
	if s.Err != nil {
		return nil, s.Err
	}
	if len(s.Entries) > n {
		return s.Entries[:n], nil
	}
	return s.Entries, nil
}

// ContextSearcher returns Hits whose snippet contains the query.
type ContextSearcher struct {
	SearchFunc func(ctx context.Context, query string, limit int) ([]model.ContextHit, error)
	Hits       []model.ContextHit
}

func (s *ContextSearcher) Search(ctx context.Context, query string, limit int) ([]model.ContextHit, error) {
	if s.SearchFunc != nil {
		return s.SearchFunc(ctx, query, limit)
	}
	var out []model.ContextHit
	for _, h := range s.Hits {
		if strings.Contains(strings.ToLower(h.Snippet), strings.ToLower(query)) {
			out = append(out, h)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// WorkContext is a fixed model.WorkContextProvider.
type WorkContext struct {
	Text string
	Err  error
}

func (w WorkContext) WorkContext(ctx context.Context) (string, error) {
	return w.Text, w.Err
}

// Calendar records calls and returns configurable results.
type Calendar struct {
	CheckFunc  func(ctx context.Context, req model.AvailabilityRequest) (*model.Availability, error)
	CreateFunc func(ctx context.Context, event model.CalendarEvent) (*model.CalendarEvent, error)
	EventsFunc func(ctx context.Context, day time.Time) ([]model.CalendarEvent, error)

	mu      sync.Mutex
	Checks  []model.AvailabilityRequest
	Created []model.CalendarEvent
	Days    []time.Time
}

// Events returns the events of Created that start on day, unless EventsFunc
// is set.
func (c *Calendar) Events(ctx context.Context, day time.Time) ([]model.CalendarEvent, error) {
	c.mu.Lock()
	c.Days = append(c.Days, day)
	c.mu.Unlock()
	if c.EventsFunc != nil {
		return c.EventsFunc(ctx, day)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.CalendarEvent
	y, m, d := day.Date()
	for _, e := range c.Created {
		if ey, em, ed := e.Start.In(day.Location()).Date(); ey == y && em == m && ed == d {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Calendar) CheckAvailability(ctx context.Context, req model.AvailabilityRequest) (*model.Availability, error) {
	c.mu.Lock()
	c.Checks = append(c.Checks, req)
	c.mu.Unlock()
	if c.CheckFunc != nil {
		return c.CheckFunc(ctx, req)
	}
	return &model.Availability{
		Date:      req.Date.Format("2006-01-02"),
		Available: true,
		Conflicts: []model.CalendarEvent{},
		Events:    []model.CalendarEvent{},
	}, nil
}

func (c *Calendar) CreateEvent(ctx context.Context, event model.CalendarEvent) (*model.CalendarEvent, error) {
	c.mu.Lock()
	c.Created = append(c.Created, event)
	c.mu.Unlock()
	if c.CreateFunc != nil {
		return c.CreateFunc(ctx, event)
	}
	if event.ID == "" {
		event.ID = fmt.Sprintf("evt-%d", time.Now().UnixNano())
	}
	return &event, nil
}

// ConversationStore is an in-memory model.ConversationStore.
type ConversationStore struct {
	AppendFunc func(ctx context.Context, conversationID string, msg model.ChatMessage) error

	mu            sync.Mutex
	conversations map[string]*model.Conversation
	nextID        int
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{conversations: make(map[string]*model.Conversation)}
}

func (s *ConversationStore) Load(ctx context.Context, id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, model.ErrConversationNotFound
	}
	return cloneConversation(conv), nil
}

func (s *ConversationStore) Create(ctx context.Context, id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.nextID++
		id = fmt.Sprintf("conv-%d", s.nextID)
	}
	if _, exists := s.conversations[id]; exists {
		return nil, fmt.Errorf("conversation %s already exists", id)
	}
	conv := &model.Conversation{ID: id, Status: model.ConversationActive, CreatedAt: time.Now()}
	s.conversations[id] = conv
	return cloneConversation(conv), nil
}

func (s *ConversationStore) Append(ctx context.Context, conversationID string, msg model.ChatMessage) error {
	if s.AppendFunc != nil {
		if err := s.AppendFunc(ctx, conversationID, msg); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return model.ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	return nil
}

func (s *ConversationStore) SetTitle(ctx context.Context, conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[conversationID]
	if !ok {
		return model.ErrConversationNotFound
	}
	conv.Title = title
	return nil
}

func cloneConversation(c *model.Conversation) *model.Conversation {
	out := *c
	out.Messages = append([]model.ChatMessage(nil), c.Messages...)
	return &out
}

// ActionSink records submitted actions and numbers them.
type ActionSink struct {
	Err error

	mu      sync.Mutex
	actions []model.Action
}

func (s *ActionSink) CreateAction(ctx context.Context, action model.Action) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return fmt.Sprintf("action-%d", len(s.actions)), nil
}

func (s *ActionSink) Actions() []model.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Action(nil), s.actions...)
}
