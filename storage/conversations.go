package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sol/model"
)

// ConversationMetadata is a lightweight version of Conversation for listing
type ConversationMetadata struct {
	ID           string                   `json:"id"`
	Title        string                   `json:"title"`
	Status       model.ConversationStatus `json:"status"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	MessageCount int                      `json:"message_count"`
}

// ConversationStorage keeps one JSON file per conversation. It implements
// model.ConversationStore.
type ConversationStorage struct {
	dir string
	now func() time.Time

	// mu serializes read-modify-write cycles on conversation files.
	mu sync.Mutex
}

// NewConversationStorage creates a new conversation storage
func NewConversationStorage(dataDir string) (*ConversationStorage, error) {
	dir := filepath.Join(dataDir, "conversations")

	// 0700 - user-only access
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}

	return &ConversationStorage{dir: dir, now: time.Now}, nil
}

// validID rejects ids that could escape the conversations directory.
func validID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid conversation id %q", id)
	}
	return nil
}

func (s *ConversationStorage) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *ConversationStorage) read(id string) (*model.Conversation, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, model.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationStorage) write(conv *model.Conversation) error {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// Write-then-rename so a crash never leaves a truncated transcript.
	// 0600 - conversation files contain sensitive history.
	tmp := s.path(conv.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}
	if err := os.Rename(tmp, s.path(conv.ID)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace conversation file: %w", err)
	}
	return nil
}

func (s *ConversationStorage) Load(ctx context.Context, id string) (*model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(id)
}

// Create starts an empty conversation. An empty id gets a generated one.
func (s *ConversationStorage) Create(ctx context.Context, id string) (*model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	if err := validID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(id)); err == nil {
		return nil, fmt.Errorf("conversation %s already exists", id)
	}

	now := s.now()
	conv := &model.Conversation{
		ID:        id,
		Status:    model.ConversationActive,
		Messages:  []model.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.write(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Append adds msg to the end of the conversation.
func (s *ConversationStorage) Append(ctx context.Context, conversationID string, msg model.ChatMessage) error {
	return s.update(ctx, conversationID, func(conv *model.Conversation) {
		conv.Messages = append(conv.Messages, msg)
	})
}

func (s *ConversationStorage) SetTitle(ctx context.Context, conversationID, title string) error {
	return s.update(ctx, conversationID, func(conv *model.Conversation) {
		conv.Title = title
	})
}

// Archive marks a conversation as archived.
func (s *ConversationStorage) Archive(ctx context.Context, conversationID string) error {
	return s.update(ctx, conversationID, func(conv *model.Conversation) {
		conv.Status = model.ConversationArchived
	})
}

func (s *ConversationStorage) update(ctx context.Context, id string, fn func(*model.Conversation)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.read(id)
	if err != nil {
		return err
	}
	fn(conv)
	conv.UpdatedAt = s.now()
	return s.write(conv)
}

// List returns metadata for all conversations, sorted by update time (newest first)
func (s *ConversationStorage) List() ([]ConversationMetadata, error) {
	conversations, err := s.all()
	if err != nil {
		return nil, err
	}

	out := make([]ConversationMetadata, len(conversations))
	for i, c := range conversations {
		out[i] = ConversationMetadata{
			ID:           c.ID,
			Title:        c.Title,
			Status:       c.Status,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: len(c.Messages),
		}
	}
	return out, nil
}

// all loads every readable conversation, newest first.
func (s *ConversationStorage) all() ([]*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	var conversations []*model.Conversation
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		conv, err := s.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // Skip corrupted files
		}
		conversations = append(conversations, conv)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

// Delete deletes a conversation from disk
func (s *ConversationStorage) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return model.ErrConversationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete conversation file: %w", err)
	}
	return nil
}

func (s *ConversationStorage) currentIDPath() string {
	return filepath.Join(filepath.Dir(s.dir), "current_conversation.id")
}

// SaveCurrentID remembers the conversation the CLI last used.
func (s *ConversationStorage) SaveCurrentID(id string) error {
	return os.WriteFile(s.currentIDPath(), []byte(id), 0600)
}

// LoadCurrentID returns the conversation the CLI last used, or "" if none.
func (s *ConversationStorage) LoadCurrentID() (string, error) {
	data, err := os.ReadFile(s.currentIDPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
