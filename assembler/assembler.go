// Package assembler builds the bounded context snapshot sent with every
// completion request.
//
// Entity extraction and intent inference are rule based and deterministic.
// Assembly reads from collaborator stores but never fails: a missing or
// erroring store leaves the corresponding field empty.
package assembler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sol/config"
	"sol/model"
)

const (
	MemoryMinConfidence = 0.5
	MemoryLimit         = 10
	MemoryFallbackLimit = 5
	ContactLimit        = 5
	ClipboardLimit      = 5
	ClipboardMaxChars   = 100
	HistoryTurns        = 10
	HistoryMaxChars     = 100
)

// Options wires the collaborators. Every field may be nil.
type Options struct {
	Memory      model.MemoryStore
	Contacts    model.ContactStore
	Clipboard   model.ClipboardStore
	WorkContext model.WorkContextProvider
	Now         func() time.Time
}

type Assembler struct {
	memory    model.MemoryStore
	contacts  model.ContactStore
	clipboard model.ClipboardStore
	work      model.WorkContextProvider
	now       func() time.Time
}

func New(opts Options) *Assembler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Assembler{
		memory:    opts.Memory,
		contacts:  opts.Contacts,
		clipboard: opts.Clipboard,
		work:      opts.WorkContext,
		now:       now,
	}
}

// Assemble derives the context for query. The only side effect is recording
// usage on the memories it selects.
func (a *Assembler) Assemble(ctx context.Context, query string, conv *model.Conversation) model.AssembledContext {
	entities := ExtractEntities(query)
	intent := InferIntent(query, entities)

	assembled := model.AssembledContext{
		UserQuery:           query,
		Intent:              intent,
		Memories:            a.memories(ctx, entities),
		Contacts:            a.lookupContacts(ctx, entities.Names),
		WorkContext:         a.workContext(ctx),
		ConversationHistory: SummarizeHistory(conv),
		Timestamp:           a.now(),
	}
	if intent.RequiresClipboard {
		assembled.ClipboardContext = a.clipboardContext(ctx)
	}

	config.DebugLog.Debugf("[Assembler] intent=%s names=%d memories=%d contacts=%d clipboard=%t",
		intent.Type, len(entities.Names), len(assembled.Memories), len(assembled.Contacts), assembled.ClipboardContext != "")

	return assembled
}

func (a *Assembler) memories(ctx context.Context, entities model.ExtractedEntities) []model.MemoryFact {
	if a.memory == nil {
		return nil
	}

	var terms orderedSet
	for _, k := range entities.Keywords {
		terms.add(k)
	}
	for _, n := range entities.Names {
		terms.add(strings.ToLower(n))
	}

	var facts []model.MemoryFact
	if len(terms.items) > 0 {
		found, err := a.memory.Query(ctx, model.MemoryQuery{
			Keywords:      terms.items,
			MinConfidence: MemoryMinConfidence,
			Limit:         MemoryLimit,
		})
		if err != nil {
			config.DebugLog.Debugf("[Assembler] memory query failed: %v", err)
		}
		facts = found
	}

	if len(facts) == 0 {
		found, err := a.memory.MostUsed(ctx, MemoryFallbackLimit)
		if err != nil {
			config.DebugLog.Debugf("[Assembler] most-used memory fallback failed: %v", err)
			return nil
		}
		facts = found
	}

	if len(facts) > MemoryLimit {
		facts = facts[:MemoryLimit]
	}

	for _, f := range facts {
		if err := a.memory.RecordUsage(ctx, f.ID); err != nil {
			config.DebugLog.Debugf("[Assembler] record usage for %s failed: %v", f.ID, err)
		}
	}

	return facts
}

func (a *Assembler) lookupContacts(ctx context.Context, names []string) []model.Contact {
	if a.contacts == nil || len(names) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var out []model.Contact

	for _, name := range names {
		found, err := a.contacts.FindByName(ctx, name)
		if err != nil {
			config.DebugLog.Debugf("[Assembler] contact lookup %q failed: %v", name, err)
			continue
		}
		for _, c := range found {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			out = append(out, c)
			if len(out) == ContactLimit {
				return out
			}
		}
	}

	return out
}

func (a *Assembler) workContext(ctx context.Context) string {
	if a.work == nil {
		return ""
	}
	wc, err := a.work.WorkContext(ctx)
	if err != nil {
		config.DebugLog.Debugf("[Assembler] work context unavailable: %v", err)
		return ""
	}
	return strings.TrimSpace(wc)
}

func (a *Assembler) clipboardContext(ctx context.Context) string {
	if a.clipboard == nil {
		return ""
	}
	entries, err := a.clipboard.Recent(ctx, ClipboardLimit)
	if err != nil {
		config.DebugLog.Debugf("[Assembler] clipboard unavailable: %v", err)
		return ""
	}

	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		if i == ClipboardLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s", Truncate(e.Content, ClipboardMaxChars)))
	}
	return strings.Join(lines, "\n")
}

// SummarizeHistory renders the last HistoryTurns turns as "Role: text" lines.
func SummarizeHistory(conv *model.Conversation) string {
	turns := conv.LastMessages(HistoryTurns)
	if len(turns) == 0 {
		return ""
	}

	lines := make([]string, 0, len(turns))
	for _, msg := range turns {
		text := msg.Content
		if text == "" && len(msg.ToolCalls) > 0 {
			text = fmt.Sprintf("[requested %d tool call(s)]", len(msg.ToolCalls))
		}
		if text == "" && len(msg.ToolResults) > 0 {
			text = fmt.Sprintf("[%d tool result(s)]", len(msg.ToolResults))
		}
		text = strings.Join(strings.Fields(text), " ")
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role.Label(), Truncate(text, HistoryMaxChars)))
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
