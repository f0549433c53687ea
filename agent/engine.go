// Package agent runs one user message through context assembly, the
// completion/tool loop and persistence.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"sol/config"
	"sol/model"
	"sol/provider"
	"sol/tools"
)

const (
	DefaultMaxToolTurns = 8
	DefaultHistoryLimit = 20
	DefaultLearnTimeout = 10 * time.Second
	DefaultRetryBackoff = 500 * time.Millisecond
)

// ContextAssembler builds the per-turn context snapshot.
type ContextAssembler interface {
	Assemble(ctx context.Context, query string, conv *model.Conversation) model.AssembledContext
}

// ToolDispatcher executes a single tool call. It reports failures through
// the outcome and never returns an error.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, intent model.ToolCallIntent) model.ToolOutcome
}

// Deps are the collaborators of an Engine. Memory and Metrics are optional.
type Deps struct {
	Completer     model.Completer
	Conversations model.ConversationStore
	Assembler     ContextAssembler
	Dispatcher    ToolDispatcher
	Memory        model.MemoryStore
	Metrics       *Metrics
	Now           func() time.Time
	NewID         func() string
}

// Options tunes the loop. Zero values fall back to the defaults.
type Options struct {
	MaxToolTurns int
	HistoryLimit int
	MaxTokens    int64
	LearnTimeout time.Duration
	// Retries is how many extra attempts a completion gets after a
	// retryable provider failure. Zero disables retrying.
	Retries      int
	RetryBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxToolTurns <= 0 {
		o.MaxToolTurns = DefaultMaxToolTurns
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = config.DefaultMaxTokens
	}
	if o.LearnTimeout <= 0 {
		o.LearnTimeout = DefaultLearnTimeout
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	return o
}

// Result is what a caller gets back for one processed message.
type Result struct {
	Conversation *model.Conversation
	Reply        model.ChatMessage
	Context      model.AssembledContext
	Usage        model.Usage
	ToolTurns    int
}

// Engine processes user messages. It is safe for concurrent use; messages
// for the same conversation are handled one at a time.
type Engine struct {
	deps  Deps
	opts  Options
	locks *keyedMutex
	learn sync.WaitGroup
}

func New(deps Deps, opts Options) *Engine {
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	return &Engine{
		deps:  deps,
		opts:  opts.withDefaults(),
		locks: newKeyedMutex(),
	}
}

// Wait blocks until background learning from finished turns is done.
func (e *Engine) Wait() {
	e.learn.Wait()
}

// ProcessMessage appends text as a user turn to the conversation, runs the
// completion and tool loop, and persists the reply. An empty
// conversationID starts a new conversation; an unknown one is created with
// that id.
//
// On error nothing after the user turn is persisted.
func (e *Engine) ProcessMessage(ctx context.Context, text, conversationID string) (*Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	started := e.deps.Now()
	e.deps.Metrics.TurnsInFlight.Inc()
	defer e.deps.Metrics.TurnsInFlight.Dec()

	res, err := e.process(ctx, text, conversationID)

	e.deps.Metrics.TurnDuration.Observe(e.deps.Now().Sub(started).Seconds())
	e.deps.Metrics.TurnsTotal.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		config.DebugLog.Debugf("[Engine] turn failed for conversation %q: %v", conversationID, err)
	}
	return res, err
}

func (e *Engine) process(ctx context.Context, text, conversationID string) (*Result, error) {
	if conversationID != "" {
		unlock, err := e.locks.Lock(ctx, conversationID)
		if err != nil {
			return nil, stageErr(StageConversation, err)
		}
		defer unlock()
	}

	conv, err := e.resolveConversation(ctx, conversationID)
	if err != nil {
		return nil, stageErr(StageConversation, err)
	}

	userMsg := model.ChatMessage{
		ID:        e.deps.NewID(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: e.deps.Now(),
	}
	if err := e.appendTurn(ctx, conv, userMsg); err != nil {
		return nil, err
	}
	userIndex := len(conv.Messages) - 1

	assembled := e.deps.Assembler.Assemble(ctx, text, conv)
	systemPrompt := provider.BuildSystemPrompt(assembled)
	catalogue := tools.Catalogue(ToolSubset(assembled.Intent, text)...)

	config.DebugLog.Debugf("[Engine] conversation=%s intent=%s tools=%d", conv.ID, assembled.Intent.Type, len(catalogue))

	result := &Result{Conversation: conv, Context: assembled}
	reused := make(map[string]model.ToolOutcome)

	for {
		window := historyWindow(conv.Messages, userIndex, e.opts.HistoryLimit)
		resp, err := e.complete(ctx, window, systemPrompt, catalogue)
		if err != nil {
			return nil, stageErr(StageCompletion, err)
		}
		result.Usage = result.Usage.Add(resp.Usage)

		if !resp.HasToolCalls() {
			reply := model.ChatMessage{
				ID:        e.deps.NewID(),
				Role:      model.RoleAssistant,
				Content:   resp.Content,
				Timestamp: e.deps.Now(),
			}
			if err := e.appendTurn(ctx, conv, reply); err != nil {
				return nil, err
			}
			result.Reply = reply
			break
		}

		if result.ToolTurns >= e.opts.MaxToolTurns {
			e.deps.Metrics.ToolLoopAborts.Inc()
			config.DebugLog.Debugf("[Engine] conversation=%s still requesting tools after %d turns", conv.ID, result.ToolTurns)
			return nil, stageErr(StageToolLoop, ErrToolLoopExceeded)
		}

		outcomes := e.dispatch(ctx, resp.ToolCalls, reused)
		if err := ctx.Err(); err != nil {
			return nil, stageErr(StageToolLoop, err)
		}

		call := model.ChatMessage{
			ID:        e.deps.NewID(),
			Role:      model.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: e.deps.Now(),
		}
		if err := e.appendTurn(ctx, conv, call); err != nil {
			return nil, err
		}
		answer := model.ChatMessage{
			ID:          e.deps.NewID(),
			Role:        model.RoleTool,
			ToolResults: outcomes,
			Timestamp:   e.deps.Now(),
		}
		if err := e.appendTurn(ctx, conv, answer); err != nil {
			return nil, err
		}
		result.ToolTurns++
	}

	e.maybeTitle(ctx, conv)
	e.learnAsync(ctx, model.Interaction{
		ConversationID: conv.ID,
		UserText:       text,
		AssistantText:  result.Reply.Content,
		Intent:         assembled.Intent,
	})

	return result, nil
}

func (e *Engine) resolveConversation(ctx context.Context, id string) (*model.Conversation, error) {
	if id == "" {
		return e.deps.Conversations.Create(ctx, "")
	}
	conv, err := e.deps.Conversations.Load(ctx, id)
	if errors.Is(err, model.ErrConversationNotFound) {
		return e.deps.Conversations.Create(ctx, id)
	}
	return conv, err
}

func (e *Engine) appendTurn(ctx context.Context, conv *model.Conversation, msg model.ChatMessage) error {
	if err := e.deps.Conversations.Append(ctx, conv.ID, msg); err != nil {
		return stageErr(StagePersist, err)
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.Timestamp
	return nil
}

func (e *Engine) complete(ctx context.Context, window []model.ChatMessage, systemPrompt string, catalogue []mcptypes.Tool) (*model.LLMResponse, error) {
	backoff := e.opts.RetryBackoff
	var resp *model.LLMResponse
	var err error
	for attempt := 0; ; attempt++ {
		started := time.Now()
		resp, err = e.deps.Completer.Complete(ctx, window, systemPrompt, catalogue, e.opts.MaxTokens)
		e.deps.Metrics.CompletionLatency.Observe(time.Since(started).Seconds())
		e.deps.Metrics.CompletionsTotal.WithLabelValues(resultLabel(err)).Inc()
		if err == nil || attempt >= e.opts.Retries || !provider.IsRetryable(err) {
			break
		}
		config.DebugLog.Debugf("[Engine] completion attempt %d failed, retrying in %s: %v", attempt+1, backoff, err)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		backoff *= 2
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &provider.MalformedResponseError{Reason: "empty response"}
	}
	e.deps.Metrics.TokensTotal.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
	e.deps.Metrics.TokensTotal.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))
	return resp, nil
}

// dispatch runs calls in the order given. A call identical in name and
// arguments to one that already succeeded during this message reuses that
// outcome; failed calls run again.
func (e *Engine) dispatch(ctx context.Context, calls []model.ToolCallIntent, reused map[string]model.ToolOutcome) []model.ToolOutcome {
	outcomes := make([]model.ToolOutcome, 0, len(calls))
	for _, call := range calls {
		key := call.ToolName + "\x00" + canonicalArgs(call.ArgumentsJSON)
		if prev, ok := reused[key]; ok {
			prev.ToolCallID = call.ID
			outcomes = append(outcomes, prev)
			e.deps.Metrics.ToolDispatchesTotal.WithLabelValues(call.ToolName, "reused").Inc()
			continue
		}

		out := e.deps.Dispatcher.Dispatch(ctx, call)
		out.ToolCallID = call.ID
		if out.Success {
			reused[key] = out
		}
		outcomes = append(outcomes, out)

		label := "success"
		if !out.Success {
			label = "failure"
		}
		e.deps.Metrics.ToolDispatchesTotal.WithLabelValues(call.ToolName, label).Inc()
		config.DebugLog.Debugf("[Engine] tool %s (%s) success=%v", call.ToolName, call.ID, out.Success)
	}
	return outcomes
}

// maybeTitle names a conversation after its first user message once it has
// a reply. Failures are logged; the turn already succeeded.
func (e *Engine) maybeTitle(ctx context.Context, conv *model.Conversation) {
	if conv.Title != "" || len(conv.Messages) < 2 {
		return
	}
	first, ok := conv.FirstUserMessage()
	if !ok {
		return
	}
	title := DeriveTitle(first)
	if title == "" {
		return
	}
	if err := e.deps.Conversations.SetTitle(ctx, conv.ID, title); err != nil {
		config.DebugLog.Debugf("[Engine] setting title for %s: %v", conv.ID, err)
		return
	}
	conv.Title = title
}

func (e *Engine) learnAsync(ctx context.Context, in model.Interaction) {
	if e.deps.Memory == nil {
		return
	}
	learnCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.LearnTimeout)
	e.learn.Add(1)
	go func() {
		defer e.learn.Done()
		defer cancel()
		if err := e.deps.Memory.LearnFromInteraction(learnCtx, in); err != nil {
			config.DebugLog.Debugf("[Engine] learning from %s: %v", in.ConversationID, err)
		}
	}()
}

// historyWindow returns the trailing limit turns, widened when needed so the
// current user turn is always included.
func historyWindow(msgs []model.ChatMessage, userIndex, limit int) []model.ChatMessage {
	start := len(msgs) - limit
	if start > userIndex {
		start = userIndex
	}
	if start < 0 {
		start = 0
	}
	return msgs[start:]
}

func canonicalArgs(raw string) string {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return strings.TrimSpace(raw)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return string(b)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
