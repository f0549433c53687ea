package provider

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/go-cmp/cmp"
	"github.com/openai/openai-go/v3"

	"sol/model"
	"sol/provider/testutil"
)

func roles(messages []model.ChatMessage) []model.Role {
	out := make([]model.Role, len(messages))
	for i, m := range messages {
		out[i] = m.Role
	}
	return out
}

func TestPrepareHistory(t *testing.T) {
	call := model.ToolCallIntent{ID: "t1", ToolName: "search_memory", ArgumentsJSON: `{"query":"coffee"}`}
	result := model.ToolOutcome{ToolCallID: "t1", ResultJSON: `{"count":0}`, Success: true}

	tests := []struct {
		name      string
		input     []model.ChatMessage
		wantRoles []model.Role
		check     func(t *testing.T, got []model.ChatMessage)
	}{
		{
			name:      "empty",
			input:     nil,
			wantRoles: []model.Role{},
		},
		{
			name:      "plain exchange kept",
			input:     testutil.TestConversation(),
			wantRoles: []model.Role{model.RoleUser, model.RoleAssistant, model.RoleUser},
		},
		{
			name: "orphaned tool results trimmed",
			input: []model.ChatMessage{
				{Role: model.RoleTool, ToolResults: []model.ToolOutcome{result}},
				{Role: model.RoleAssistant, Content: "Nothing found."},
				{Role: model.RoleUser, Content: "ok"},
			},
			wantRoles: []model.Role{model.RoleUser},
		},
		{
			name: "empty turns skipped",
			input: []model.ChatMessage{
				{Role: model.RoleUser, Content: "hi"},
				{Role: model.RoleAssistant, Content: "  "},
				{Role: model.RoleUser, Content: ""},
				{Role: model.RoleUser, Content: "still there?"},
			},
			wantRoles: []model.Role{model.RoleUser, model.RoleUser},
		},
		{
			name:      "answered tool calls kept",
			input:     testutil.ToolExchange("t1", "search_memory", `{"query":"coffee"}`, `{"count":0}`, true),
			wantRoles: []model.Role{model.RoleUser, model.RoleAssistant, model.RoleTool},
		},
		{
			name: "unanswered tool calls stripped",
			input: []model.ChatMessage{
				{Role: model.RoleUser, Content: "hi"},
				{Role: model.RoleAssistant, Content: "Let me check.", ToolCalls: []model.ToolCallIntent{call}},
				{Role: model.RoleUser, Content: "never mind"},
			},
			wantRoles: []model.Role{model.RoleUser, model.RoleAssistant, model.RoleUser},
			check: func(t *testing.T, got []model.ChatMessage) {
				if len(got[1].ToolCalls) != 0 {
					t.Errorf("expected tool calls stripped, got %v", got[1].ToolCalls)
				}
			},
		},
		{
			name: "tool-only unanswered turn dropped",
			input: []model.ChatMessage{
				{Role: model.RoleUser, Content: "hi"},
				{Role: model.RoleAssistant, ToolCalls: []model.ToolCallIntent{call}},
			},
			wantRoles: []model.Role{model.RoleUser},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PrepareHistory(tt.input)
			if diff := cmp.Diff(tt.wantRoles, roles(got)); diff != "" {
				t.Errorf("roles mismatch (-want +got):\n%s", diff)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestPrepareHistoryDoesNotModifyInput(t *testing.T) {
	input := []model.ChatMessage{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "x", ToolCalls: []model.ToolCallIntent{{ID: "t1"}}},
	}
	PrepareHistory(input)
	if len(input[1].ToolCalls) != 1 {
		t.Error("input turn was modified")
	}
}

// wireMessage is the JSON shape of one Messages API message.
type wireMessage struct {
	Role    string `json:"role"`
	Content []struct {
		Type      string          `json:"type"`
		Text      string          `json:"text"`
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Input     json.RawMessage `json:"input"`
		ToolUseID string          `json:"tool_use_id"`
		IsError   bool            `json:"is_error"`
	} `json:"content"`
}

func TestConvertToAnthropicMessages(t *testing.T) {
	history := testutil.ToolExchange("t1", "save_memory", `{"category":"userPreference"}`, `{"error":"Invalid arguments"}`, false)

	params := convertToAnthropicMessages(history)
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire []wireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(wire) != 3 {
		t.Fatalf("got %d messages, want 3", len(wire))
	}
	if wire[0].Role != "user" || wire[0].Content[0].Text != "Remember that I like oat milk" {
		t.Errorf("unexpected user message %+v", wire[0])
	}

	use := wire[1].Content[0]
	if wire[1].Role != "assistant" || use.Type != "tool_use" || use.ID != "t1" || use.Name != "save_memory" {
		t.Errorf("unexpected assistant message %+v", wire[1])
	}
	if string(use.Input) != `{"category":"userPreference"}` {
		t.Errorf("tool input = %s", use.Input)
	}

	res := wire[2].Content[0]
	if wire[2].Role != "user" {
		t.Errorf("tool turn should be sent as user, got %q", wire[2].Role)
	}
	if res.Type != "tool_result" || res.ToolUseID != "t1" || !res.IsError {
		t.Errorf("unexpected tool result block %+v", res)
	}
}

func TestToolInputFallsBackToEmptyObject(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`: `{"a":1}`,
		``:        `{}`,
		`[1,2]`:   `{}`,
		`{broken`: `{}`,
		`null`:    `{}`,
	}
	for in, want := range tests {
		if got := string(toolInput(in)); got != want {
			t.Errorf("toolInput(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestConvertFromAnthropicMessage(t *testing.T) {
	body := `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": [
			{"type": "text", "text": "First"},
			{"type": "tool_use", "id": "t1", "name": "save_memory", "input": {"category": "userPreference", "key": "coffee", "value": "oat milk"}},
			{"type": "text", "text": "Last"}
		],
		"stop_reason": "tool_use",
		"stop_sequence": null,
		"usage": {"input_tokens": 12, "output_tokens": 7}
	}`
	var msg anthropic.Message
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := convertFromAnthropicMessage(&msg)
	if got.Content != "Last" {
		t.Errorf("Content = %q, want last text block", got.Content)
	}
	if got.StopReason != "tool_use" {
		t.Errorf("StopReason = %q", got.StopReason)
	}
	if got.Usage != (model.Usage{InputTokens: 12, OutputTokens: 7}) {
		t.Errorf("Usage = %+v", got.Usage)
	}
	if len(got.ToolCalls) != 1 {
		t.Fatalf("got %d tool calls, want 1", len(got.ToolCalls))
	}
	call := got.ToolCalls[0]
	if call.ID != "t1" || call.ToolName != "save_memory" {
		t.Errorf("unexpected call %+v", call)
	}
	var args map[string]string
	if err := json.Unmarshal([]byte(call.ArgumentsJSON), &args); err != nil || args["value"] != "oat milk" {
		t.Errorf("arguments = %s (%v)", call.ArgumentsJSON, err)
	}
}

func TestConvertToOpenAIMessages(t *testing.T) {
	history := testutil.ToolExchange("call_1", "lookup_contact", `{"name":"Sarah"}`, `{"found":false}`, true)

	params := convertToOpenAIMessages("be brief", history)
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var wire []struct {
		Role       string `json:"role"`
		Content    any    `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(wire) != 4 {
		t.Fatalf("got %d messages, want system + 3", len(wire))
	}
	wantRoles := []string{"system", "user", "assistant", "tool"}
	for i, role := range wantRoles {
		if wire[i].Role != role {
			t.Errorf("message %d role = %q, want %q", i, wire[i].Role, role)
		}
	}
	if len(wire[2].ToolCalls) != 1 || wire[2].ToolCalls[0].ID != "call_1" || wire[2].ToolCalls[0].Function.Name != "lookup_contact" {
		t.Errorf("unexpected assistant tool calls %+v", wire[2].ToolCalls)
	}
	if wire[3].ToolCallID != "call_1" || wire[3].Content != `{"found":false}` {
		t.Errorf("unexpected tool message %+v", wire[3])
	}
}

func TestConvertFromOpenAICompletion(t *testing.T) {
	body := `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-4o-mini",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": null,
				"tool_calls": [{"id": "call_1", "type": "function", "function": {"name": "lookup_contact", "arguments": "{\"name\":\"Sarah\"}"}}]
			}
		}],
		"usage": {"prompt_tokens": 20, "completion_tokens": 4, "total_tokens": 24}
	}`
	var completion openai.ChatCompletion
	if err := json.Unmarshal([]byte(body), &completion); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := convertFromOpenAICompletion(&completion)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &model.LLMResponse{
		StopReason: "tool_calls",
		ToolCalls:  []model.ToolCallIntent{{ID: "call_1", ToolName: "lookup_contact", ArgumentsJSON: `{"name":"Sarah"}`}},
		Usage:      model.Usage{InputTokens: 20, OutputTokens: 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	if _, err := convertFromOpenAICompletion(&openai.ChatCompletion{}); err == nil {
		t.Error("expected error for completion without choices")
	}
}
