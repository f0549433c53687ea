package testutil

import (
	"time"

	"sol/model"
)

// TestConversation returns a short finished exchange followed by a pending
// user turn.
func TestConversation() []model.ChatMessage {
	return []model.ChatMessage{
		{ID: "u1", Role: model.RoleUser, Content: "Hello, how are you?", Timestamp: time.Now()},
		{ID: "a1", Role: model.RoleAssistant, Content: "I'm doing well, thank you!", Timestamp: time.Now()},
		{ID: "u2", Role: model.RoleUser, Content: "What coffee do I like?", Timestamp: time.Now()},
	}
}

// ToolExchange returns a user turn, an assistant turn requesting one tool and
// the tool turn answering it.
func ToolExchange(callID, tool, args, result string, success bool) []model.ChatMessage {
	return []model.ChatMessage{
		{ID: "u1", Role: model.RoleUser, Content: "Remember that I like oat milk", Timestamp: time.Now()},
		{
			ID:        "a1",
			Role:      model.RoleAssistant,
			ToolCalls: []model.ToolCallIntent{{ID: callID, ToolName: tool, ArgumentsJSON: args}},
			Timestamp: time.Now(),
		},
		{
			ID:          "t1",
			Role:        model.RoleTool,
			ToolResults: []model.ToolOutcome{{ToolCallID: callID, ResultJSON: result, Success: success}},
			Timestamp:   time.Now(),
		},
	}
}

// SingleUserMessage returns a single user turn for simple tests.
func SingleUserMessage(content string) []model.ChatMessage {
	return []model.ChatMessage{{ID: "u1", Role: model.RoleUser, Content: content, Timestamp: time.Now()}}
}

// TextResponse is a terminal completion.
func TextResponse(text string) *model.LLMResponse {
	return &model.LLMResponse{
		Content:    text,
		StopReason: "end_turn",
		Usage:      model.Usage{InputTokens: 10, OutputTokens: 5},
	}
}

// ToolCallResponse is a completion requesting the given calls.
func ToolCallResponse(calls ...model.ToolCallIntent) *model.LLMResponse {
	return &model.LLMResponse{
		ToolCalls:  calls,
		StopReason: "tool_use",
		Usage:      model.Usage{InputTokens: 10, OutputTokens: 5},
	}
}
