package provider

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"sol/model"
)

// PrepareHistory makes a stored window of turns safe to replay:
//   - turns before the first user turn are dropped, so a window never opens
//     on tool results whose request fell outside it
//   - empty turns are skipped
//   - an assistant turn's tool calls are kept only when the next turn answers
//     them, otherwise only its text survives
//
// The input is not modified.
func PrepareHistory(messages []model.ChatMessage) []model.ChatMessage {
	start := len(messages)
	for i, msg := range messages {
		if msg.Role == model.RoleUser {
			start = i
			break
		}
	}

	out := make([]model.ChatMessage, 0, len(messages)-start)
	for i := start; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case model.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				answered := i+1 < len(messages) && messages[i+1].Role == model.RoleTool && len(messages[i+1].ToolResults) > 0
				if !answered {
					msg.ToolCalls = nil
				}
			}
			if strings.TrimSpace(msg.Content) == "" && len(msg.ToolCalls) == 0 {
				continue
			}
		case model.RoleTool:
			if len(msg.ToolResults) == 0 || len(out) == 0 || len(out[len(out)-1].ToolCalls) == 0 {
				continue
			}
		default:
			if strings.TrimSpace(msg.Content) == "" {
				continue
			}
		}
		out = append(out, msg)
	}
	return out
}

// toolInput returns args as a JSON object, falling back to {} so a replayed
// tool_use block is always well formed.
func toolInput(args string) json.RawMessage {
	trimmed := strings.TrimSpace(args)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	return json.RawMessage("{}")
}

// convertToAnthropicMessages maps turns onto Messages API params. Tool turns
// become user messages of tool_result blocks; the protocol has no tool role.
func convertToAnthropicMessages(messages []model.ChatMessage) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, toolInput(call.ArgumentsJSON), call.ToolName))
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))

		case model.RoleTool:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolResults))
			for _, outcome := range msg.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(outcome.ToolCallID, outcome.ResultJSON, !outcome.Success))
			}
			result = append(result, anthropic.NewUserMessage(blocks...))

		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return result
}

// convertFromAnthropicMessage extracts the reply text (last text block wins)
// and one intent per tool_use block.
func convertFromAnthropicMessage(msg *anthropic.Message) *model.LLMResponse {
	resp := &model.LLMResponse{
		StopReason: string(msg.StopReason),
		Usage: model.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}

	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Content = variant.Text
		case anthropic.ToolUseBlock:
			args := string(variant.Input)
			if args == "" {
				args = "{}"
			}
			resp.ToolCalls = append(resp.ToolCalls, model.ToolCallIntent{
				ID:            variant.ID,
				ToolName:      variant.Name,
				ArgumentsJSON: args,
			})
		}
	}

	return resp
}

// convertToOpenAIMessages maps turns onto chat completion params. Tool
// outcomes become tool role messages keyed by call id.
func convertToOpenAIMessages(systemPrompt string, messages []model.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, openai.SystemMessage(systemPrompt))
	}

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				result = append(result, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.ToolName,
							Arguments: string(toolInput(call.ArgumentsJSON)),
						},
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

		case model.RoleTool:
			for _, outcome := range msg.ToolResults {
				result = append(result, openai.ToolMessage(outcome.ResultJSON, outcome.ToolCallID))
			}

		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}

	return result
}

// convertFromOpenAICompletion reads the first choice of a completion.
func convertFromOpenAICompletion(completion *openai.ChatCompletion) (*model.LLMResponse, error) {
	if len(completion.Choices) == 0 {
		return nil, &MalformedResponseError{Reason: "completion has no choices"}
	}
	choice := completion.Choices[0]

	resp := &model.LLMResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: model.Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}
	for _, call := range choice.Message.ToolCalls {
		args := call.Function.Arguments
		if args == "" {
			args = "{}"
		}
		resp.ToolCalls = append(resp.ToolCalls, model.ToolCallIntent{
			ID:            call.ID,
			ToolName:      call.Function.Name,
			ArgumentsJSON: args,
		})
	}
	return resp, nil
}

// convertToOllamaMessages maps turns onto chat messages. Ollama matches tool
// results to calls by position, so each tool turn is emitted in the order of
// the preceding assistant turn's calls.
func convertToOllamaMessages(systemPrompt string, messages []model.ChatMessage) []api.Message {
	result := make([]api.Message, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, api.Message{Role: "system", Content: systemPrompt})
	}

	var pending []model.ToolCallIntent
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleAssistant:
			out := api.Message{Role: "assistant", Content: msg.Content}
			for _, call := range msg.ToolCalls {
				var args api.ToolCallFunctionArguments
				json.Unmarshal(toolInput(call.ArgumentsJSON), &args)
				out.ToolCalls = append(out.ToolCalls, api.ToolCall{
					Function: api.ToolCallFunction{Name: call.ToolName, Arguments: args},
				})
			}
			pending = msg.ToolCalls
			result = append(result, out)

		case model.RoleTool:
			for _, outcome := range positionalOutcomes(pending, msg.ToolResults) {
				result = append(result, api.Message{Role: "tool", Content: outcome.ResultJSON, ToolName: outcome.toolName})
			}
			pending = nil

		default:
			result = append(result, api.Message{Role: "user", Content: msg.Content})
		}
	}

	return result
}

type namedOutcome struct {
	model.ToolOutcome
	toolName string
}

// positionalOutcomes orders outcomes by the calls they answer. Outcomes
// whose id matches no call keep their relative order at the end.
func positionalOutcomes(calls []model.ToolCallIntent, outcomes []model.ToolOutcome) []namedOutcome {
	byID := make(map[string]model.ToolOutcome, len(outcomes))
	for _, o := range outcomes {
		byID[o.ToolCallID] = o
	}

	ordered := make([]namedOutcome, 0, len(outcomes))
	used := make(map[string]bool, len(calls))
	for _, call := range calls {
		if o, ok := byID[call.ID]; ok && !used[call.ID] {
			ordered = append(ordered, namedOutcome{ToolOutcome: o, toolName: call.ToolName})
			used[call.ID] = true
		}
	}
	for _, o := range outcomes {
		if !used[o.ToolCallID] {
			ordered = append(ordered, namedOutcome{ToolOutcome: o})
		}
	}
	return ordered
}

// convertFromOllamaResponse mints an id for every tool call, since the
// server sends none.
func convertFromOllamaResponse(chat *api.ChatResponse, newID func() string) *model.LLMResponse {
	resp := &model.LLMResponse{
		Content:    chat.Message.Content,
		StopReason: chat.DoneReason,
		Usage: model.Usage{
			InputTokens:  int64(chat.PromptEvalCount),
			OutputTokens: int64(chat.EvalCount),
		},
	}
	for _, call := range chat.Message.ToolCalls {
		args, err := json.Marshal(call.Function.Arguments)
		if err != nil || string(args) == "null" {
			args = []byte("{}")
		}
		resp.ToolCalls = append(resp.ToolCalls, model.ToolCallIntent{
			ID:            newID(),
			ToolName:      call.Function.Name,
			ArgumentsJSON: string(args),
		})
	}
	if len(resp.ToolCalls) > 0 {
		resp.StopReason = "tool_use"
	}
	return resp
}
