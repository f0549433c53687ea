package tools

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// ToAnthropic converts catalogue entries to Anthropic tool params.
//
// Anthropic Tool structure uses ToolUnionParam with input_schema:
//
//	{
//	  "name": "lookup_contact",
//	  "description": "...",
//	  "input_schema": {"type": "object", "properties": {...}, "required": [...]}
//	}
func ToAnthropic(catalogue []mcptypes.Tool) []anthropic.ToolUnionParam {
	if len(catalogue) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(catalogue))
	for i, tool := range catalogue {
		// Type defaults to "object" when omitted
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: tool.InputSchema.Properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			inputSchema.Required = tool.InputSchema.Required
		}

		result[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
		if tool.Description != "" {
			result[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}
	return result
}

// ToOpenAI converts catalogue entries to OpenAI function tools.
//
//	{
//	  "type": "function",
//	  "function": {"name": "lookup_contact", "description": "...", "parameters": {...}}
//	}
func ToOpenAI(catalogue []mcptypes.Tool) []openai.ChatCompletionToolUnionParam {
	if len(catalogue) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(catalogue))
	for i, tool := range catalogue {
		params := openai.FunctionParameters{
			"type":       tool.InputSchema.Type,
			"properties": tool.InputSchema.Properties,
		}
		if len(tool.InputSchema.Required) > 0 {
			params["required"] = tool.InputSchema.Required
		}

		result[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  params,
			},
		)
	}
	return result
}

// ToOllama converts catalogue entries to Ollama function tools. The input
// schema is re-decoded into api.ToolFunctionParameters so property types,
// enums and nested items survive.
func ToOllama(catalogue []mcptypes.Tool) []api.Tool {
	if len(catalogue) == 0 {
		return nil
	}

	result := make([]api.Tool, 0, len(catalogue))
	for _, tool := range catalogue {
		var params api.ToolFunctionParameters
		if raw, err := json.Marshal(tool.InputSchema); err == nil {
			json.Unmarshal(raw, &params)
		}
		if params.Type == "" {
			params.Type = "object"
		}
		result = append(result, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  params,
			},
		})
	}
	return result
}
