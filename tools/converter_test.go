package tools

import (
	"encoding/json"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func TestToAnthropic(t *testing.T) {
	if got := ToAnthropic(nil); got != nil {
		t.Errorf("expected nil for empty catalogue, got %v", got)
	}

	result := ToAnthropic(Catalogue(ToolSaveMemory))
	if len(result) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result))
	}
	tool := result[0].OfTool
	if tool == nil {
		t.Fatal("expected OfTool to be set")
	}
	if tool.Name != "save_memory" {
		t.Errorf("expected name 'save_memory', got %q", tool.Name)
	}
	if !tool.Description.Valid() || tool.Description.Value == "" {
		t.Error("expected description to be set")
	}
	if len(tool.InputSchema.Required) != 3 {
		t.Errorf("expected 3 required fields, got %v", tool.InputSchema.Required)
	}
}

func TestToOpenAI(t *testing.T) {
	if got := ToOpenAI([]mcptypes.Tool{}); got != nil {
		t.Errorf("expected nil for empty catalogue, got %v", got)
	}

	result := ToOpenAI(Catalogue(ToolLookupContact, ToolSendEmail))
	if len(result) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(result))
	}

	raw, err := json.Marshal(result[1])
	if err != nil {
		t.Fatalf("marshal tool: %v", err)
	}
	var wire struct {
		Type     string `json:"type"`
		Function struct {
			Name       string `json:"name"`
			Parameters struct {
				Type       string         `json:"type"`
				Properties map[string]any `json:"properties"`
				Required   []string       `json:"required"`
			} `json:"parameters"`
		} `json:"function"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		t.Fatalf("unmarshal tool: %v", err)
	}
	if wire.Type != "function" {
		t.Errorf("expected type 'function', got %q", wire.Type)
	}
	if wire.Function.Name != "send_email" {
		t.Errorf("expected name 'send_email', got %q", wire.Function.Name)
	}
	if wire.Function.Parameters.Type != "object" {
		t.Errorf("expected parameters type 'object', got %q", wire.Function.Parameters.Type)
	}
	if _, ok := wire.Function.Parameters.Properties["cc"]; !ok {
		t.Error("expected cc property")
	}
	if len(wire.Function.Parameters.Required) != 3 {
		t.Errorf("expected 3 required fields, got %v", wire.Function.Parameters.Required)
	}
}

func TestToOllama(t *testing.T) {
	if got := ToOllama(nil); got != nil {
		t.Errorf("expected nil for empty catalogue, got %v", got)
	}

	result := ToOllama(Catalogue(ToolSaveMemory))
	if len(result) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result))
	}
	tool := result[0]
	if tool.Type != "function" || tool.Function.Name != "save_memory" {
		t.Errorf("unexpected tool %+v", tool)
	}
	if tool.Function.Parameters.Type != "object" {
		t.Errorf("parameters type = %q, want object", tool.Function.Parameters.Type)
	}
	if len(tool.Function.Parameters.Required) != 3 {
		t.Errorf("expected 3 required fields, got %v", tool.Function.Parameters.Required)
	}

	raw, err := json.Marshal(tool)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	json.Unmarshal(raw, &decoded)
	props := decoded["function"].(map[string]any)["parameters"].(map[string]any)["properties"].(map[string]any)
	if _, ok := props["category"]; !ok {
		t.Errorf("properties lost in conversion: %v", props)
	}
}
