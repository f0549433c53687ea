// Package tools declares the tools offered to the model and executes the
// calls it makes.
//
// The catalogue is static: every ToolName has exactly one schema, expressed as
// an MCP tool definition so the same value can be converted to each
// provider's wire format. The Dispatcher maps a ToolCallIntent to its
// executor and always answers with a ToolOutcome, even for unknown tools or
// malformed arguments.
package tools

import (
	"sol/model"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ToolName is the wire name of a supported tool.
type ToolName string

const (
	ToolLookupContact       ToolName = "lookup_contact"
	ToolSearchMemory        ToolName = "search_memory"
	ToolSearchContext       ToolName = "search_context"
	ToolSaveMemory          ToolName = "save_memory"
	ToolCheckCalendar       ToolName = "check_calendar"
	ToolCreateCalendarEvent ToolName = "create_calendar_event"
	ToolSendEmail           ToolName = "send_email"
)

// Names is the full tool enumeration in catalogue order.
func Names() []ToolName {
	return []ToolName{
		ToolLookupContact,
		ToolSearchMemory,
		ToolSearchContext,
		ToolSaveMemory,
		ToolCheckCalendar,
		ToolCreateCalendarEvent,
		ToolSendEmail,
	}
}

// ParseToolName matches s against the enumeration.
func ParseToolName(s string) (ToolName, bool) {
	for _, n := range Names() {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

func categoryEnum() []string {
	cats := model.MemoryCategories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	return out
}

// Schema returns the tool definition for name. Enums are rebuilt on every
// call from the live domain vocabulary.
func Schema(name ToolName) (mcptypes.Tool, bool) {
	switch name {
	case ToolLookupContact:
		return mcptypes.NewTool(string(name),
			mcptypes.WithDescription("Look up people in the user's contacts by name. Returns email, phone, company and notes for each match."),
			mcptypes.WithString("name", mcptypes.Required(),
				mcptypes.Description("Full or partial name of the person")),
		), true

	case ToolSearchMemory:
		return mcptypes.NewTool(string(name),
			mcptypes.WithDescription("Search facts remembered about the user (preferences, relationships, work patterns, projects)."),
			mcptypes.WithString("query", mcptypes.Required(),
				mcptypes.Description("Words to search for in memory keys and values")),
			mcptypes.WithString("category",
				mcptypes.Description("Restrict the search to one memory category"),
				mcptypes.Enum(categoryEnum()...)),
			mcptypes.WithNumber("limit",
				mcptypes.Description("Maximum number of memories to return (default 10)")),
		), true

	case ToolSearchContext:
		return mcptypes.NewTool(string(name),
			mcptypes.WithDescription("Full-text search over the user's captured context: notes and clipboard history."),
			mcptypes.WithString("query", mcptypes.Required(),
				mcptypes.Description("Text to search for")),
			mcptypes.WithNumber("limit",
				mcptypes.Description("Maximum number of results (default 10)")),
		), true

	case ToolSaveMemory:
		return mcptypes.NewTool(string(name),
			mcptypes.WithDescription("Remember a durable fact about the user for future conversations. Saving the same category and key again replaces the value."),
			mcptypes.WithString("category", mcptypes.Required(),
				mcptypes.Description("Kind of fact being remembered"),
				mcptypes.Enum(categoryEnum()...)),
			mcptypes.WithString("key", mcptypes.Required(),
				mcptypes.Description("Short label for the fact, e.g. \"coffee\"")),
			mcptypes.WithString("value", mcptypes.Required(),
				mcptypes.Description("The fact itself, e.g. \"oat milk latte\"")),
			mcptypes.WithNumber("confidence",
				mcptypes.Description("Confidence between 0 and 1 (default 0.8)")),
		), true

	case ToolCheckCalendar:
		return mcptypes.NewTool(string(name),
			mcptypes.WithDescription("Check the user's calendar for a date and report whether a time slot is free."),
			mcptypes.WithString("date", mcptypes.Required(),
				mcptypes.Description("Date in YYYY-MM-DD format")),
			mcptypes.WithString("start_time",
				mcptypes.Description("Start of the slot in 24h HH:MM; omit to list the whole day")),
			mcptypes.WithNumber("duration_minutes",
				mcptypes.Description("Length of the slot in minutes (default 30)")),
		), true

	case ToolCreateCalendarEvent:
		return mcptypes.NewTool(string(name),
			mcptypes.WithDescription("Create an event on the user's calendar."),
			mcptypes.WithString("title", mcptypes.Required(),
				mcptypes.Description("Event title")),
			mcptypes.WithString("date", mcptypes.Required(),
				mcptypes.Description("Date in YYYY-MM-DD format")),
			mcptypes.WithString("start_time", mcptypes.Required(),
				mcptypes.Description("Start time in 24h HH:MM")),
			mcptypes.WithNumber("duration_minutes",
				mcptypes.Description("Length in minutes (default 30)")),
			mcptypes.WithArray("attendees",
				mcptypes.Description("Attendee email addresses"),
				mcptypes.WithStringItems()),
			mcptypes.WithString("location",
				mcptypes.Description("Where the event takes place")),
			mcptypes.WithString("notes",
				mcptypes.Description("Agenda or notes for the event")),
		), true

	case ToolSendEmail:
		return mcptypes.NewTool(string(name),
			mcptypes.WithDescription("Prepare an email draft for the user to review. Nothing is sent; the draft is returned for approval."),
			mcptypes.WithString("to", mcptypes.Required(),
				mcptypes.Description("Recipient email address")),
			mcptypes.WithString("subject", mcptypes.Required(),
				mcptypes.Description("Subject line")),
			mcptypes.WithString("body", mcptypes.Required(),
				mcptypes.Description("Plain-text body")),
			mcptypes.WithArray("cc",
				mcptypes.Description("Additional recipients"),
				mcptypes.WithStringItems()),
		), true
	}

	return mcptypes.Tool{}, false
}

// Catalogue returns the schemas for names, skipping unknown entries.
func Catalogue(names ...ToolName) []mcptypes.Tool {
	out := make([]mcptypes.Tool, 0, len(names))
	for _, n := range names {
		if tool, ok := Schema(n); ok {
			out = append(out, tool)
		}
	}
	return out
}

// All returns the complete catalogue.
func All() []mcptypes.Tool {
	return Catalogue(Names()...)
}
