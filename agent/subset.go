package agent

import (
	"sol/assembler"
	"sol/model"
	"sol/tools"
)

// baseTools are offered on every turn.
var baseTools = []tools.ToolName{
	tools.ToolLookupContact,
	tools.ToolSearchMemory,
	tools.ToolSearchContext,
	tools.ToolSaveMemory,
}

// ToolSubset picks the tools offered for a turn. The choice depends on the
// inferred intent and the raw query, never on the model.
func ToolSubset(intent model.QueryIntent, query string) []tools.ToolName {
	names := append([]tools.ToolName(nil), baseTools...)
	if intent.Type == model.IntentScheduleMeeting || assembler.MentionsScheduling(query) {
		names = append(names, tools.ToolCheckCalendar, tools.ToolCreateCalendarEvent)
	}
	if intent.Type == model.IntentSendCommunication {
		names = append(names, tools.ToolSendEmail)
	}
	return names
}
