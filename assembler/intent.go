package assembler

import (
	"strings"

	"sol/model"
)

type keywordGroup struct {
	intent        model.IntentType
	requiresTools bool
	keywords      []string
}

// intentGroups are tested in order; the first match wins.
var intentGroups = []keywordGroup{
	{
		intent:        model.IntentScheduleMeeting,
		requiresTools: true,
		keywords: []string{
			"schedule", "reschedule", "meeting", "meet", "calendar", "appointment",
			"book", "availability", "available", "free time", "set up a call",
		},
	},
	{
		intent:        model.IntentSendCommunication,
		requiresTools: true,
		keywords: []string{
			"email", "e-mail", "mail", "send", "message", "reply", "respond",
			"reach out", "follow up", "ping",
		},
	},
	{
		intent:        model.IntentSearchInformation,
		requiresTools: true,
		keywords: []string{
			"find", "search", "look up", "lookup", "who is", "what is", "where is",
			"show me", "recall", "remember when", "what did",
		},
	},
	{
		intent:        model.IntentCreateContent,
		requiresTools: false,
		keywords: []string{
			"write", "draft", "compose", "create", "summarize", "summarise",
			"rewrite", "generate", "outline", "paraphrase",
		},
	},
	{
		intent:        model.IntentManageTask,
		requiresTools: true,
		keywords: []string{
			"task", "todo", "to-do", "remind", "reminder", "deadline", "due", "checklist",
		},
	},
}

var clipboardKeywords = []string{"clipboard", "copied"}

// matcher tests keywords as substrings of the lower-cased text, so
// inflections like "meetings" or "scheduled" still match.
type matcher struct {
	lower string
}

func newMatcher(query string) matcher {
	return matcher{lower: strings.ToLower(query)}
}

func (m matcher) any(keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(m.lower, kw) {
			return true
		}
	}
	return false
}

// InferIntent classifies query with ordered keyword groups. It is a pure
// function of its inputs.
func InferIntent(query string, entities model.ExtractedEntities) model.QueryIntent {
	m := newMatcher(query)

	for _, group := range intentGroups {
		if !m.any(group.keywords) {
			continue
		}
		return model.QueryIntent{
			Type:              group.intent,
			Entities:          entities,
			RequiresTools:     group.requiresTools,
			RequiresClipboard: group.intent == model.IntentCreateContent && m.any(clipboardKeywords),
		}
	}

	return model.QueryIntent{
		Type:          model.IntentGeneral,
		Entities:      entities,
		RequiresTools: len(entities.Names) > 0,
	}
}

// MentionsScheduling reports whether query contains any scheduling keyword,
// whatever intent it was classified as.
func MentionsScheduling(query string) bool {
	return newMatcher(query).any(intentGroups[0].keywords)
}
