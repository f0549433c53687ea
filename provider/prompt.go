package provider

import (
	"fmt"
	"strings"

	"sol/model"
)

const promptTimeLayout = "Monday, January 2, 2006 at 3:04 PM MST"

var guidelines = []string{
	"GUIDELINES:",
	"- Be concise and direct. Answer first, then offer detail if it helps.",
	"- Use the tools when the answer depends on contacts, calendar, memory or captured context.",
	"- When the user states a lasting preference or fact about themselves, save it with save_memory.",
	"- Check availability with check_calendar before proposing or creating an event.",
	"- Emails are drafts for the user to review. Never claim an email was sent.",
	"- If a tool fails, say what went wrong and continue with what you know.",
	"- Ask for missing details only when a tool cannot run without them.",
}

// BuildSystemPrompt renders the system prompt for one completion. The output
// depends only on ac, including the timestamp.
func BuildSystemPrompt(ac model.AssembledContext) string {
	var b strings.Builder

	b.WriteString("You are Sol, a personal assistant with access to the user's notes, contacts, calendar, clipboard and remembered facts.\n\n")
	fmt.Fprintf(&b, "Current time: %s\n", ac.Timestamp.Format(promptTimeLayout))

	if ac.WorkContext != "" {
		b.WriteString("\nCURRENT WORK CONTEXT:\n")
		b.WriteString(ac.WorkContext)
		b.WriteString("\n")
	}

	if len(ac.Memories) > 0 {
		b.WriteString("\nWHAT YOU KNOW ABOUT THE USER:\n")
		for _, m := range ac.Memories {
			fmt.Fprintf(&b, "- %s: %s\n", m.Key, m.Value)
		}
	}

	if len(ac.Contacts) > 0 {
		b.WriteString("\nRELEVANT CONTACTS:\n")
		for _, c := range ac.Contacts {
			b.WriteString("- ")
			b.WriteString(c.Name)
			if c.Email != "" {
				fmt.Fprintf(&b, " <%s>", c.Email)
			}
			if c.Company != "" {
				fmt.Fprintf(&b, " (%s)", c.Company)
			}
			b.WriteString("\n")
		}
	}

	if ac.ClipboardContext != "" {
		b.WriteString("\nRECENT CLIPBOARD:\n")
		b.WriteString(ac.ClipboardContext)
		b.WriteString("\n")
	}

	if ac.ConversationHistory != "" {
		b.WriteString("\nCONVERSATION SO FAR:\n")
		b.WriteString(ac.ConversationHistory)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.Join(guidelines, "\n"))
	return b.String()
}
