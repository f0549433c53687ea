package briefing

import (
	"strings"
	"time"

	"sol/model"
)

// BuildPrompt renders the brief request for one event.
func BuildPrompt(event model.CalendarEvent, attendees []Attendee, workContext string) string {
	var b strings.Builder
	b.WriteString("Generate a meeting brief for the following event:\n\n")

	b.WriteString("## Event Details\n")
	b.WriteString("- Title: " + titleOf(event) + "\n")
	b.WriteString("- Start: " + formatTime(event.Start) + "\n")
	b.WriteString("- End: " + formatTime(event.End) + "\n")
	b.WriteString("- Location: " + orDefault(event.Location, "Not specified") + "\n")
	b.WriteString("- Calendar: " + orDefault(event.Calendar, "Unknown") + "\n")
	if notes := strings.TrimSpace(event.Notes); notes != "" {
		b.WriteString("- Notes: " + notes + "\n")
	}

	b.WriteString("\n## Attendees\n")
	if len(attendees) == 0 {
		b.WriteString("\nNo attendees listed.\n")
	}
	for _, a := range attendees {
		b.WriteString("\n### " + a.Name + "\n")
		c := a.Contact
		if c == nil {
			b.WriteString("- Not in contacts\n")
			continue
		}
		if c.Name != a.Name {
			b.WriteString("- Name: " + c.Name + "\n")
		}
		switch {
		case c.Title != "" && c.Company != "":
			b.WriteString("- Role: " + c.Title + " at " + c.Company + "\n")
		case c.Title != "":
			b.WriteString("- Role: " + c.Title + "\n")
		case c.Company != "":
			b.WriteString("- Organization: " + c.Company + "\n")
		}
		if c.Email != "" {
			b.WriteString("- Email: " + c.Email + "\n")
		}
		if c.Notes != "" {
			b.WriteString("- Notes: " + c.Notes + "\n")
		}
		if !c.LastInteraction.IsZero() {
			b.WriteString("- Last interaction: " + c.LastInteraction.Format("2006-01-02") + "\n")
		}
	}

	if wc := strings.TrimSpace(workContext); wc != "" {
		b.WriteString("\n## Current Work Context\n" + wc + "\n")
	}

	b.WriteString(`
Please generate a meeting brief that includes:
1. A summary of who the attendees are
2. Any relevant context or notes about them
3. Suggested talking points based on their background
4. Any preparation suggestions

Format the brief in clean markdown.
`)
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Mon Jan 2 2006 15:04 MST")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
