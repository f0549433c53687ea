package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"sol/model"
)

const (
	defaultSearchLimit    = 10
	maxSearchLimit        = 50
	defaultEventMinutes   = 30
	defaultSaveConfidence = 0.8
	dateLayout            = "2006-01-02"
	clockLayout           = "15:04"
)

// ErrMissingField marks a required argument that was absent or empty.
var ErrMissingField = errors.New("missing required field")

type lookupContactArgs struct {
	Name string `json:"name"`
}

func (a *lookupContactArgs) validate() error {
	return requireFields(map[string]string{"name": a.Name})
}

type searchMemoryArgs struct {
	Query    string   `json:"query"`
	Category string   `json:"category,omitempty"`
	Limit    *float64 `json:"limit,omitempty"`

	category model.MemoryCategory
}

func (a *searchMemoryArgs) validate() error {
	if err := requireFields(map[string]string{"query": a.Query}); err != nil {
		return err
	}
	if a.Category != "" {
		cat, ok := model.ParseMemoryCategory(a.Category)
		if !ok {
			return fmt.Errorf("unknown memory category %q", a.Category)
		}
		a.category = cat
	}
	return nil
}

type searchContextArgs struct {
	Query string   `json:"query"`
	Limit *float64 `json:"limit,omitempty"`
}

func (a *searchContextArgs) validate() error {
	return requireFields(map[string]string{"query": a.Query})
}

type saveMemoryArgs struct {
	Category   string   `json:"category"`
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`

	category model.MemoryCategory
}

func (a *saveMemoryArgs) validate() error {
	if err := requireFields(map[string]string{"category": a.Category, "key": a.Key, "value": a.Value}); err != nil {
		return err
	}
	cat, ok := model.ParseMemoryCategory(a.Category)
	if !ok {
		return fmt.Errorf("unknown memory category %q", a.Category)
	}
	a.category = cat
	if a.Confidence != nil && (*a.Confidence < 0 || *a.Confidence > 1) {
		return fmt.Errorf("confidence %v outside [0, 1]", *a.Confidence)
	}
	return nil
}

func (a *saveMemoryArgs) confidence() float64 {
	if a.Confidence == nil {
		return defaultSaveConfidence
	}
	return *a.Confidence
}

type checkCalendarArgs struct {
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`

	request model.AvailabilityRequest
}

func (a *checkCalendarArgs) validate(loc *time.Location) error {
	if err := requireFields(map[string]string{"date": a.Date}); err != nil {
		return err
	}
	day, err := time.ParseInLocation(dateLayout, a.Date, loc)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	a.request = model.AvailabilityRequest{Date: day}
	if a.StartTime != "" {
		start, err := parseClock(day, a.StartTime)
		if err != nil {
			return err
		}
		a.request.Start = start
		a.request.Duration = minutes(a.DurationMinutes)
	}
	return nil
}

type createEventArgs struct {
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	StartTime       string   `json:"start_time"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
	Attendees       []string `json:"attendees,omitempty"`
	Location        string   `json:"location,omitempty"`
	Notes           string   `json:"notes,omitempty"`

	event model.CalendarEvent
}

func (a *createEventArgs) validate(loc *time.Location) error {
	err := requireFields(map[string]string{"title": a.Title, "date": a.Date, "start_time": a.StartTime})
	if err != nil {
		return err
	}
	day, err := time.ParseInLocation(dateLayout, a.Date, loc)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	start, err := parseClock(day, a.StartTime)
	if err != nil {
		return err
	}
	a.event = model.CalendarEvent{
		Title:     strings.TrimSpace(a.Title),
		Start:     start,
		End:       start.Add(minutes(a.DurationMinutes)),
		Attendees: a.Attendees,
		Location:  a.Location,
		Notes:     a.Notes,
	}
	return nil
}

type sendEmailArgs struct {
	To      string   `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	CC      []string `json:"cc,omitempty"`
}

func (a *sendEmailArgs) validate() error {
	if err := requireFields(map[string]string{"to": a.To, "subject": a.Subject, "body": a.Body}); err != nil {
		return err
	}
	if !strings.Contains(a.To, "@") {
		return fmt.Errorf("to %q is not an email address", a.To)
	}
	return nil
}

// decodeArgs unmarshals raw into dst. An empty payload decodes as {} so that
// validation, not the decoder, reports the missing fields.
func decodeArgs(raw string, dst any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after arguments object")
	}
	return nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	// map order is random; keep the message stable
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
}

func parseClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("start_time must be HH:MM: %w", err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func minutes(v *float64) time.Duration {
	if v == nil || *v <= 0 {
		return defaultEventMinutes * time.Minute
	}
	return time.Duration(*v * float64(time.Minute))
}

func limitOr(v *float64, def int) int {
	if v == nil || *v < 1 {
		return def
	}
	n := int(*v)
	if n > maxSearchLimit {
		return maxSearchLimit
	}
	return n
}
