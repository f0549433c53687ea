// Package companion talks to the local companion service that exposes the
// user's work context and calendar over HTTP.
package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sol/config"
	"sol/model"
)

const (
	DefaultBaseURL = config.DefaultCompanionURL
	DefaultTimeout = 10 * time.Second

	dateLayout   = "2006-01-02"
	maxErrorBody = 4 << 10
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("companion %s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("companion %s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ErrUnreachable wraps connection failures.
var ErrUnreachable = errors.New("cannot connect to the companion service, is it running?")

// Client implements model.WorkContextProvider, model.CalendarExecutor,
// model.EventLister and model.ActionSink.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid companion URL %q", baseURL)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	config.DebugLog.Debugf("[Companion] %s %s -> %d in %s", method, path, resp.StatusCode, time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type workContextResponse struct {
	Summary        string   `json:"summary"`
	ActiveApp      string   `json:"activeApp"`
	ActiveContext  string   `json:"activeContext"`
	FocusScore     *float64 `json:"focusScore"`
	RecentActivity []string `json:"recentActivity"`
}

func (r workContextResponse) describe() string {
	if s := strings.TrimSpace(r.Summary); s != "" {
		return s
	}

	var parts []string
	switch {
	case r.ActiveApp != "" && r.ActiveContext != "":
		parts = append(parts, fmt.Sprintf("Working in %s on %s", r.ActiveApp, r.ActiveContext))
	case r.ActiveApp != "":
		parts = append(parts, "Working in "+r.ActiveApp)
	case r.ActiveContext != "":
		parts = append(parts, "Working on "+r.ActiveContext)
	}
	if r.FocusScore != nil {
		parts = append(parts, fmt.Sprintf("focus score %.0f%%", *r.FocusScore*100))
	}
	if len(r.RecentActivity) > 0 {
		parts = append(parts, "recently: "+strings.Join(r.RecentActivity, ", "))
	}
	return strings.Join(parts, "; ")
}

// WorkContext returns a one-line description of what the user is doing.
func (c *Client) WorkContext(ctx context.Context) (string, error) {
	var resp workContextResponse
	if err := c.do(ctx, http.MethodGet, "/context", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.describe(), nil
}

// attendee accepts either a bare string or an object with name/email.
type attendee string

func (a *attendee) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = attendee(s)
		return nil
	}
	var obj struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	switch {
	case obj.Email != "":
		*a = attendee(obj.Email)
	default:
		*a = attendee(obj.Name)
	}
	return nil
}

type eventJSON struct {
	ID        string     `json:"id,omitempty"`
	Title     string     `json:"title"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Attendees []attendee `json:"attendees,omitempty"`
	Location  string     `json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Calendar  string     `json:"calendar,omitempty"`
	External  bool       `json:"is_external,omitempty"`
}

func (e eventJSON) toModel() model.CalendarEvent {
	out := model.CalendarEvent{
		ID:       e.ID,
		Title:    e.Title,
		Start:    e.Start,
		End:      e.End,
		Location: e.Location,
		Notes:    e.Notes,
		Calendar: e.Calendar,
		External: e.External,
	}
	for _, a := range e.Attendees {
		out.Attendees = append(out.Attendees, string(a))
	}
	return out
}

func fromModel(e model.CalendarEvent) eventJSON {
	out := eventJSON{
		ID:       e.ID,
		Title:    e.Title,
		Start:    e.Start,
		End:      e.End,
		Location: e.Location,
		Notes:    e.Notes,
	}
	for _, a := range e.Attendees {
		out.Attendees = append(out.Attendees, attendee(a))
	}
	return out
}

// Events lists the events on the given day.
func (c *Client) Events(ctx context.Context, day time.Time) ([]model.CalendarEvent, error) {
	var resp struct {
		Events []eventJSON `json:"events"`
	}
	q := url.Values{"date": {day.Format(dateLayout)}}
	if err := c.do(ctx, http.MethodGet, "/calendar/events", q, nil, &resp); err != nil {
		return nil, err
	}

	events := make([]model.CalendarEvent, 0, len(resp.Events))
	for _, e := range resp.Events {
		events = append(events, e.toModel())
	}
	return events, nil
}

// CheckAvailability reports the events overlapping the requested slot. With
// no start time the whole day is checked.
func (c *Client) CheckAvailability(ctx context.Context, req model.AvailabilityRequest) (*model.Availability, error) {
	events, err := c.Events(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	conflicts := []model.CalendarEvent{}
	if req.Start.IsZero() {
		conflicts = append(conflicts, events...)
	} else {
		end := req.Start.Add(req.Duration)
		for _, e := range events {
			if overlaps(e, req.Start, end) {
				conflicts = append(conflicts, e)
			}
		}
	}

	return &model.Availability{
		Date:      req.Date.Format(dateLayout),
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
		Events:    events,
	}, nil
}

// overlaps treats events as half-open intervals, so back-to-back slots do
// not conflict.
func overlaps(e model.CalendarEvent, start, end time.Time) bool {
	return e.Start.Before(end) && start.Before(e.End)
}

// CreateEvent adds an event and returns it as stored by the companion.
func (c *Client) CreateEvent(ctx context.Context, event model.CalendarEvent) (*model.CalendarEvent, error) {
	var resp eventJSON
	if err := c.do(ctx, http.MethodPost, "/calendar/events", nil, fromModel(event), &resp); err != nil {
		return nil, err
	}
	created := resp.toModel()
	if created.Title == "" {
		// The companion may answer with just an id.
		id := created.ID
		created = event
		created.ID = id
	}
	return &created, nil
}

type actionJSON struct {
	Type              model.ActionType `json:"type"`
	Title             string           `json:"title"`
	Summary           string           `json:"summary"`
	DraftContent      string           `json:"draftContent,omitempty"`
	RelatedEventID    string           `json:"relatedEventId,omitempty"`
	RelatedEventTitle string           `json:"relatedEventTitle,omitempty"`
	ActionURL         string           `json:"actionUrl,omitempty"`
}

// CreateAction queues action for the user's review and returns its id.
func (c *Client) CreateAction(ctx context.Context, action model.Action) (string, error) {
	if action.Type == "" || action.Title == "" {
		return "", errors.New("action needs a type and a title")
	}

	var resp struct {
		Success  *bool  `json:"success"`
		ActionID string `json:"action_id"`
		ID       string `json:"id"`
		Error    string `json:"error"`
	}
	body := actionJSON{
		Type:              action.Type,
		Title:             action.Title,
		Summary:           action.Summary,
		DraftContent:      action.DraftContent,
		RelatedEventID:    action.RelatedEventID,
		RelatedEventTitle: action.RelatedEventTitle,
		ActionURL:         action.ActionURL,
	}
	if err := c.do(ctx, http.MethodPost, "/agent/actions", nil, body, &resp); err != nil {
		return "", err
	}
	if resp.Success != nil && !*resp.Success {
		if resp.Error == "" {
			resp.Error = "rejected"
		}
		return "", fmt.Errorf("companion refused action %q: %s", action.Title, resp.Error)
	}
	if resp.ActionID != "" {
		return resp.ActionID, nil
	}
	return resp.ID, nil
}

// Health checks that the companion is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
