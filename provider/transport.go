package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"sol/config"
)

// maxErrorBody caps how much of a failed response is kept in ProtocolError.
const maxErrorBody = 64 << 10

// shapeCheck validates a decoded 2xx body before the SDK sees it.
type shapeCheck func(body map[string]json.RawMessage) error

// requireArray returns a shapeCheck demanding that field holds a JSON array.
func requireArray(field string) shapeCheck {
	return func(body map[string]json.RawMessage) error {
		raw, ok := body[field]
		if !ok {
			return fmt.Errorf("missing %q", field)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return fmt.Errorf("%q is not an array", field)
		}
		return nil
	}
}

// requireObject returns a shapeCheck demanding that field holds a JSON object.
func requireObject(field string) shapeCheck {
	return func(body map[string]json.RawMessage) error {
		raw, ok := body[field]
		if !ok {
			return fmt.Errorf("missing %q", field)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return fmt.Errorf("%q is not an object", field)
		}
		return nil
	}
}

// classifyExchange runs one HTTP round trip through next and converts every
// failure into the provider error taxonomy. Successful bodies are checked
// against check and handed back to the SDK untouched.
func classifyExchange(component string, req *http.Request, next func(*http.Request) (*http.Response, error), check shapeCheck) (*http.Response, error) {
	resp, err := next(req)
	if err != nil {
		config.DebugLog.Debugf("[%s] %s %s: transport failure: %v", component, req.Method, req.URL.Path, err)
		return nil, &TransportError{Err: err}
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		config.DebugLog.Debugf("[%s] %s %s: status %d", component, req.Method, req.URL.Path, resp.StatusCode)
		return nil, &ProtocolError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &MalformedResponseError{Reason: "body is not a JSON object", Err: err}
	}
	if check != nil {
		if err := check(decoded); err != nil {
			return nil, &MalformedResponseError{Reason: err.Error()}
		}
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

// classifyError maps whatever the SDK returned onto the taxonomy. Errors that
// already belong to it pass through; statusCode extracts the status from an
// SDK API error when there is one.
func classifyError(err error, statusCode func(error) (int, string, bool)) error {
	if err == nil {
		return nil
	}

	var transport *TransportError
	var protocol *ProtocolError
	var malformed *MalformedResponseError
	switch {
	case errors.As(err, &transport):
		return transport
	case errors.As(err, &protocol):
		return protocol
	case errors.As(err, &malformed):
		return malformed
	}

	if code, body, ok := statusCode(err); ok {
		return &ProtocolError{StatusCode: code, Body: body}
	}
	if isContextError(err) {
		return &TransportError{Err: err}
	}
	return &MalformedResponseError{Reason: "failed to decode response", Err: err}
}
