package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrTabNotFound is returned when no debuggable tab matches the requested name.
	ErrTabNotFound = errors.New("tab not found")
	// ErrScriptException is returned when the evaluated script throws.
	ErrScriptException = errors.New("script raised an exception")
	// ErrNoValue is returned when a script result carries no value.
	ErrNoValue = errors.New("script returned no value")
)

// DOMBridge executes scripts inside a named browser tab.
type DOMBridge interface {
	ExecuteScript(ctx context.Context, tab, script string, awaitPromise bool) (*ScriptResult, error)
	ElementExists(ctx context.Context, tab, elementID string) (bool, error)
}

// ScriptResult mirrors the DevTools reply shape {result: {result: {value}}}.
type ScriptResult struct {
	Result EvaluateResult `json:"result"`
}

// EvaluateResult is the body of a Runtime.evaluate reply.
type EvaluateResult struct {
	Result           RemoteObject      `json:"result"`
	ExceptionDetails *ExceptionDetails `json:"exceptionDetails,omitempty"`
}

// RemoteObject is the evaluated value. Value is absent for undefined.
type RemoteObject struct {
	Type        string          `json:"type"`
	Subtype     string          `json:"subtype,omitempty"`
	Value       json.RawMessage `json:"value,omitempty"`
	Description string          `json:"description,omitempty"`
}

// ExceptionDetails describes a thrown script exception.
type ExceptionDetails struct {
	Text      string       `json:"text"`
	Exception RemoteObject `json:"exception"`
}

// Err reports a script exception, if any.
func (r *ScriptResult) Err() error {
	if r == nil {
		return ErrNoValue
	}
	if d := r.Result.ExceptionDetails; d != nil {
		msg := d.Text
		if d.Exception.Description != "" {
			msg = d.Exception.Description
		}
		return fmt.Errorf("%w: %s", ErrScriptException, msg)
	}
	return nil
}

// Decode unmarshals the result value into v.
// A null or missing value is reported as ErrNoValue.
func (r *ScriptResult) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	raw := r.Result.Result.Value
	if len(raw) == 0 || string(raw) == "null" {
		return ErrNoValue
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode script value: %w", err)
	}
	return nil
}

// Bool decodes a boolean result.
func (r *ScriptResult) Bool() (bool, error) {
	var b bool
	err := r.Decode(&b)
	return b, err
}

// Text decodes a string result.
func (r *ScriptResult) Text() (string, error) {
	var s string
	err := r.Decode(&s)
	return s, err
}

// ValueResult builds a successful result holding v. Handy for fakes.
func ValueResult(v any) *ScriptResult {
	raw, err := json.Marshal(v)
	if err != nil {
		raw = nil
	}
	return &ScriptResult{Result: EvaluateResult{Result: RemoteObject{Type: jsType(v), Value: raw}}}
}

func jsType(v any) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int64, float64:
		return "number"
	default:
		return "object"
	}
}

// JSString quotes s as a JavaScript string literal.
func JSString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
