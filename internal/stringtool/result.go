package stringtool

import (
	"encoding/json"
	"fmt"
)

// ErrorPrefix prefixes failure messages in the plain-text form of a Result.
const ErrorPrefix = "Error: "

// Result is the outcome of one adapter invocation: either Ok carrying the target's
// output, or Err carrying the reason it failed.
type Result struct {
	Output string
	Err    error
}

// Ok returns a successful Result.
func Ok(output string) Result {
	return Result{Output: output}
}

// Err returns a failed Result.
func Err(err error) Result {
	return Result{Err: err}
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Message returns the failure message, or "" on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// String returns the plain-text form: the output on success, "Error: <message>" otherwise.
func (r Result) String() string {
	if r.Err != nil {
		return ErrorPrefix + r.Err.Error()
	}
	return r.Output
}

// Record is the structured form handed to the orchestration layer.
type Record struct {
	Output string `json:"output"`
}

// Record returns the structured form of r.
func (r Result) Record() Record {
	return Record{Output: r.String()}
}

// MarshalJSON encodes r as its Record.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Record())
}

// CountError reports an input whose field count differs from the declared parameter count.
type CountError struct {
	Want int
	Got  int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("Expected %d comma-separated values, got %d", e.Want, e.Got)
}

// CoercionError reports a field that could not be converted to its parameter's kind.
// Position is 1-based.
type CoercionError struct {
	Position int
	Param    string
	Value    string
	Kind     Kind
	Err      error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("field %d (%s): cannot parse %q as %s", e.Position, e.Param, e.Value, e.Kind)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// InvocationError wraps an error returned, or a panic raised, by the target function.
type InvocationError struct {
	Err      error
	Panicked bool
}

func (e *InvocationError) Error() string {
	return e.Err.Error()
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
