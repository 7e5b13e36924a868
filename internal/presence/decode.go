package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is matched by every [DecodeError].
var ErrMalformed = errors.New("malformed update")

// DecodeError describes a line that could not be decoded as an update.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	return "malformed update: " + e.Reason
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformed}
	}
	return []error{ErrMalformed, e.Err}
}

// Decode parses one line of newline-delimited JSON into a Patch. Blank lines
// yield ok == false with a nil error and should be skipped. Keys that are not
// Activity fields are ignored. A value of the wrong JSON type, invalid JSON,
// or a non-object line yields a *DecodeError.
func Decode(line string) (p Patch, ok bool, err error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
	if trimmed == "" {
		return Patch{}, false, nil
	}
	if trimmed[0] != '{' {
		return Patch{}, false, &DecodeError{Reason: "expected a JSON object"}
	}
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return Patch{}, false, &DecodeError{Reason: describeJSONError(err), Err: err}
	}
	return p, true, nil
}

func describeJSONError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("field %q must be %s, got %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String()), typeErr.Value)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("invalid JSON at offset %d: %v", syntaxErr.Offset, syntaxErr)
	}
	return err.Error()
}

// jsonKind names a Go kind the way a JSON author would recognize it.
func jsonKind(kind string) string {
	switch kind {
	case "string":
		return "a string"
	case "bool":
		return "a boolean"
	case "int64":
		return "an integer"
	case "slice":
		return "an array"
	default:
		return kind
	}
}
