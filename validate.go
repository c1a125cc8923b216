package envgate

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// ErrInvalidEnv is matched by every *ValidationError.
var ErrInvalidEnv = errors.New("invalid environment variables")

// ValidationError aggregates every issue found while validating the environment,
// keyed by variable name.
type ValidationError struct {
	Issues map[string][]string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(ErrInvalidEnv.Error())
	for i, key := range e.Keys() {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", key, strings.Join(e.Issues[key], ", "))
	}
	return b.String()
}

// Is reports whether target is ErrInvalidEnv.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidEnv
}

// Keys returns the names of the invalid variables in sorted order.
func (e *ValidationError) Keys() []string {
	return slices.Sorted(maps.Keys(e.Issues))
}

// Flatten returns a copy of the issue messages keyed by variable name.
func (e *ValidationError) Flatten() map[string][]string {
	out := make(map[string][]string, len(e.Issues))
	for k, v := range e.Issues {
		out[k] = slices.Clone(v)
	}
	return out
}

func (e *ValidationError) add(key string, err error) {
	if e.Issues == nil {
		e.Issues = make(map[string][]string)
	}
	if parts := joinedErrors(err); parts != nil {
		for _, inner := range parts {
			e.Issues[key] = append(e.Issues[key], inner.Error())
		}
		return
	}
	e.Issues[key] = append(e.Issues[key], err.Error())
}

// joinedErrors returns the parts of an errors.Join result, or nil for any other
// error. Wrappers with their own text, such as fmt.Errorf with several %w verbs,
// stay a single issue.
func joinedErrors(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	parts := joined.Unwrap()
	msgs := make([]string, len(parts))
	for i, part := range parts {
		msgs[i] = part.Error()
	}
	if err.Error() != strings.Join(msgs, "\n") {
		return nil
	}
	return parts
}

// validate parses every declared variable of schema from raw. Keys of raw that
// are not declared are dropped. All issues are collected before returning.
func validate(schema Group, raw RawEnv) (map[string]any, *ValidationError) {
	values := make(map[string]any, len(schema))
	verr := &ValidationError{}

	for _, key := range slices.Sorted(maps.Keys(schema)) {
		value, present := raw[key]
		parsed, err := schema[key].Parse(value, present)
		if err != nil {
			verr.add(key, err)
			continue
		}
		values[key] = parsed
	}

	if len(verr.Issues) > 0 {
		return nil, verr
	}
	return values, nil
}

// logValidationError is the default OnValidationError: it logs the flattened
// issues and returns the validation error.
func logValidationError(logger *slog.Logger) func(*ValidationError) error {
	return func(verr *ValidationError) error {
		attrs := make([]any, 0, len(verr.Issues))
		for _, key := range verr.Keys() {
			attrs = append(attrs, slog.Any(key, verr.Issues[key]))
		}
		logger.Error(ErrInvalidEnv.Error(), attrs...)
		return verr
	}
}
