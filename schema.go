package envgate

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/mail"
	"net/url"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"k8s.io/apimachinery/pkg/api/resource"
)

// ErrRequired is reported for a declared variable that is missing and has no default.
var ErrRequired = errors.New("required variable is not set")

// Schema validates and transforms a single raw environment value.
//
// present is false when the variable is absent from the source (or nil).
// A returned error made with errors.Join is reported as one issue per joined error.
type Schema interface {
	Parse(raw any, present bool) (any, error)
}

// Group maps variable names to their schemas.
type Group map[string]Schema

// Describer is implemented by schemas that can report their declaration metadata.
type Describer interface {
	Info() VarInfo
}

// VarInfo is the declaration metadata of a single variable schema.
type VarInfo struct {
	Type        string // Go type name of the parsed value
	Default     string // Default value, formatted
	Required    bool   // Missing values fail validation
	Secret      bool   // Value is masked in PrettyString output
	Description string
}

// rule is a boolean expr-lang expression evaluated against the parsed value.
type rule struct {
	source  string
	message string
	program *vm.Program
	err     error
}

// Var is the stock Schema implementation. Builder methods return a modified
// copy, so a base schema can be shared between declarations.
//
// Example:
//
//	envgate.Group{
//	    "PORT":         envgate.Int().Default(8080).Check("value > 0 && value < 65536", "port out of range"),
//	    "DATABASE_URL": envgate.URL().Secret(),
//	    "LOG_LEVEL":    envgate.LogLevel().Default("info"),
//	}
type Var struct {
	typeName    string
	parse       func(raw any) (any, error)
	def         any
	hasDefault  bool
	optional    bool
	secret      bool
	nonEmpty    bool
	description string
	rules       []rule
}

func (v *Var) clone() *Var {
	c := *v
	c.rules = slices.Clone(v.rules)
	return &c
}

// Default sets the raw value used when the variable is absent.
// The default goes through the same parsing and rules as an environment value.
func (v *Var) Default(raw any) *Var {
	c := v.clone()
	c.def = raw
	c.hasDefault = true
	return c
}

// Optional lets the variable be absent; its value is then nil.
func (v *Var) Optional() *Var {
	c := v.clone()
	c.optional = true
	return c
}

// Secret marks the value to be masked in PrettyString output.
func (v *Var) Secret() *Var {
	c := v.clone()
	c.secret = true
	return c
}

// NonEmpty rejects the empty string.
func (v *Var) NonEmpty() *Var {
	c := v.clone()
	c.nonEmpty = true
	return c
}

// Describe attaches a human readable description, reported by Describe.
func (v *Var) Describe(text string) *Var {
	c := v.clone()
	c.description = text
	return c
}

// Check adds an expr-lang rule evaluated after parsing, with the parsed value
// bound to `value`. The rule must evaluate to true; otherwise message is reported
// (or a generic message when message is empty).
//
//	envgate.String().Check(`value startsWith "sk_"`, "must be a secret key")
//	envgate.Int().Check("value >= 1 && value <= 64", "")
func (v *Var) Check(expression, message string) *Var {
	c := v.clone()
	program, err := expr.Compile(expression)
	c.rules = append(c.rules, rule{source: expression, message: message, program: program, err: err})
	return c
}

// Info implements Describer.
func (v *Var) Info() VarInfo {
	info := VarInfo{
		Type:        v.typeName,
		Required:    !v.hasDefault && !v.optional,
		Secret:      v.secret,
		Description: v.description,
	}
	if v.hasDefault {
		info.Default = fmt.Sprint(v.def)
	}
	return info
}

// Parse implements Schema.
func (v *Var) Parse(raw any, present bool) (any, error) {
	if !present || raw == nil {
		switch {
		case v.hasDefault:
			raw = v.def
		case v.optional:
			return nil, nil
		default:
			return nil, ErrRequired
		}
	}

	if s, ok := raw.(string); ok && s == "" && v.nonEmpty {
		return nil, errors.New("must not be empty")
	}

	value, err := v.parse(raw)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, r := range v.rules {
		if err := r.eval(value); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return value, nil
}

func (r rule) eval(value any) error {
	if r.err != nil {
		return fmt.Errorf("invalid rule %q: %w", r.source, r.err)
	}
	out, err := expr.Run(r.program, map[string]any{"value": value})
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.source, err)
	}
	if ok, _ := out.(bool); ok {
		return nil
	}
	if r.message != "" {
		return errors.New(r.message)
	}
	return fmt.Errorf("does not satisfy %q", r.source)
}

// Of returns a schema for any type known to the parser registry: the built-in
// types, types registered with RegisterParser or RegisterParserFactory,
// encoding.TextUnmarshaler implementations, scalar kinds and slices of those
// (read as comma-separated lists).
//
// Values that already have type T are accepted as-is; other non-string values
// are formatted with fmt.Sprint and parsed.
func Of[T any]() *Var {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return &Var{typeName: t.String(), parse: registryParser(t)}
}

func registryParser(t reflect.Type) func(raw any) (any, error) {
	return func(raw any) (any, error) {
		if reflect.TypeOf(raw) == t {
			return raw, nil
		}
		s, ok := raw.(string)
		if !ok {
			s = fmt.Sprint(raw)
		}
		return parseValue(s, t)
	}
}

func named[T any](name string) *Var {
	v := Of[T]()
	v.typeName = name
	return v
}

// String accepts string values only.
func String() *Var {
	return &Var{typeName: "string", parse: func(raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, received %T", raw)
		}
		return s, nil
	}}
}

// Int parses a base-10 integer into an int.
func Int() *Var { return named[int]("int") }

// Number parses a number into a float64.
func Number() *Var { return named[float64]("number") }

// Bool parses a boolean (strconv.ParseBool syntax).
func Bool() *Var { return named[bool]("bool") }

// URL parses a *url.URL.
func URL() *Var { return Of[*url.URL]() }

// Duration parses a time.Duration ("30s", "1h5m").
func Duration() *Var { return Of[time.Duration]() }

// Time parses a time.Time from RFC3339 or Unix seconds.
func Time() *Var { return Of[time.Time]() }

// UUID parses a uuid.UUID.
func UUID() *Var { return Of[uuid.UUID]() }

// Decimal parses an exact decimal.Decimal.
func Decimal() *Var { return Of[decimal.Decimal]() }

// BigInt parses a base-10 *big.Int.
func BigInt() *Var { return Of[*big.Int]() }

// Quantity parses a Kubernetes resource.Quantity ("250m", "1.5Gi").
func Quantity() *Var { return Of[resource.Quantity]() }

// IP parses a net.IP (v4 or v6).
func IP() *Var { return Of[net.IP]() }

// Email parses a *mail.Address with an optional display name.
func Email() *Var { return Of[*mail.Address]() }

// LogLevel parses a slog.Level (debug|info|warn|error or integer).
func LogLevel() *Var { return Of[slog.Level]() }

// Program compiles an expr-lang expression into a *vm.Program.
func Program() *Var { return Of[*vm.Program]() }

// RSAPrivateKey parses a PEM encoded *rsa.PrivateKey (PKCS#1 or PKCS#8).
func RSAPrivateKey() *Var { return Of[*rsa.PrivateKey]() }

// ECDSAPrivateKey parses a PEM encoded *ecdsa.PrivateKey (SEC1 or PKCS#8).
func ECDSAPrivateKey() *Var { return Of[*ecdsa.PrivateKey]() }

// OneOf accepts one of the given string values.
func OneOf(values ...string) *Var {
	allowed := slices.Clone(values)
	return &Var{typeName: "enum(" + strings.Join(allowed, "|") + ")", parse: func(raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, received %T", raw)
		}
		if !slices.Contains(allowed, s) {
			return nil, fmt.Errorf("expected one of %q, received %q", allowed, s)
		}
		return s, nil
	}}
}

// transformed applies fn to the output of an inner schema.
type transformed struct {
	inner Schema
	fn    func(any) (any, error)
}

// Transform runs fn on every non-nil value produced by s. The transform output
// is the final value of the variable; a transform error is reported as an issue.
//
//	envgate.Transform(envgate.String(), func(v any) (any, error) {
//	    return strings.Split(v.(string), ":"), nil
//	})
func Transform(s Schema, fn func(any) (any, error)) Schema {
	return transformed{inner: s, fn: fn}
}

func (t transformed) Parse(raw any, present bool) (any, error) {
	v, err := t.inner.Parse(raw, present)
	if err != nil || v == nil {
		return v, err
	}
	return t.fn(v)
}

func (t transformed) Info() VarInfo {
	return describe(t.inner)
}

// describe returns the metadata of s, or a minimal description for schemas that
// don't implement Describer.
func describe(s Schema) VarInfo {
	if d, ok := s.(Describer); ok {
		return d.Info()
	}
	return VarInfo{Type: fmt.Sprintf("%T", s), Required: true}
}
