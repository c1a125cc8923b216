package envgate

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Context is the execution context an Env is created for.
type Context int

const (
	// Server may read every declared variable.
	Server Context = iota
	// Client may only read prefixed and shared variables.
	Client
)

func (c Context) String() string {
	if c == Client {
		return "client"
	}
	return "server"
}

// Detector infers the execution context when Options.IsServer is not set.
type Detector interface {
	Detect() Context
}

// DetectorFunc adapts a function to a Detector.
type DetectorFunc func() Context

// Detect implements Detector.
func (f DetectorFunc) Detect() Context { return f() }

// RuntimeDetector reports Client for js/wasm builds, which run in a browser,
// and Server otherwise.
var RuntimeDetector Detector = DetectorFunc(func() Context {
	if runtime.GOOS == "js" {
		return Client
	}
	return Server
})

var (
	// ErrInvalidAccess is matched by every *AccessError.
	ErrInvalidAccess = errors.New("attempted to access a server-side environment variable on the client")
	// ErrUnknownVariable is returned by Value for keys the Env doesn't hold.
	ErrUnknownVariable = errors.New("unknown environment variable")
)

// AccessError reports a read of a server-only variable in client context.
type AccessError struct {
	Key string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidAccess, e.Key)
}

func (e *AccessError) Unwrap() error { return ErrInvalidAccess }

// metaKeys are probed by generic introspection tooling and are never guarded.
var metaKeys = map[string]struct{}{
	"":           {},
	"__esModule": {},
	"$$typeof":   {},
}

// Env is the read-only, access-guarded view over validated environment values.
//
// In client context every read of a variable that is neither prefixed with the
// client prefix nor shared goes through the access-denial handler.
// An Env is never modified after Create and is safe for concurrent reads.
type Env struct {
	values          map[string]any
	ctx             Context
	prefix          string
	shared          map[string]struct{}
	secrets         map[string]struct{}
	onInvalidAccess func(key string) error
}

// Context returns the execution context the Env was created for.
func (e *Env) Context() Context { return e.ctx }

// readable reports whether key may be read in the Env's context.
func (e *Env) readable(key string) bool {
	if e.ctx == Server || e.prefix == "" || strings.HasPrefix(key, e.prefix) {
		return true
	}
	_, ok := e.shared[key]
	return ok
}

// deny invokes the access-denial handler. A handler that returns nil is not
// allowed to let the read through.
func (e *Env) deny(key string) error {
	if e.onInvalidAccess != nil {
		if err := e.onInvalidAccess(key); err != nil {
			return err
		}
	}
	return &AccessError{Key: key}
}

// Lookup returns the value of key and whether the Env holds it.
// Reading a server-only variable in client context returns the access-denial error.
func (e *Env) Lookup(key string) (any, bool, error) {
	if _, ok := metaKeys[key]; ok {
		return nil, false, nil
	}
	if !e.readable(key) {
		return nil, false, e.deny(key)
	}
	v, ok := e.values[key]
	return v, ok, nil
}

// Get returns the value of key; absent keys yield nil.
func (e *Env) Get(key string) (any, error) {
	v, _, err := e.Lookup(key)
	return v, err
}

// MustGet is like Get but panics on access denial.
func (e *Env) MustGet(key string) any {
	v, err := e.Get(key)
	if err != nil {
		panic(err)
	}
	return v
}

// Value returns the value of key as T. Optional variables that are unset yield
// the zero value of T.
//
// Example:
//
//	port, err := envgate.Value[int](env, "PORT")
func Value[T any](e *Env, key string) (T, error) {
	var zero T
	v, ok, err := e.Lookup(key)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknownVariable, key)
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("variable %s is %T, not %s", key, v, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}

// Keys returns every key held by the Env in sorted order, including keys that
// are not readable in client context.
func (e *Env) Keys() []string {
	return slices.Sorted(maps.Keys(e.values))
}

// Map returns a copy of the readable values. Unreadable keys are left out
// without invoking the access-denial handler.
func (e *Env) Map() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		if e.readable(k) {
			out[k] = v
		}
	}
	return out
}

// Decode copies the readable values into out, a pointer to a struct whose
// fields are matched by their `env` tag (or field name).
//
// Example:
//
//	var cfg struct {
//	    Port    int      `env:"PORT"`
//	    BaseURL *url.URL `env:"NEXT_PUBLIC_BASE_URL"`
//	}
//	if err := env.Decode(&cfg); err != nil { ... }
func (e *Env) Decode(out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "env",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(e.Map()); err != nil {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}
