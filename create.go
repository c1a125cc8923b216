package envgate

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
)

// Options configures Create.
type Options struct {
	// Server holds server-only variables.
	Server Group
	// Client holds variables exposed to client code. Every key must start with ClientPrefix.
	Client Group
	// Shared holds variables readable in both contexts that are not prefixed,
	// often provided by the build tooling (NODE_ENV, APP_ENV, ...).
	Shared Group

	// ClientPrefix is the prefix of client variables. Empty disables the access guard.
	ClientPrefix string

	// RuntimeEnv is the source of raw values. Missing keys surface as validation issues.
	RuntimeEnv RawEnv
	// RuntimeEnvStrict is like RuntimeEnv but must hold exactly the declared keys.
	RuntimeEnvStrict RawEnv

	// IsServer overrides the execution context. When nil, Detector decides.
	IsServer *bool
	// Detector infers the execution context. Defaults to RuntimeDetector.
	Detector Detector

	// SkipValidation returns the raw values unparsed. The access guard still applies.
	SkipValidation bool
	// EmptyStringAsUndefined drops empty strings from the source before validation,
	// so `PORT=` in a .env file falls back to the default instead of failing.
	EmptyStringAsUndefined bool

	// OnValidationError is called when validation fails; its error is returned by Create.
	// The default logs the issues and returns the *ValidationError.
	OnValidationError func(*ValidationError) error
	// OnInvalidAccess is called when a server-only variable is read in client context;
	// its error is returned by the read. The default returns an *AccessError.
	OnInvalidAccess func(key string) error

	// Logger is used by the default OnValidationError. Defaults to slog.Default().
	Logger *slog.Logger
}

// BoolPtr returns a pointer to b, for Options.IsServer.
func BoolPtr(b bool) *bool { return &b }

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid envgate configuration")

// ConfigError reports declarations that can never produce a correct Env.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// KeyMismatch compares the keys of raw with the keys declared by groups and
// returns one problem per missing or undeclared key.
func KeyMismatch(raw RawEnv, groups ...Group) []string {
	declared := merge(groups...)
	var problems []string
	for _, key := range slices.Sorted(maps.Keys(declared)) {
		if _, ok := raw[key]; !ok {
			problems = append(problems, fmt.Sprintf("%s is missing from the runtime environment", key))
		}
	}
	for _, key := range raw.Keys() {
		if _, ok := declared[key]; !ok {
			problems = append(problems, fmt.Sprintf("%s is not a declared variable", key))
		}
	}
	return problems
}

// checkConfig rejects missing schemas and enforces the prefix convention and
// the strict source contract.
func checkConfig(opts *Options) error {
	var problems []string

	for _, g := range []struct {
		name  string
		group Group
	}{
		{"server", opts.Server},
		{"client", opts.Client},
		{"shared", opts.Shared},
	} {
		for _, key := range slices.Sorted(maps.Keys(g.group)) {
			if isNilSchema(g.group[key]) {
				problems = append(problems, fmt.Sprintf("%s variable %s has no schema", g.name, key))
			}
		}
	}

	if opts.ClientPrefix != "" {
		for _, key := range slices.Sorted(maps.Keys(opts.Client)) {
			if !strings.HasPrefix(key, opts.ClientPrefix) {
				problems = append(problems, fmt.Sprintf("client variable %s is not prefixed with %s", key, opts.ClientPrefix))
			}
		}
		for _, key := range slices.Sorted(maps.Keys(opts.Server)) {
			if strings.HasPrefix(key, opts.ClientPrefix) {
				problems = append(problems, fmt.Sprintf("server variable %s should not be prefixed with %s", key, opts.ClientPrefix))
			}
		}
	}

	if opts.RuntimeEnv != nil && opts.RuntimeEnvStrict != nil {
		problems = append(problems, "RuntimeEnv and RuntimeEnvStrict are mutually exclusive")
	} else if opts.RuntimeEnvStrict != nil {
		problems = append(problems, KeyMismatch(opts.RuntimeEnvStrict, opts.Server, opts.Client, opts.Shared)...)
	}

	if len(problems) > 0 {
		return &ConfigError{Problems: problems}
	}
	return nil
}

func isNilSchema(s Schema) bool {
	if s == nil {
		return true
	}
	v, ok := s.(*Var)
	return ok && v == nil
}

func (opts *Options) context() Context {
	if opts.IsServer != nil {
		if *opts.IsServer {
			return Server
		}
		return Client
	}
	if opts.Detector != nil {
		return opts.Detector.Detect()
	}
	return RuntimeDetector.Detect()
}

// Create validates the environment against the declared schemas and returns
// the guarded view over the result.
//
// On the server every declared variable is validated; on the client only client
// and shared variables are. Validation never stops at the first issue: the
// *ValidationError handed to OnValidationError lists every invalid variable.
//
// Example:
//
//	env, err := envgate.Create(envgate.Options{
//	    Server: envgate.Group{
//	        "DATABASE_URL": envgate.URL().Secret(),
//	        "PORT":         envgate.Int().Default(8080),
//	    },
//	    Client: envgate.Group{
//	        "PUBLIC_API_URL": envgate.URL(),
//	    },
//	    Shared: envgate.Group{
//	        "APP_ENV": envgate.OneOf("development", "production", "test"),
//	    },
//	    ClientPrefix:           "PUBLIC_",
//	    EmptyStringAsUndefined: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	port, _ := envgate.Value[int](env, "PORT")
func Create(opts Options) (*Env, error) {
	if err := checkConfig(&opts); err != nil {
		return nil, err
	}

	raw := resolveSource(&opts)
	ctx := opts.context()

	env := &Env{
		ctx:             ctx,
		prefix:          opts.ClientPrefix,
		shared:          make(map[string]struct{}, len(opts.Shared)),
		secrets:         make(map[string]struct{}),
		onInvalidAccess: opts.OnInvalidAccess,
	}
	for key := range opts.Shared {
		env.shared[key] = struct{}{}
	}

	effective := combine(opts.Server, opts.Client, opts.Shared).forContext(ctx)
	for key, schema := range effective {
		if describe(schema).Secret {
			env.secrets[key] = struct{}{}
		}
	}

	if opts.SkipValidation {
		env.values = raw
		return env, nil
	}

	values, verr := validate(effective, raw)
	if verr != nil {
		onValidationError := opts.OnValidationError
		if onValidationError == nil {
			logger := opts.Logger
			if logger == nil {
				logger = slog.Default()
			}
			onValidationError = logValidationError(logger)
		}
		if err := onValidationError(verr); err != nil {
			return nil, err
		}
		return nil, verr
	}

	env.values = values
	return env, nil
}

// MustCreate is like Create but panics if the environment is invalid.
func MustCreate(opts Options) *Env {
	env, err := Create(opts)
	if err != nil {
		panic(err)
	}
	return env
}
