// Package nextjs adapts envgate to the Next.js convention: client variables are
// prefixed with NEXT_PUBLIC_ and must be listed explicitly, because the bundler
// only inlines statically referenced variables into client code.
package nextjs

import (
	"log/slog"

	"github.com/vivaneiona/envgate"
)

// ClientPrefix is the prefix Next.js exposes to the browser.
const ClientPrefix = "NEXT_PUBLIC_"

// Options configures Create. Exactly one of RuntimeEnv and ExperimentalRuntimeEnv must be set.
type Options struct {
	Server envgate.Group
	Client envgate.Group
	Shared envgate.Group

	// RuntimeEnv lists every declared variable. Required for Next.js < 13.4.4.
	RuntimeEnv envgate.RawEnv
	// ExperimentalRuntimeEnv lists only the client and shared variables; server
	// variables are read from the process environment.
	ExperimentalRuntimeEnv envgate.RawEnv

	IsServer               *bool
	Detector               envgate.Detector
	SkipValidation         bool
	EmptyStringAsUndefined bool
	OnValidationError      func(*envgate.ValidationError) error
	OnInvalidAccess        func(key string) error
	Logger                 *slog.Logger
}

// Create validates the environment with the NEXT_PUBLIC_ prefix.
//
// Example:
//
//	env, err := nextjs.Create(nextjs.Options{
//	    Server: envgate.Group{"DATABASE_URL": envgate.URL()},
//	    Client: envgate.Group{"NEXT_PUBLIC_SITE_URL": envgate.URL()},
//	    ExperimentalRuntimeEnv: envgate.RawEnv{
//	        "NEXT_PUBLIC_SITE_URL": os.Getenv("NEXT_PUBLIC_SITE_URL"),
//	    },
//	})
func Create(opts Options) (*envgate.Env, error) {
	core := envgate.Options{
		Server:                 opts.Server,
		Client:                 opts.Client,
		Shared:                 opts.Shared,
		ClientPrefix:           ClientPrefix,
		IsServer:               opts.IsServer,
		Detector:               opts.Detector,
		SkipValidation:         opts.SkipValidation,
		EmptyStringAsUndefined: opts.EmptyStringAsUndefined,
		OnValidationError:      opts.OnValidationError,
		OnInvalidAccess:        opts.OnInvalidAccess,
		Logger:                 opts.Logger,
	}

	switch {
	case opts.RuntimeEnv != nil && opts.ExperimentalRuntimeEnv != nil:
		return nil, &envgate.ConfigError{Problems: []string{"RuntimeEnv and ExperimentalRuntimeEnv are mutually exclusive"}}
	case opts.RuntimeEnv != nil:
		core.RuntimeEnvStrict = opts.RuntimeEnv
	case opts.ExperimentalRuntimeEnv != nil:
		if problems := envgate.KeyMismatch(opts.ExperimentalRuntimeEnv, opts.Client, opts.Shared); len(problems) > 0 {
			return nil, &envgate.ConfigError{Problems: problems}
		}
		core.RuntimeEnv = envgate.Overlay(envgate.FromProcess(), opts.ExperimentalRuntimeEnv)
	default:
		return nil, &envgate.ConfigError{Problems: []string{"one of RuntimeEnv and ExperimentalRuntimeEnv is required"}}
	}

	return envgate.Create(core)
}
