// Package envgate validates environment variables against declared schemas and
// returns a read-only view that keeps server-only values away from client code.
//
// Applications with a client/server split (isomorphic web apps, WebAssembly
// front-ends sharing configuration code with their backend) declare three groups
// of variables:
//
//   - Server: server-only variables (database URLs, API secrets)
//   - Client: variables exposed to client code; every key carries the client prefix
//   - Shared: unprefixed variables readable everywhere (APP_ENV, NODE_ENV)
//
// Create validates the environment once and returns an *Env. On the server every
// variable is validated and readable; on the client only client and shared
// variables are validated, and reading anything else goes through the
// access-denial handler.
//
// # Quick Start
//
//	env, err := envgate.Create(envgate.Options{
//	    Server: envgate.Group{
//	        "DATABASE_URL": envgate.URL().Secret(),
//	        "PORT":         envgate.Int().Default(8080),
//	        "LOG_LEVEL":    envgate.LogLevel().Default("info"),
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
//	slog.Info("environment loaded", "env", env.PrettyString())
//
// # Schemas
//
// A Schema parses one raw value. Var is the stock implementation:
//
//   - Basic types: String, Int, Number, Bool, OneOf
//   - Time types: Duration, Time
//   - Network types: URL, IP, Email
//   - Specialized types: UUID, Decimal, BigInt, LogLevel, Quantity (Kubernetes units)
//   - Crypto types: RSAPrivateKey, ECDSAPrivateKey (from PEM format)
//   - Expression language: Program (expr-lang/expr)
//   - Of[T]: any registered type, encoding.TextUnmarshaler, scalar kinds and CSV slices
//
// Modifiers: Default, Optional, NonEmpty, Secret, Describe and Check, which adds an
// expr-lang rule evaluated against the parsed value:
//
//	envgate.Int().Default(8080).Check("value > 0 && value < 65536", "port out of range")
//
// Transform wraps any schema with a post-parse function. Custom types are plugged
// in with RegisterParser and RegisterParserFactory.
//
// # Sources
//
// Raw values come from Options.RuntimeEnvStrict, Options.RuntimeEnv or a snapshot
// of the process environment. FromDotenv and Overlay build sources from .env files:
//
//	dotenv, _ := envgate.FromDotenv(".env", ".env.local")
//	opts.RuntimeEnv = envgate.Overlay(dotenv, envgate.FromProcess())
//
// # Errors
//
// Create returns a *ConfigError for declarations that can never be valid (client
// keys without the prefix, server keys with it, strict sources that don't match
// the declared keys) and, by default, a *ValidationError listing every invalid
// variable. Reads denied by the access guard return an *AccessError. Use
// errors.Is with ErrInvalidConfig, ErrInvalidEnv and ErrInvalidAccess.
package envgate
