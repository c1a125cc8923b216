package envgate

import (
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
)

// RawEnv is an unvalidated source of environment values. Values are strings,
// booleans, numbers or nil.
type RawEnv map[string]any

// Keys returns the keys of e in sorted order.
func (e RawEnv) Keys() []string {
	return slices.Sorted(maps.Keys(e))
}

// FromProcess returns a snapshot of the process environment.
func FromProcess() RawEnv {
	environ := os.Environ()
	env := make(RawEnv, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		// Windows keeps per-drive working directories as "=C:=C:\dir"
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// FromDotenv reads .env files with godotenv without touching the process
// environment. It defaults to ".env" in the current directory; when several
// files are given, later files override earlier ones.
func FromDotenv(paths ...string) (RawEnv, error) {
	values, err := godotenv.Read(paths...)
	if err != nil {
		return nil, err
	}
	env := make(RawEnv, len(values))
	for k, v := range values {
		env[k] = v
	}
	return env, nil
}

// Overlay merges layers into a new RawEnv; later layers override earlier ones.
//
// Example:
//
//	dotenv, _ := envgate.FromDotenv()
//	raw := envgate.Overlay(dotenv, envgate.FromProcess()) // process env wins
func Overlay(layers ...RawEnv) RawEnv {
	out := make(RawEnv)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}

// resolveSource picks the raw values to validate: the strict mapping, the loose
// mapping, or the process environment. It never mutates caller maps.
func resolveSource(opts *Options) RawEnv {
	var env RawEnv
	switch {
	case opts.RuntimeEnvStrict != nil:
		env = maps.Clone(opts.RuntimeEnvStrict)
	case opts.RuntimeEnv != nil:
		env = maps.Clone(opts.RuntimeEnv)
	default:
		env = FromProcess()
	}

	if opts.EmptyStringAsUndefined {
		dropEmptyStrings(env)
	}
	return env
}

// dropEmptyStrings deletes every key whose value is the empty string, so
// defaults apply and required checks report the variable as missing.
func dropEmptyStrings(env RawEnv) {
	maps.DeleteFunc(env, func(_ string, v any) bool {
		s, ok := v.(string)
		return ok && s == ""
	})
}
