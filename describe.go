package envgate

import (
	"crypto"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/expr-lang/expr/vm"
)

// VarSetting represents metadata about a declared variable
type VarSetting struct {
	Name        string // Environment variable name
	Group       string // "server", "client" or "shared"
	Type        string // Go type name of the parsed value
	Default     string // Default value, formatted
	Required    bool   // Whether the variable must be set
	Secret      bool   // Whether the variable is masked in output
	Description string
}

// Describe returns metadata about every variable declared in opts, grouped
// server, shared, client and sorted by name within a group.
func Describe(opts Options) []VarSetting {
	var settings []VarSetting
	for _, g := range []struct {
		name  string
		group Group
	}{
		{"server", opts.Server},
		{"shared", opts.Shared},
		{"client", opts.Client},
	} {
		for _, key := range slices.Sorted(maps.Keys(g.group)) {
			info := describe(g.group[key])
			settings = append(settings, VarSetting{
				Name:        key,
				Group:       g.name,
				Type:        info.Type,
				Default:     info.Default,
				Required:    info.Required,
				Secret:      info.Secret,
				Description: info.Description,
			})
		}
	}
	return settings
}

// FilterSettings returns settings matching the given predicate function
func FilterSettings(settings []VarSetting, predicate func(VarSetting) bool) []VarSetting {
	var filtered []VarSetting
	for _, setting := range settings {
		if predicate(setting) {
			filtered = append(filtered, setting)
		}
	}
	return filtered
}

// SecretVars returns all variables marked as secrets
func SecretVars(opts Options) []VarSetting {
	return FilterSettings(Describe(opts), func(s VarSetting) bool {
		return s.Secret
	})
}

// RequiredVars returns all required variables
func RequiredVars(opts Options) []VarSetting {
	return FilterSettings(Describe(opts), func(s VarSetting) bool {
		return s.Required
	})
}

// mask returns a masked version of the secret string.
// It keeps the first 3 characters visible and replaces the rest with asterisks.
// For strings with 3 or fewer characters, all characters are replaced with asterisks.
//
// Examples:
//   - mask("") returns ""
//   - mask("a") returns "*"
//   - mask("abc") returns "***"
//   - mask("secret123") returns "sec******"
func mask(secret string) string {
	const keep = 3
	n := len(secret)
	if n <= keep {
		return strings.Repeat("*", n)
	}
	return secret[:keep] + strings.Repeat("*", n-keep)
}

// maskURLPassword hides the password of a URL for safe logging
func maskURLPassword(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			masked := *u
			masked.User = url.UserPassword(u.User.Username(), "***")
			return masked.String()
		}
	}
	return u.String()
}

// safeValue returns a JSON friendly representation of v with secrets masked.
func safeValue(v any, secret bool) any {
	if secret {
		switch s := v.(type) {
		case nil:
			return nil
		case string:
			return mask(s)
		default:
			return "***"
		}
	}

	switch u := v.(type) {
	case url.URL:
		return maskURLPassword(&u)
	case *url.URL:
		return maskURLPassword(u)
	case *vm.Program:
		if u == nil {
			return nil
		}
		return u.Source().String()
	case interface{ Public() crypto.PublicKey }:
		// private keys are never printed, secret or not
		return "***"
	case fmt.Stringer:
		return u.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = safeValue(rv.Index(i).Interface(), false)
		}
		return out
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("<%T>", v)
	}
	return v
}

// PrettyString returns a JSON-formatted representation of the readable values
// with Secret variables masked and URL passwords hidden, for safe logging.
//
// Example:
//
//	slog.Info("environment loaded", "env", env.PrettyString())
//	// {"API_KEY": "sk_*******", "DATABASE_URL": "postgres://app:***@db:5432/app", "PORT": 8080}
func (e *Env) PrettyString() string {
	values := e.Map()
	obj := make(map[string]any, len(values))
	for k, v := range values {
		_, secret := e.secrets[k]
		obj[k] = safeValue(v, secret)
	}
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Sprintf("error pretty-printing environment: %v", err)
	}
	return string(b)
}
