package envgate

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/shopspring/decimal"
	"k8s.io/apimachinery/pkg/api/resource"
)

// ParserFunc takes the raw string and returns the parsed value or an error.
type ParserFunc func(raw string) (any, error)

// ParserFactory generates a parser function for a given type, or returns nil if not supported.
type ParserFactory func(t reflect.Type) ParserFunc

// registry of explicit parsers
var customParsers = make(map[reflect.Type]ParserFunc)

// registry of parser factories (checked in order)
var parserFactories []ParserFactory

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// RegisterParser lets users plug in custom type parsers used by Of.
// Call this in your init() or main() before Create.
func RegisterParser(typ reflect.Type, fn ParserFunc) {
	customParsers[typ] = fn
}

// RegisterParserFactory lets users plug in factory functions that can generate
// parsers for entire categories of types (e.g., anything implementing TextUnmarshaler).
// Explicit parsers win over factories; factories are checked in registration order.
func RegisterParserFactory(factory ParserFactory) {
	parserFactories = append(parserFactories, factory)
}

// register adds a parser for T and for *T.
func register[T any](parse func(raw string) (T, error)) {
	var zero T
	RegisterParser(reflect.TypeOf(zero), func(raw string) (any, error) {
		return parse(raw)
	})
	RegisterParser(reflect.TypeOf(&zero), func(raw string) (any, error) {
		v, err := parse(raw)
		if err != nil {
			return nil, err
		}
		return &v, nil
	})
}

// lookupParser checks explicit parsers first, then factories.
func lookupParser(t reflect.Type) (ParserFunc, bool) {
	if fn, ok := customParsers[t]; ok {
		return fn, true
	}
	for _, factory := range parserFactories {
		if fn := factory(t); fn != nil {
			return fn, true
		}
	}
	return nil, false
}

// parseValue parses a raw environment string into a value of type t.
// Slices without a dedicated parser are read as comma-separated lists.
func parseValue(raw string, t reflect.Type) (any, error) {
	if fn, ok := lookupParser(t); ok {
		return fn(raw)
	}

	if t.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(t, 0, 0)
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			elem, err := parseValue(part, t.Elem())
			if err != nil {
				return nil, err
			}
			slice = reflect.Append(slice, reflect.ValueOf(elem).Convert(t.Elem()))
		}
		return slice.Interface(), nil
	}

	v, err := parseScalar(raw, t.Kind(), getBits(t))
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(v).Convert(t).Interface(), nil
}

// parseScalar parses a string value into the appropriate type based on reflect.Kind
func parseScalar(raw string, kind reflect.Kind, bits int) (any, error) {
	switch kind {
	case reflect.String:
		return raw, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", raw)
		}
		return b, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, bits)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return nil, fmt.Errorf("invalid unsigned integer %q", raw)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, bits)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported scalar kind %s", kind)
	}
}

// getBits safely returns the bit size for numeric types, 0 for others
func getBits(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return t.Bits()
	default:
		return 0
	}
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0), nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: must be RFC3339 format or Unix seconds", raw)
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	if level, err := strconv.Atoi(raw); err == nil {
		return slog.Level(level), nil
	}
	return 0, fmt.Errorf("invalid slog level %q: must be debug|info|warn|error or integer", raw)
}

// decodePEMKey decodes a PEM block and returns the key found in it.
// PKCS#1/SEC1 blocks go through legacy, "PRIVATE KEY" blocks through PKCS#8.
func decodePEMKey[K any](raw, name, legacyType string, legacy func([]byte) (K, error)) (K, error) {
	var zero K
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return zero, fmt.Errorf("invalid PEM format for %s private key", name)
	}

	switch block.Type {
	case legacyType:
		key, err := legacy(block.Bytes)
		if err != nil {
			return zero, fmt.Errorf("failed to parse %s private key: %w", name, err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return zero, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
		}
		key, ok := parsed.(K)
		if !ok {
			return zero, fmt.Errorf("PKCS#8 key is not an %s private key", name)
		}
		return key, nil
	default:
		return zero, fmt.Errorf("unsupported PEM block type for %s private key: %s", name, block.Type)
	}
}

func init() {
	// TextUnmarshaler factory first: this unlocks uuid.UUID, netip.Addr and most third-party value types
	RegisterParserFactory(func(t reflect.Type) ParserFunc {
		target := t
		if t.Kind() == reflect.Pointer {
			target = t.Elem()
		}
		if !reflect.PointerTo(target).Implements(textUnmarshalerType) {
			return nil
		}
		return func(raw string) (any, error) {
			v := reflect.New(target).Interface().(encoding.TextUnmarshaler)
			if err := v.UnmarshalText([]byte(raw)); err != nil {
				return nil, fmt.Errorf("failed to unmarshal text: %w", err)
			}
			if t.Kind() == reflect.Pointer {
				return v, nil
			}
			return reflect.ValueOf(v).Elem().Interface(), nil
		}
	})

	register(func(raw string) (url.URL, error) {
		u, err := url.Parse(raw)
		if err != nil {
			return url.URL{}, fmt.Errorf("invalid URL %q: %w", raw, err)
		}
		return *u, nil
	})

	register(func(raw string) (time.Duration, error) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		return d, nil
	})

	register(parseTime)
	register(parseLevel)

	// big.Int implements TextUnmarshaler but also accepts 0x/0b prefixes; keep it base-10
	register(func(raw string) (big.Int, error) {
		var bi big.Int
		if _, ok := bi.SetString(raw, 10); !ok {
			return big.Int{}, fmt.Errorf("invalid big.Int %q: must be base-10 integer", raw)
		}
		return bi, nil
	})

	register(func(raw string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("invalid decimal %q: %w", raw, err)
		}
		return d, nil
	})

	// net.IP is a []byte, so it needs explicit handling
	register(func(raw string) (net.IP, error) {
		ip := net.ParseIP(raw)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address %q", raw)
		}
		return ip, nil
	})

	register(func(raw string) (mail.Address, error) {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return mail.Address{}, fmt.Errorf("invalid email address %q: %w", raw, err)
		}
		return *addr, nil
	})

	register(func(raw string) (resource.Quantity, error) {
		q, err := resource.ParseQuantity(raw)
		if err != nil {
			return resource.Quantity{}, fmt.Errorf("invalid k8s quantity %q: %w", raw, err)
		}
		return q, nil
	})

	// Private keys are only meaningful as pointers.
	RegisterParser(reflect.TypeOf(&rsa.PrivateKey{}), func(raw string) (any, error) {
		return decodePEMKey(raw, "RSA", "RSA PRIVATE KEY", x509.ParsePKCS1PrivateKey)
	})
	RegisterParser(reflect.TypeOf(&ecdsa.PrivateKey{}), func(raw string) (any, error) {
		return decodePEMKey(raw, "ECDSA", "EC PRIVATE KEY", x509.ParseECPrivateKey)
	})

	RegisterParser(reflect.TypeOf(&vm.Program{}), func(raw string) (any, error) {
		program, err := expr.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression %q: %w", raw, err)
		}
		return program, nil
	})
}
