// Package schemafile declares envgate variable groups in YAML, for tooling that
// checks an environment without compiling the application's Go declarations.
//
// Example file:
//
//	clientPrefix: PUBLIC_
//	emptyStringAsUndefined: true
//	server:
//	  DATABASE_URL:
//	    type: url
//	    secret: true
//	  PORT:
//	    type: int
//	    default: "8080"
//	    rules:
//	      - expr: value > 0 && value < 65536
//	        message: port out of range
//	client:
//	  PUBLIC_API_URL:
//	    type: url
//	shared:
//	  APP_ENV:
//	    type: enum
//	    values: [development, production, test]
//	    default: development
package schemafile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/vivaneiona/envgate"
	"gopkg.in/yaml.v3"
)

// File is a parsed schema file.
type File struct {
	ClientPrefix           string             `yaml:"clientPrefix"`
	EmptyStringAsUndefined bool               `yaml:"emptyStringAsUndefined"`
	Server                 map[string]VarSpec `yaml:"server"`
	Client                 map[string]VarSpec `yaml:"client"`
	Shared                 map[string]VarSpec `yaml:"shared"`
}

// VarSpec declares a single variable.
type VarSpec struct {
	Type        string   `yaml:"type"`
	Default     *string  `yaml:"default"`
	Optional    bool     `yaml:"optional"`
	Secret      bool     `yaml:"secret"`
	NonEmpty    bool     `yaml:"nonEmpty"`
	Description string   `yaml:"description"`
	Values      []string `yaml:"values"`
	Rules       []Rule   `yaml:"rules"`
}

// Rule is an expr-lang check, see envgate.Var.Check.
type Rule struct {
	Expr    string `yaml:"expr"`
	Message string `yaml:"message"`
}

// constructors maps the type names accepted in schema files to schemas.
var constructors = map[string]func() *envgate.Var{
	"string":   envgate.String,
	"int":      envgate.Int,
	"number":   envgate.Number,
	"bool":     envgate.Bool,
	"url":      envgate.URL,
	"duration": envgate.Duration,
	"time":     envgate.Time,
	"uuid":     envgate.UUID,
	"decimal":  envgate.Decimal,
	"bigint":   envgate.BigInt,
	"quantity": envgate.Quantity,
	"ip":       envgate.IP,
	"email":    envgate.Email,
	"loglevel": envgate.LogLevel,
	"expr":     envgate.Program,
	"rsa":      envgate.RSAPrivateKey,
	"ecdsa":    envgate.ECDSAPrivateKey,
	"strings":  envgate.Of[[]string],
	"ints":     envgate.Of[[]int],
}

// Types returns the type names accepted in schema files, sorted.
func Types() []string {
	return slices.Sorted(maps.Keys(constructors))
}

// Load reads and parses the schema file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses a schema file. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse schema file: %w", err)
	}
	return &f, nil
}

// Schema builds the envgate schema declared by s.
func (s VarSpec) Schema() (*envgate.Var, error) {
	var v *envgate.Var
	switch s.Type {
	case "enum":
		if len(s.Values) == 0 {
			return nil, errors.New("enum requires values")
		}
		v = envgate.OneOf(s.Values...)
	case "":
		v = envgate.String()
	default:
		ctor, ok := constructors[s.Type]
		if !ok {
			return nil, fmt.Errorf("unknown type %q", s.Type)
		}
		v = ctor()
	}

	if s.Default != nil {
		v = v.Default(*s.Default)
	}
	if s.Optional {
		v = v.Optional()
	}
	if s.Secret {
		v = v.Secret()
	}
	if s.NonEmpty {
		v = v.NonEmpty()
	}
	if s.Description != "" {
		v = v.Describe(s.Description)
	}
	for _, r := range s.Rules {
		v = v.Check(r.Expr, r.Message)
	}
	return v, nil
}

func group(specs map[string]VarSpec) (envgate.Group, error) {
	g := make(envgate.Group, len(specs))
	var errs []error
	for _, key := range slices.Sorted(maps.Keys(specs)) {
		schema, err := specs[key].Schema()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		g[key] = schema
	}
	return g, errors.Join(errs...)
}

// Options converts the file into envgate options. Sources, context and
// handlers are left for the caller to set.
func (f *File) Options() (envgate.Options, error) {
	server, serverErr := group(f.Server)
	client, clientErr := group(f.Client)
	shared, sharedErr := group(f.Shared)
	if err := errors.Join(serverErr, clientErr, sharedErr); err != nil {
		return envgate.Options{}, err
	}

	return envgate.Options{
		Server:                 server,
		Client:                 client,
		Shared:                 shared,
		ClientPrefix:           f.ClientPrefix,
		EmptyStringAsUndefined: f.EmptyStringAsUndefined,
	}, nil
}
