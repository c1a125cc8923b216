// Package vite adapts envgate to the Vite convention: client variables are
// prefixed with VITE_ and values come from the mode specific .env files.
package vite

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/vivaneiona/envgate"
)

// ClientPrefix is the prefix Vite exposes to client code.
const ClientPrefix = "VITE_"

// Options configures Create.
type Options struct {
	Server envgate.Group
	Client envgate.Group
	Shared envgate.Group

	// Mode selects .env.[mode] files ("development", "production", ...).
	Mode string
	// Dir holds the .env files. Defaults to the current directory.
	Dir string

	IsServer               *bool
	Detector               envgate.Detector
	SkipValidation         bool
	EmptyStringAsUndefined bool
	OnValidationError      func(*envgate.ValidationError) error
	OnInvalidAccess        func(key string) error
	Logger                 *slog.Logger
}

// Files returns the .env files of mode in increasing priority.
func Files(dir, mode string) []string {
	names := []string{".env", ".env.local"}
	if mode != "" {
		names = append(names, ".env."+mode, ".env."+mode+".local")
	}
	files := make([]string, len(names))
	for i, name := range names {
		files[i] = filepath.Join(dir, name)
	}
	return files
}

// Load reads the .env files of mode, skipping missing ones, and overlays the
// process environment, which always wins.
func Load(dir, mode string) (envgate.RawEnv, error) {
	layers := make([]envgate.RawEnv, 0, 5)
	for _, path := range Files(dir, mode) {
		layer, err := envgate.FromDotenv(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	layers = append(layers, envgate.FromProcess())
	return envgate.Overlay(layers...), nil
}

// Create validates the environment loaded for opts.Mode with the VITE_ prefix.
func Create(opts Options) (*envgate.Env, error) {
	raw, err := Load(opts.Dir, opts.Mode)
	if err != nil {
		return nil, err
	}

	return envgate.Create(envgate.Options{
		Server:                 opts.Server,
		Client:                 opts.Client,
		Shared:                 opts.Shared,
		ClientPrefix:           ClientPrefix,
		RuntimeEnv:             raw,
		IsServer:               opts.IsServer,
		Detector:               opts.Detector,
		SkipValidation:         opts.SkipValidation,
		EmptyStringAsUndefined: opts.EmptyStringAsUndefined,
		OnValidationError:      opts.OnValidationError,
		OnInvalidAccess:        opts.OnInvalidAccess,
		Logger:                 opts.Logger,
	})
}
