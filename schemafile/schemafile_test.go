package schemafile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivaneiona/envgate"
)

const sample = `
clientPrefix: PUBLIC_
emptyStringAsUndefined: true
server:
  DATABASE_URL:
    type: url
    secret: true
    description: primary database
  PORT:
    type: int
    default: "8080"
    rules:
      - expr: value > 0 && value < 65536
        message: port out of range
  TIMEOUT:
    type: duration
    optional: true
client:
  PUBLIC_NAME:
    nonEmpty: true
shared:
  APP_ENV:
    type: enum
    values: [development, production, test]
    default: development
`

func TestParseAndCreate(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "PUBLIC_", f.ClientPrefix)
	assert.True(t, f.EmptyStringAsUndefined)

	opts, err := f.Options()
	require.NoError(t, err)
	opts.IsServer = envgate.BoolPtr(true)
	opts.RuntimeEnv = envgate.RawEnv{
		"DATABASE_URL": "postgres://db/app",
		"PORT":         "",
		"PUBLIC_NAME":  "demo",
	}

	env, err := envgate.Create(opts)
	require.NoError(t, err)

	port, err := envgate.Value[int](env, "PORT")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	timeout, err := envgate.Value[time.Duration](env, "TIMEOUT")
	require.NoError(t, err)
	assert.Zero(t, timeout)

	assert.Equal(t, "development", env.MustGet("APP_ENV"))

	secrets := envgate.SecretVars(opts)
	require.Len(t, secrets, 1)
	assert.Equal(t, "DATABASE_URL", secrets[0].Name)
	assert.Equal(t, "primary database", secrets[0].Description)
}

func TestRulesAreApplied(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	opts, err := f.Options()
	require.NoError(t, err)

	opts.IsServer = envgate.BoolPtr(true)
	opts.RuntimeEnv = envgate.RawEnv{"DATABASE_URL": "postgres://db/app", "PORT": "70000", "PUBLIC_NAME": ""}
	opts.OnValidationError = func(verr *envgate.ValidationError) error { return verr }

	_, err = envgate.Create(opts)
	var verr *envgate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"port out of range"}, verr.Issues["PORT"])
	// empty PUBLIC_NAME is dropped and then reported as missing
	assert.Equal(t, []string{envgate.ErrRequired.Error()}, verr.Issues["PUBLIC_NAME"])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("server:\n  A:\n    typo: int\n"))
	assert.Error(t, err)

	f, err := Parse([]byte("server:\n  A:\n    type: float128\n  B:\n    type: enum\n"))
	require.NoError(t, err)
	_, err = f.Options()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `A: unknown type "float128"`)
	assert.Contains(t, err.Error(), "B: enum requires values")
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	opts, err := f.Options()
	require.NoError(t, err)
	assert.Empty(t, envgate.Describe(opts))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Server, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEveryTypeBuilds(t *testing.T) {
	for _, name := range Types() {
		_, err := VarSpec{Type: name}.Schema()
		assert.NoError(t, err, name)
	}
}
