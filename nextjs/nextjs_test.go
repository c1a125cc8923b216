package nextjs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vivaneiona/envgate"
)

func TestServerVarsShouldNotBePrefixed(t *testing.T) {
	_, err := Create(Options{
		Server:     envgate.Group{"NEXT_PUBLIC_BAR": envgate.String(), "BAR": envgate.String()},
		RuntimeEnv: envgate.RawEnv{"NEXT_PUBLIC_BAR": "foo", "BAR": "foo"},
	})
	require.ErrorIs(t, err, envgate.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "server variable NEXT_PUBLIC_BAR should not be prefixed with NEXT_PUBLIC_")
}

func TestClientVarsShouldBePrefixed(t *testing.T) {
	_, err := Create(Options{
		Client:     envgate.Group{"NEXT_PUBLIC_BAR": envgate.String(), "BAR": envgate.String()},
		RuntimeEnv: envgate.RawEnv{"NEXT_PUBLIC_BAR": "foo", "BAR": "foo"},
	})
	require.ErrorIs(t, err, envgate.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "client variable BAR is not prefixed with NEXT_PUBLIC_")
}

func TestRuntimeEnvEnforcesAllKeys(t *testing.T) {
	env, err := Create(Options{
		Server:     envgate.Group{"BAR": envgate.String()},
		Client:     envgate.Group{"NEXT_PUBLIC_BAR": envgate.String()},
		RuntimeEnv: envgate.RawEnv{"BAR": "foo", "NEXT_PUBLIC_BAR": "foo"},
		IsServer:   envgate.BoolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"BAR": "foo", "NEXT_PUBLIC_BAR": "foo"}, env.Map())

	_, err = Create(Options{
		Client:     envgate.Group{"NEXT_PUBLIC_BAR": envgate.String()},
		RuntimeEnv: envgate.RawEnv{"NEXT_PUBLIC_BAR": "foo", "FOO_BAZ": "baz"},
	})
	require.ErrorIs(t, err, envgate.ErrInvalidConfig)

	_, err = Create(Options{
		Server:     envgate.Group{"BAR": envgate.String()},
		Client:     envgate.Group{"NEXT_PUBLIC_BAR": envgate.String()},
		RuntimeEnv: envgate.RawEnv{"NEXT_PUBLIC_BAR": "foo"},
	})
	require.ErrorIs(t, err, envgate.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "BAR is missing from the runtime environment")
}

func TestExperimentalRuntimeEnvOnlyRequiresClientVars(t *testing.T) {
	t.Setenv("BAR", "bar")
	t.Setenv("NEXT_PUBLIC_BAR", "foo")
	t.Setenv("NODE_ENV", "development")

	opts := Options{
		Shared: envgate.Group{"NODE_ENV": envgate.OneOf("development", "production")},
		Server: envgate.Group{"BAR": envgate.String()},
		Client: envgate.Group{"NEXT_PUBLIC_BAR": envgate.String()},
		ExperimentalRuntimeEnv: envgate.RawEnv{
			"NODE_ENV":        "development",
			"NEXT_PUBLIC_BAR": "foo",
		},
	}

	t.Run("server", func(t *testing.T) {
		opts := opts
		opts.IsServer = envgate.BoolPtr(true)
		env, err := Create(opts)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"BAR": "bar", "NEXT_PUBLIC_BAR": "foo", "NODE_ENV": "development"}, env.Map())
	})

	t.Run("client", func(t *testing.T) {
		opts := opts
		opts.IsServer = envgate.BoolPtr(false)
		env, err := Create(opts)
		require.NoError(t, err)

		_, err = env.Get("BAR")
		require.ErrorIs(t, err, envgate.ErrInvalidAccess)
		assert.Equal(t, "foo", env.MustGet("NEXT_PUBLIC_BAR"))
		assert.Equal(t, "development", env.MustGet("NODE_ENV"))
	})

	t.Run("server vars are rejected", func(t *testing.T) {
		opts := opts
		opts.ExperimentalRuntimeEnv = envgate.RawEnv{"NODE_ENV": "development", "NEXT_PUBLIC_BAR": "foo", "BAR": "bar"}
		_, err := Create(opts)
		require.ErrorIs(t, err, envgate.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "BAR is not a declared variable")
	})

	t.Run("client vars are required", func(t *testing.T) {
		opts := opts
		opts.ExperimentalRuntimeEnv = envgate.RawEnv{"NODE_ENV": "development"}
		_, err := Create(opts)
		require.ErrorIs(t, err, envgate.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "NEXT_PUBLIC_BAR is missing from the runtime environment")
	})
}

func TestRuntimeEnvRequired(t *testing.T) {
	_, err := Create(Options{Server: envgate.Group{"BAR": envgate.String()}})
	require.ErrorIs(t, err, envgate.ErrInvalidConfig)

	_, err = Create(Options{
		Server:                 envgate.Group{"BAR": envgate.String()},
		RuntimeEnv:             envgate.RawEnv{"BAR": "bar"},
		ExperimentalRuntimeEnv: envgate.RawEnv{},
	})
	require.ErrorIs(t, err, envgate.ErrInvalidConfig)
}
