package envgate

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"a", "*"},
		{"ab", "**"},
		{"abc", "***"},
		{"abcd", "abc*"},
		{"abcdef", "abc***"},
	}
	for _, c := range cases {
		got := mask(c.input)
		if got != c.want {
			t.Errorf("mask(%q) = %q; want %q", c.input, got, c.want)
		}
	}
}

func prettyOptions() Options {
	return Options{
		Server: Group{
			"API_KEY":      String().Secret(),
			"DATABASE_URL": URL(),
			"PORT":         Int().Default(8080),
			"TIMEOUT":      Duration().Default("1m"),
			"HOSTS":        Of[[]string](),
		},
		Client:       Group{"PUBLIC_NAME": String().Describe("display name")},
		Shared:       Group{"APP_ENV": OneOf("dev", "prod").Default("dev")},
		ClientPrefix: "PUBLIC_",
		RuntimeEnv: RawEnv{
			"API_KEY":      "sk_live_123",
			"DATABASE_URL": "postgres://app:hunter2@db:5432/app",
			"HOSTS":        "a,b",
			"PUBLIC_NAME":  "demo",
		},
	}
}

func TestPrettyString(t *testing.T) {
	opts := prettyOptions()
	opts.IsServer = BoolPtr(true)
	env, err := Create(opts)
	require.NoError(t, err)

	var result map[string]any
	if err := json.Unmarshal([]byte(env.PrettyString()), &result); err != nil {
		t.Fatalf("failed to parse PrettyString output: %v", err)
	}

	assert.Equal(t, "sk_********", result["API_KEY"])
	dbURL, _ := result["DATABASE_URL"].(string)
	assert.NotContains(t, dbURL, "hunter2")
	assert.Regexp(t, `^postgres://app:(\*\*\*|%2A%2A%2A)@db:5432/app$`, dbURL)
	assert.Equal(t, float64(8080), result["PORT"])
	assert.Equal(t, "1m0s", result["TIMEOUT"])
	assert.Equal(t, []any{"a", "b"}, result["HOSTS"])
	assert.Equal(t, "demo", result["PUBLIC_NAME"])
	assert.Equal(t, "dev", result["APP_ENV"])
}

func TestPrettyStringClient(t *testing.T) {
	opts := prettyOptions()
	opts.IsServer = BoolPtr(false)
	env, err := Create(opts)
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.PrettyString()), &result))
	assert.Equal(t, map[string]any{"PUBLIC_NAME": "demo", "APP_ENV": "dev"}, result)
}

func TestDescribe(t *testing.T) {
	settings := Describe(prettyOptions())

	names := make([]string, 0, len(settings))
	for _, s := range settings {
		names = append(names, s.Group+"/"+s.Name)
	}
	assert.Equal(t, []string{
		"server/API_KEY", "server/DATABASE_URL", "server/HOSTS", "server/PORT", "server/TIMEOUT",
		"shared/APP_ENV",
		"client/PUBLIC_NAME",
	}, names)

	assert.Equal(t, VarSetting{
		Name: "PORT", Group: "server", Type: "int", Default: "8080",
	}, settings[3])
	assert.Equal(t, "display name", settings[6].Description)
	assert.Equal(t, "enum(dev|prod)", settings[5].Type)

	secrets := SecretVars(prettyOptions())
	require.Len(t, secrets, 1)
	assert.Equal(t, "API_KEY", secrets[0].Name)

	required := RequiredVars(prettyOptions())
	var requiredNames []string
	for _, s := range required {
		requiredNames = append(requiredNames, s.Name)
	}
	assert.Equal(t, []string{"API_KEY", "DATABASE_URL", "HOSTS", "PUBLIC_NAME"}, requiredNames)
}

func TestPrettyStringProgram(t *testing.T) {
	env, err := Create(Options{
		Server:     Group{"FEATURE_RULE": Program()},
		RuntimeEnv: RawEnv{"FEATURE_RULE": "1 + 2"},
		IsServer:   BoolPtr(true),
	})
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.PrettyString()), &result))
	assert.Equal(t, "1 + 2", result["FEATURE_RULE"])
}
