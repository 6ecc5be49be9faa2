package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope(`{"seq":3,"func":"double","param":["21"],"page":"abc"}`)
	require.NoError(t, err)
	assert.Equal(t, int64(3), env.Seq)
	assert.Equal(t, "double", env.Func)
	assert.Equal(t, []string{"21"}, env.Param)
	assert.Equal(t, "abc", env.Page)

	env, err = ParseEnvelope(`{"seq":1,"func":"noargs","param":[]}`)
	require.NoError(t, err)
	assert.Empty(t, env.Param)
	assert.Empty(t, env.Page)
}

func TestParseEnvelopeRejectsIncomplete(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"garbage":      `{{`,
		"array":        `[]`,
		"missing seq":  `{"func":"f","param":[]}`,
		"missing func": `{"seq":1,"param":[]}`,
		"missing args": `{"seq":1,"func":"f"}`,
		"zero seq":     `{"seq":0,"func":"f","param":[]}`,
		"empty func":   `{"seq":1,"func":"","param":[]}`,
		"bad param":    `{"seq":1,"func":"f","param":[1,2]}`,
		"null param":   `{"seq":1,"func":"f","param":null}`,
	}
	for name, payload := range cases {
		_, err := ParseEnvelope(payload)
		assert.ErrorIs(t, err, ErrMalformedEnvelope, name)
	}
}

func TestConventionString(t *testing.T) {
	assert.Equal(t, "string", ConventionString.String())
	assert.Equal(t, "json", ConventionJSON.String())
	assert.Equal(t, "unknown", Convention(9).String())
}

func TestConfigLogDefaultsToNop(t *testing.T) {
	assert.NotNil(t, Config{}.Log())
}
