package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlow = `
name: login-check
description: Logs in and verifies the landing page
variables:
  retries: 0
  username: admin
steps:
  - action: set_variable
    name: reset counter
    params:
      name: counter
      value: 0
  - action: sleep
    params:
      seconds: 0.1
  - action: log
    params:
      message: done
    continue_on_error: true
`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(sampleFlow))
	require.NoError(t, err)

	assert.Equal(t, "login-check", def.Name)
	assert.Equal(t, "1.0", def.Version)
	assert.Len(t, def.Steps, 3)
	assert.Equal(t, "set_variable", def.Steps[0].ActionID)
	assert.Equal(t, "reset counter", def.Steps[0].Name)
	assert.True(t, def.Steps[2].ContinueOnError)
	assert.Equal(t, "admin", def.Variables["username"])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing name", "steps:\n  - action: log"},
		{"no steps", "name: empty"},
		{"step without action", "name: bad\nsteps:\n  - name: unnamed"},
		{"malformed yaml", "name: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestStepData(t *testing.T) {
	step := Step{ActionID: "click", Name: "press submit", Params: map[string]interface{}{"selector": "#go"}}
	data := step.Data()
	assert.Equal(t, "click", data["action_id"])
	assert.Equal(t, "press submit", data["name"])
}

func TestMemoryVariables(t *testing.T) {
	store := NewMemoryVariablesFrom(map[string]interface{}{"counter": 1})

	v, ok := store.GetVariable("counter")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = store.GetVariable("missing")
	assert.False(t, ok)

	store.Set("counter", 2)
	v, _ = store.GetVariable("counter")
	assert.Equal(t, 2, v)

	store.SetTyped("url", "https://example.com", "string", "target page")
	all := store.AllVariables()
	assert.Len(t, all, 2)
	assert.Equal(t, "string", all["url"].Type)

	// Snapshot is a copy, mutating it must not affect the store.
	delete(all, "counter")
	_, ok = store.GetVariable("counter")
	assert.True(t, ok)

	assert.True(t, store.Delete("url"))
	assert.False(t, store.Delete("url"))

	store.Clear()
	assert.Empty(t, store.AllVariables())
}
