package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	refName = `{ "$id": "https://host.test/refs/name.json",
	             "type": "string", "minLength": 1 }`

	topGreeting = `{
		"$id": "https://host.test/greeting.json",
		"type": "object",
		"additionalProperties": false,
		"required": ["to"],
		"properties": {
			"to": { "$ref": "https://host.test/refs/name.json" },
			"tags": { "type": "array", "items": { "type": "string" } }
		}
	}`
)

func TestNewValidator(t *testing.T) {
	v, err := NewValidator([]string{topGreeting}, []string{refName})
	require.NoError(t, err)
	assert.True(t, v.HasSchema("https://host.test/greeting.json"))
	assert.False(t, v.HasSchema("https://host.test/refs/name.json"))

	issues, err := v.Validate([]byte(`{"to":"Ada","tags":["a"]}`), "https://host.test/greeting.json", "greeting")
	require.NoError(t, err)
	assert.Empty(t, issues)

	issues, err = v.Validate([]byte(`{"to":"","tags":["a",2],"cc":"x"}`), "https://host.test/greeting.json", "greeting")
	require.NoError(t, err)
	var got []string
	for _, i := range issues {
		got = append(got, i.Field)
	}
	assert.ElementsMatch(t, []string{"greeting.to", "greeting.tags[1]", "greeting.cc"}, got)

	_, err = v.Validate([]byte(`{}`), "https://host.test/unknown.json", "x")
	assert.Error(t, err)
}

func TestNewValidatorRequiresID(t *testing.T) {
	_, err := NewValidator([]string{`{"type":"object"}`}, nil)
	assert.Error(t, err)

	_, err = NewValidator([]string{`{not json`}, nil)
	assert.Error(t, err)
}

func TestEmbeddedSchemasCompile(t *testing.T) {
	v, err := schemas()
	require.NoError(t, err)
	for _, name := range schemaFor {
		assert.True(t, v.HasSchema(schemaID(name)), name)
	}
	for _, name := range interactiveSchemaFor {
		assert.True(t, v.HasSchema(schemaID(name)), name)
	}
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "interactive", fieldPath("interactive", "(root)"))
	assert.Equal(t, "interactive.action.buttons[0].reply", fieldPath("interactive", "action.buttons.0.reply"))
	assert.Equal(t, "contacts[2]", fieldPath("contacts", "2"))
}
