package registry_test

import (
	"testing"

	"github.com/claytonlovin/Botinho/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidators(t *testing.T) {
	r := registry.Default()

	tests := []struct {
		validator string
		input     string
		want      bool
	}{
		{"nonempty", "x", true},
		{"nonempty", "   ", false},
		{"digits", "12345", true},
		{"digits", "12a45", false},
		{"digits", "", false},
		{"number", "3,14", true},
		{"number", "-2", true},
		{"number", "1.2.3", false},
		{"email", "ana@example.com", true},
		{"email", "ana@", false},
		{"phone", "+55 (11) 91234-5678", true},
		{"phone", "1234", false},
		{"name", "Ana Maria", true},
		{"name", "R2D2", false},
	}

	for _, tt := range tests {
		t.Run(tt.validator+"/"+tt.input, func(t *testing.T) {
			v, err := r.Lookup(tt.validator)
			require.NoError(t, err)
			assert.Equal(t, tt.validator, v.Name())
			assert.Equal(t, tt.want, v.Validate(tt.input))
		})
	}
}

func TestRegistry_Regex(t *testing.T) {
	r := registry.NewRegistry()

	v, err := r.Lookup("regex:^[0-9]{5}-?[0-9]{3}$")
	require.NoError(t, err)
	assert.True(t, v.Validate("01310-100"))
	assert.False(t, v.Validate("0131"))

	_, err = r.Lookup("regex:[")
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := registry.NewRegistry()

	_, err := r.Lookup("yes")
	assert.Error(t, err, "unknown validators are reported")

	r.Register("yes", func(s string) bool { return s == "sim" })
	v, err := r.Lookup("yes")
	require.NoError(t, err)
	assert.True(t, v.Validate("sim"))
	assert.Contains(t, r.Names(), "yes")
}
