package foundation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
)

func TestValidatorChain(t *testing.T) {
	chain := NewValidatorChain(
		OneOf("format", []string{"text", "json"}),
		func(v string) ValidationResult {
			return Check(v != "", "format", "required", "is required")
		},
	)

	require.True(t, chain.Validate("json").Valid)

	result := chain.Validate("")
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 2)
	require.Equal(t, "one_of", result.Errors[0].Code)
	require.Equal(t, "format: is required", result.Errors[1].Error())
}

func TestInRange(t *testing.T) {
	v := InRange("port", 0, 65535)
	require.True(t, v(1313).Valid)
	require.False(t, v(70000).Valid)
	require.Equal(t, "port: out of range: -1", v(-1).Errors[0].Error())
}

func TestToError(t *testing.T) {
	require.NoError(t, Valid().ToError())

	err := Invalid(
		NewValidationError("a", "required", "is required"),
		NewValidationError("b", "range", "out of range: 9"),
	).ToError()
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Equal(t, errors.SeverityFatal, errors.GetSeverity(err))

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "a: is required; b: out of range: 9", ce.Message())
	fields, _ := ce.Context().Get("fields")
	require.Equal(t, []string{"a", "b"}, fields)
}
