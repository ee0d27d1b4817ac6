package prin

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"
)

func TestDirectiveErrorSnippet(t *testing.T) {
	t.Run("compile error points at the directive", func(t *testing.T) {
		_, err := Compile("items: ~{~a~")
		require.Error(t, err)
		golden.Assert(t, err.Error(), "compile-error.golden")
	})

	t.Run("runtime error points at the directive", func(t *testing.T) {
		_, err := Render("~{oops~}", 42)
		require.Error(t, err)
		golden.Assert(t, err.Error(), "runtime-error.golden")
	})
}

func TestDirectiveErrorWithoutControl(t *testing.T) {
	err := &DirectiveError{Inner: &ArgumentError{Directive: "a"}}
	require.Equal(t, "ran out of arguments for ~a", err.Error())
}
