package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "duplicate with kind detail",
			err:      Duplicate("path", "raw2digi_step"),
			expected: `DUPLICATE_NAME: path "raw2digi_step" is already defined [kind=path]`,
		},
		{
			name:     "frozen",
			err:      Frozen("add path"),
			expected: "FROZEN: cannot add path: process is frozen",
		},
		{
			name:     "with cause",
			err:      Invalid("bad output %q", "AODoutput").WithCause(errors.New("boom")),
			expected: `INVALID_CONFIG: bad output "AODoutput": boom`,
		},
		{
			name:     "unresolved with referrer",
			err:      Unresolved("stage", "RawToDigi", `path "raw2digi_step"`),
			expected: `NAME_RESOLUTION: undefined stage "RawToDigi" referenced by path "raw2digi_step"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestCodeOf_SeesThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("building paths: %w", Unresolved("stage", "x", ""))
	assert.Equal(t, CodeNameResolution, CodeOf(wrapped))
	assert.True(t, IsNameResolution(wrapped))

	var nre *NameResolutionError
	require.True(t, errors.As(wrapped, &nre))
	assert.Equal(t, "x", nre.Name)

	dup := fmt.Errorf("outer: %w", Duplicate("stage", "a"))
	assert.True(t, HasCode(dup, CodeDuplicateName))
	assert.False(t, HasCode(dup, CodeFrozen))
	assert.False(t, HasCode(nil, CodeFrozen))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestCodeOf_OutermostClassifiedErrorWins(t *testing.T) {
	cause := Unresolved("fragment", "Missing", "process \"reRECO\"")

	testCases := []struct {
		name     string
		err      error
		code     Code
		resolves bool
	}{
		{
			name: "phase order wrapping name resolution",
			err:  New(CodePhaseOrder, "cannot run phase %q: assembly was aborted", "load_stages").WithCause(cause),
			code: CodePhaseOrder,
		},
		{
			name: "plain wrapper over phase order",
			err:  fmt.Errorf("assemble: %w", New(CodePhaseOrder, "aborted").WithCause(cause)),
			code: CodePhaseOrder,
		},
		{
			name:     "joined errors use the first classified branch",
			err:      errors.Join(errors.New("plain"), cause, Invalid("later")),
			code:     CodeNameResolution,
			resolves: true,
		},
		{
			name: "validation wrapping invalid wrapping name resolution",
			err:  New(CodeValidation, "output module %q is invalid", "out").WithCause(Invalid("cyclic").WithCause(cause)),
			code: CodeValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, CodeOf(tc.err))
			assert.Equal(t, tc.resolves, IsNameResolution(tc.err))

			var nre *NameResolutionError
			assert.True(t, errors.As(tc.err, &nre), "cause stays reachable with errors.As")
		})
	}
}
