package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrExec,
		ErrParse,
		ErrCollect,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "refresh_interval is too short",
			suggestion: "Use at least 100ms",
		},
		{
			name:       "exec error",
			code:       ErrExec,
			message:    "Couldn't start powermetrics",
			suggestion: "Run mactop with sudo available",
		},
		{
			name:       "parse error",
			code:       ErrParse,
			message:    "ioreg output is not a plist",
			suggestion: "",
		},
		{
			name:       "collect error",
			code:       ErrCollect,
			message:    "collector already started",
			suggestion: "Stop it before starting again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "message and suggestion",
			err:           New(ErrConfig, "Invalid configuration", "Check .mactop.yaml syntax"),
			expectedParts: []string{"✗ Invalid configuration", "Check .mactop.yaml syntax"},
		},
		{
			name:          "cause is rendered",
			err:           WrapWithCode(fmt.Errorf("exit status 1"), ErrExec, "ioreg failed", ""),
			expectedParts: []string{"ioreg failed", "exit status 1"},
		},
		{
			name:          "empty suggestion is omitted",
			err:           New(ErrParse, "bad record", ""),
			expectedParts: []string{"✗ bad record\n"},
			notExpected:   []string{"\n\n  \n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, out, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, out, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, "collector crashed")

	assert.Equal(t, ErrCollect, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.True(t, strings.HasPrefix(err.Error(), "✗ collector crashed"))
}

func TestMissingField(t *testing.T) {
	err := MissingField("AppleSmartBattery", "CycleCount")

	assert.Equal(t, ErrParse, err.Code)
	assert.Contains(t, err.Error(), "'CycleCount'")
	assert.Contains(t, err.Error(), "AppleSmartBattery")
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{name: "nil", err: nil, code: ErrConfig, want: false},
		{name: "plain error", err: errors.New("x"), code: ErrConfig, want: false},
		{name: "matching code", err: New(ErrParse, "x", ""), code: ErrParse, want: true},
		{name: "other code", err: New(ErrParse, "x", ""), code: ErrExec, want: false},
		{name: "wrapped by fmt", err: fmt.Errorf("outer: %w", New(ErrExec, "x", "")), code: ErrExec, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join(nil, nil))

	a := New(ErrExec, "a", "")
	b := errors.New("b")
	joined := Join(a, nil, b)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, b)
	assert.True(t, IsCode(joined, ErrExec))
}

func TestBrief(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("boom"), want: "boom"},
		{name: "message only", err: New(ErrParse, "bad record", ""), want: "bad record"},
		{
			name: "cause and suggestion",
			err:  WrapWithCode(errors.New("exit status 1"), ErrExec, "ioreg exited with code 1", "no such class"),
			want: "ioreg exited with code 1: exit status 1 (no such class)",
		},
		{
			name: "nested",
			err:  Wrap(New(ErrParse, "inner", ""), "outer"),
			want: "outer: inner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Brief(tt.err))
			assert.NotContains(t, Brief(tt.err), "\n")
		})
	}
}
