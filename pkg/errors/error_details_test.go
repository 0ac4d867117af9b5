package errors

import (
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorCodeEquals(t *testing.T) {
	configErr := NewErrorDetails("history base url is not configured", string(BarStreamConfigError), "base_url")

	testCases := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{
			name:     "direct details",
			err:      configErr,
			code:     BarStreamConfigError,
			expected: true,
		},
		{
			name:     "details behind tracer",
			err:      TracerFromError(configErr),
			code:     BarStreamConfigError,
			expected: true,
		},
		{
			name:     "details behind fmt wrap",
			err:      fmt.Errorf("open source: %w", configErr),
			code:     BarStreamConfigError,
			expected: true,
		},
		{
			name:     "different code",
			err:      configErr,
			code:     BarStreamSourceError,
			expected: false,
		},
		{
			name:     "base error with matching detail",
			err:      NewBaseError(NewErrorDetails("bad", string(GeneralBadRequestError), "x"), configErr),
			code:     BarStreamConfigError,
			expected: true,
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("boom"),
			code:     BarStreamConfigError,
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ErrorCodeEquals(tc.err, string(tc.code)))
		})
	}
}

func TestTracerFromError_KeepsStack(t *testing.T) {
	tracer := TracerFromError(fmt.Errorf("upsert failed"))

	assert.Equal(t, "upsert failed", tracer.Error())
	assert.NotNil(t, tracer.StackTrace())
}

func TestTracerFromError_ReusesExistingStack(t *testing.T) {
	cause := pkgerrors.New("connection reset")
	wrapped := fmt.Errorf("load recent: %w", cause)

	tracer := TracerFromError(wrapped)

	assert.Equal(t, "load recent: connection reset", tracer.Error())
	assert.Equal(t, cause.(StackTracer).StackTrace(), tracer.StackTrace())
	assert.ErrorIs(t, tracer, cause)
}
