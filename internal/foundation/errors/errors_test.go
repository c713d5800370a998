package errors

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "config.yaml", file)
	})

	t.Run("Wrapped cause is reachable", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := WrapError(cause, CategoryStore, "connect failed").Retryable().Build()

		assert.ErrorIs(t, err, cause)
		assert.True(t, err.CanRetry())
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("Found through fmt wrapping", func(t *testing.T) {
		inner := RenderError("template missing").Build()
		wrapped := fmt.Errorf("page /x/index.html: %w", inner)

		assert.True(t, HasCategory(wrapped, CategoryRender))
		assert.Equal(t, CategoryRender, GetCategory(wrapped))
		assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		builder  *ErrorBuilder
		category ErrorCategory
		severity ErrorSeverity
		retry    RetryStrategy
	}{
		{"ConfigError", ConfigError("x"), CategoryConfig, SeverityFatal, RetryUserAction},
		{"ValidationError", ValidationError("x"), CategoryValidation, SeverityFatal, RetryNever},
		{"StoreError", StoreError("x"), CategoryStore, SeverityError, RetryBackoff},
		{"BuildError", BuildError("x"), CategoryBuild, SeverityFatal, RetryNever},
		{"RenderError", RenderError("x"), CategoryRender, SeverityFatal, RetryNever},
		{"AssetError", AssetError("x"), CategoryAssets, SeverityFatal, RetryNever},
		{"FileSystemError", FileSystemError("x"), CategoryFileSystem, SeverityError, RetryBackoff},
		{"DaemonError", DaemonError("x"), CategoryDaemon, SeverityFatal, RetryNever},
		{"InternalError", InternalError("x"), CategoryInternal, SeverityFatal, RetryNever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.builder.Build()
			assert.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.severity, err.Severity())
			assert.Equal(t, tt.retry, err.RetryStrategy())
		})
	}
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{}.Set("key1", "value1").Set("shared", "original")
	b := ErrorContext{}.Set("key2", "value2").Set("shared", "overridden")

	merged := a.Merge(b)
	v, _ := merged.GetString("shared")
	assert.Equal(t, "overridden", v)
	assert.Len(t, merged, 3)
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"store", StoreError("down").Build(), 8},
		{"render", RenderError("broken").Build(), 11},
		{"daemon", DaemonError("stuck").Build(), 12},
		{"internal", InternalError("bug").Build(), 10},
		{"wrapped render", fmt.Errorf("build: %w", RenderError("broken").Build()), 11},
		{"unclassified", errors.New("unknown"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out

	code := adapter.HandleError(ConfigError("store.driver is required").WithContext("file", "config.yaml").Build())

	assert.Equal(t, 7, code)
	assert.Equal(t, "Configuration error: store.driver is required\n", out.String())
	assert.Contains(t, logs.String(), "category=config")
	assert.Contains(t, logs.String(), "file=config.yaml")
}
