package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/body"
	"taskgrid/internal/task"
	"taskgrid/internal/taskcontext"
)

func TestErrorHandlingMapsFrameworkException(t *testing.T) {
	tc := newTC()
	terminal := MiddlewareFunc(func(ctx context.Context, tc *taskcontext.Context, next Next) error {
		return apperrors.NotFound("no such thing")
	})
	chain := Compose([]Middleware{ErrorHandling()}, terminal)

	err := chain.Run(context.Background(), tc)
	require.Error(t, err)

	assert.Equal(t, task.StatusNotFound, tc.TaskResult.GetStatus())
	b, ok := tc.TaskResult.GetBody().(body.Json)
	require.True(t, ok)
	payload, ok := b.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(apperrors.KindNotFound), payload["error"])
	assert.Equal(t, "no such thing", payload["message"])
}

func TestErrorHandlingCoercesNonFrameworkError(t *testing.T) {
	tc := newTC()
	plainErr := assertPlainError{}
	terminal := MiddlewareFunc(func(ctx context.Context, tc *taskcontext.Context, next Next) error {
		return plainErr
	})
	chain := Compose([]Middleware{ErrorHandling()}, terminal)

	err := chain.Run(context.Background(), tc)
	require.Error(t, err)
	assert.Equal(t, task.StatusInternalServerError, tc.TaskResult.GetStatus())
}

func TestErrorHandlingPassesThroughSuccess(t *testing.T) {
	tc := newTC()
	terminal := MiddlewareFunc(func(ctx context.Context, tc *taskcontext.Context, next Next) error {
		tc.TaskResult.SetBody(body.Json{Value: "ok"})
		return next(ctx)
	})
	chain := Compose([]Middleware{ErrorHandling()}, terminal)

	err := chain.Run(context.Background(), tc)
	require.NoError(t, err)
	assert.Equal(t, task.StatusOK, tc.TaskResult.GetStatus())
}

type assertPlainError struct{}

func (assertPlainError) Error() string { return "plain failure" }
