package middleware

import (
	"context"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/body"
	"taskgrid/internal/task"
	"taskgrid/internal/taskcontext"
)

// ErrorHandling is the fixed top-of-chain middleware §7 describes: it
// catches any framework exception returned by the rest of the chain, maps
// it to a (status, body) pair via the closed taxonomy, and populates
// task_result. Non-framework errors are coerced to internal-error by
// apperrors.AsFrameworkError before mapping. The original error is still
// returned so a caller that wants to log it (or discard it, per a
// fire-and-forget transport) may do so; the TaskContext's TaskResult is
// always left in a valid, serializable state either way.
func ErrorHandling() Middleware {
	return MiddlewareFunc(func(ctx context.Context, tc *taskcontext.Context, next Next) error {
		err := next(ctx)
		if err == nil {
			return nil
		}

		fe := apperrors.AsFrameworkError(err)
		tc.TaskResult.SetStatus(task.Status(fe.StatusCode()))
		tc.TaskResult.SetBody(body.Json{Value: errorPayload(fe)})
		tc.Logger.Error("task failed: %v", fe)
		return err
	})
}

func errorPayload(fe *apperrors.Error) map[string]any {
	payload := map[string]any{"error": string(fe.Kind), "message": fe.Message}
	for k, v := range fe.Fields {
		payload[k] = v
	}
	return payload
}
