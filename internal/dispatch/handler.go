package dispatch

import "context"

// Handler is a caller-supplied unit of work executed on behalf of a task.
// Implementations may be synchronous or block on asynchronous work; the
// dispatcher awaits Invoke either way. Returning an error marks the task
// failed; the error never propagates past Execute.
type Handler interface {
	Invoke(ctx context.Context, task *DispatchedTask) (map[string]any, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, task *DispatchedTask) (map[string]any, error)

// Invoke calls the wrapped function.
func (f HandlerFunc) Invoke(ctx context.Context, task *DispatchedTask) (map[string]any, error) {
	return f(ctx, task)
}
