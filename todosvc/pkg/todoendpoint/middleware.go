package todoendpoint

import (
	"context"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/hisakawa/todolist/todosvc"
)

// LoggingMiddleware logs the transport-level outcome of each invocation,
// with the request ID injected by the HTTP layer.
func LoggingMiddleware(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				logger.Log(
					"request_id", ctx.Value(todosvc.RequestIDContextKey),
					"transport_error", err,
					"took", time.Since(begin),
				)
			}(time.Now())
			return next(ctx, request)
		}
	}
}
