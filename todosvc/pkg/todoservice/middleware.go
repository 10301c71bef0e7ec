package todoservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/hisakawa/todolist/todosvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) CreateTodo(ctx context.Context, userID uint64, description string, deadline time.Time, done bool) (t todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTodo",
			"user_id", userID,
			"description", description,
			"deadline", deadline,
			"done", done,
			"err", err,
		)
	}()
	return mw.next.CreateTodo(ctx, userID, description, deadline, done)
}

func (mw loggingMiddleware) Todos(ctx context.Context, userID uint64) (t []todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Todos",
			"user_id", userID,
			"err", err,
		)
	}()
	return mw.next.Todos(ctx, userID)
}

func (mw loggingMiddleware) Groups(ctx context.Context, userID uint64) (g todosvc.TodoGroups, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Groups",
			"user_id", userID,
			"err", err,
		)
	}()
	return mw.next.Groups(ctx, userID)
}

func (mw loggingMiddleware) Todo(ctx context.Context, userID, todoID uint64) (t todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Todo",
			"user_id", userID,
			"todo_id", todoID,
			"err", err,
		)
	}()
	return mw.next.Todo(ctx, userID, todoID)
}

func (mw loggingMiddleware) UpdateTodo(ctx context.Context, userID, todoID uint64, description string, deadline time.Time, done bool) (t todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTodo",
			"user_id", userID,
			"todo_id", todoID,
			"description", description,
			"deadline", deadline,
			"done", done,
			"err", err,
		)
	}()
	return mw.next.UpdateTodo(ctx, userID, todoID, description, deadline, done)
}

func (mw loggingMiddleware) MarkDone(ctx context.Context, userID, todoID uint64) (t todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "MarkDone",
			"user_id", userID,
			"todo_id", todoID,
			"err", err,
		)
	}()
	return mw.next.MarkDone(ctx, userID, todoID)
}

func (mw loggingMiddleware) DeleteTodo(ctx context.Context, userID, todoID uint64) (err error) {
	defer func() {
		mw.logger.Log(
			"method", "DeleteTodo",
			"user_id", userID,
			"todo_id", todoID,
			"err", err,
		)
	}()
	return mw.next.DeleteTodo(ctx, userID, todoID)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) CreateTodo(ctx context.Context, userID uint64, description string, deadline time.Time, done bool) (t todosvc.Todo, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "create_todo").Add(1)
		mw.requestLatency.With("method", "create_todo").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.CreateTodo(ctx, userID, description, deadline, done)
}

func (mw instrumentingMiddleware) Todos(ctx context.Context, userID uint64) (t []todosvc.Todo, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "todos").Add(1)
		mw.requestLatency.With("method", "todos").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Todos(ctx, userID)
}

func (mw instrumentingMiddleware) Groups(ctx context.Context, userID uint64) (g todosvc.TodoGroups, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "groups").Add(1)
		mw.requestLatency.With("method", "groups").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Groups(ctx, userID)
}

func (mw instrumentingMiddleware) Todo(ctx context.Context, userID, todoID uint64) (t todosvc.Todo, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "todo").Add(1)
		mw.requestLatency.With("method", "todo").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.Todo(ctx, userID, todoID)
}

func (mw instrumentingMiddleware) UpdateTodo(ctx context.Context, userID, todoID uint64, description string, deadline time.Time, done bool) (t todosvc.Todo, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "update_todo").Add(1)
		mw.requestLatency.With("method", "update_todo").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.UpdateTodo(ctx, userID, todoID, description, deadline, done)
}

func (mw instrumentingMiddleware) MarkDone(ctx context.Context, userID, todoID uint64) (t todosvc.Todo, err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "mark_done").Add(1)
		mw.requestLatency.With("method", "mark_done").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.MarkDone(ctx, userID, todoID)
}

func (mw instrumentingMiddleware) DeleteTodo(ctx context.Context, userID, todoID uint64) (err error) {
	defer func(begin time.Time) {
		mw.requestCount.With("method", "delete_todo").Add(1)
		mw.requestLatency.With("method", "delete_todo").Observe(time.Since(begin).Seconds())
	}(time.Now())

	return mw.next.DeleteTodo(ctx, userID, todoID)
}
