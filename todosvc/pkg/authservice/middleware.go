package authservice

import (
	"context"

	"github.com/go-kit/kit/log"
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

func (mw loggingMiddleware) Register(ctx context.Context, name, email, password string) (u todosvc.User, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Register",
			"name", name,
			"email", email,
			"err", err,
		)
	}()
	return mw.next.Register(ctx, name, email, password)
}

func (mw loggingMiddleware) Login(ctx context.Context, email, password string) (t TokenPair, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Login",
			"email", email,
			"err", err,
		)
	}()
	return mw.next.Login(ctx, email, password)
}

func (mw loggingMiddleware) Logout(ctx context.Context, rawToken string) (result bool, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Logout",
			"result", result,
			"err", err,
		)
	}()
	return mw.next.Logout(ctx, rawToken)
}

func (mw loggingMiddleware) Refresh(ctx context.Context, rawToken string) (_ string, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Refresh",
			"err", err,
		)
	}()
	return mw.next.Refresh(ctx, rawToken)
}
