package authtransport

import (
	"context"
	"errors"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/hisakawa/todolist/todosvc"
	"github.com/hisakawa/todolist/todosvc/pkg/token"
)

// NewAuthenticator resolves the request's bearer token to a User before the
// wrapped endpoint runs. Every verification failure, including a token whose
// subject no longer exists, collapses into the one uniform
// todosvc.ErrUnauthorized; the internal kind is only logged. A blacklist
// store failure is not an authentication failure and propagates as-is.
func NewAuthenticator(tokens *token.Service, users todosvc.UserRepository, blacklist token.Blacklist, logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			raw, ok := ctx.Value(kitjwt.JWTContextKey).(string)
			if !ok || raw == "" {
				return nil, todosvc.ErrUnauthorized
			}

			claims, err := tokens.Verify(raw, token.TypeAccess, blacklist)
			if err != nil {
				var terr *token.Error
				if errors.As(err, &terr) {
					logger.Log("during", "verify", "kind", terr.Kind, "err", err)
					return nil, todosvc.ErrUnauthorized
				}
				return nil, err
			}

			user, err := users.FindByEmail(claims.Subject)
			if err != nil {
				if errors.Is(err, todosvc.ErrUserNotFound) {
					return nil, todosvc.ErrUnauthorized
				}
				return nil, err
			}

			ctx = context.WithValue(ctx, todosvc.UserContextKey, user)

			return next(ctx, request)
		}
	}
}
