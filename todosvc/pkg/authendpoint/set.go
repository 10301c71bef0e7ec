package authendpoint

import (
	"context"
	"net/http"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/hisakawa/todolist/todosvc"
	"github.com/hisakawa/todolist/todosvc/pkg/authservice"
	"golang.org/x/time/rate"
)

type Set struct {
	RegisterEndpoint endpoint.Endpoint
	LoginEndpoint    endpoint.Endpoint
	LogoutEndpoint   endpoint.Endpoint
	RefreshEndpoint  endpoint.Endpoint
}

func New(svc authservice.Service, logger log.Logger) Set {
	wrap := func(name string, e endpoint.Endpoint) endpoint.Endpoint {
		e = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))(e)
		e = LoggingMiddleware(log.With(logger, "method", name))(e)
		return e
	}

	return Set{
		RegisterEndpoint: wrap("Register", MakeRegisterEndpoint(svc)),
		LoginEndpoint:    wrap("Login", MakeLoginEndpoint(svc)),
		LogoutEndpoint:   wrap("Logout", MakeLogoutEndpoint(svc)),
		RefreshEndpoint:  wrap("Refresh", MakeRefreshEndpoint(svc)),
	}
}

func MakeRegisterEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(RegisterRequest)
		u, err := s.Register(ctx, req.Name, req.Email, req.Password)
		return RegisterResponse{User: u, Err: err}, nil
	}
}

func MakeLoginEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LoginRequest)
		pair, err := s.Login(ctx, req.Email, req.Password)
		if err != nil {
			return LoginResponse{Err: err}, nil
		}
		return LoginResponse{
			AccessToken:  pair.Access,
			RefreshToken: pair.Refresh,
			TokenType:    "bearer",
		}, nil
	}
}

// MakeLogoutEndpoint blacklists the raw bearer token the request arrived
// with. The authenticator has already vouched for it by the time we get
// here.
func MakeLogoutEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		raw, ok := ctx.Value(kitjwt.JWTContextKey).(string)
		if !ok {
			return LogoutResponse{Err: todosvc.ErrUnauthorized}, nil
		}

		_ = request.(LogoutRequest)
		result, err := s.Logout(ctx, raw)
		return LogoutResponse{Result: result, Err: err}, nil
	}
}

func MakeRefreshEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(RefreshRequest)
		access, err := s.Refresh(ctx, req.RefreshToken)
		if err != nil {
			return RefreshResponse{Err: err}, nil
		}
		return RefreshResponse{AccessToken: access, TokenType: "bearer"}, nil
	}
}

var (
	_ endpoint.Failer = RegisterResponse{}
	_ endpoint.Failer = LoginResponse{}
	_ endpoint.Failer = LogoutResponse{}
	_ endpoint.Failer = RefreshResponse{}
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User todosvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r RegisterResponse) Failed() error   { return r.Err }
func (r RegisterResponse) StatusCode() int { return http.StatusCreated }

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Err          error  `json:"-"`
}

func (r LoginResponse) Failed() error { return r.Err }

type LogoutRequest struct{}

type LogoutResponse struct {
	Result bool  `json:"result"`
	Err    error `json:"-"`
}

func (r LogoutResponse) Failed() error { return r.Err }

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Err         error  `json:"-"`
}

func (r RefreshResponse) Failed() error { return r.Err }
