package authtransport

import (
	"context"
	"encoding/json"
	"net/http"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/hisakawa/todolist/todosvc"
	"github.com/hisakawa/todolist/todosvc/pkg/authendpoint"
	"github.com/twinj/uuid"
)

const refreshCookieName = "refresh_token"

func NewHTTPHandler(endpoints authendpoint.Set, authenticator endpoint.Middleware, cookies *securecookie.SecureCookie, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		httptransport.ServerBefore(requestID()),
	}

	registerHandler := httptransport.NewServer(
		endpoints.RegisterEndpoint,
		decodeHTTPRegisterRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	loginHandler := httptransport.NewServer(
		endpoints.LoginEndpoint,
		decodeHTTPLoginRequest,
		encodeHTTPLoginResponse(cookies),
		options...,
	)

	var logoutEndpoint endpoint.Endpoint
	{
		logoutEndpoint = endpoints.LogoutEndpoint
		logoutEndpoint = authenticator(logoutEndpoint)
	}

	logoutHandler := httptransport.NewServer(
		logoutEndpoint,
		decodeHTTPLogoutRequest,
		encodeHTTPGenericResponse,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	refreshHandler := httptransport.NewServer(
		endpoints.RefreshEndpoint,
		decodeHTTPRefreshRequest(cookies),
		encodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/user/register").Handler(registerHandler)
	r.Methods("POST").Path("/user/login").Handler(loginHandler)
	r.Methods("POST").Path("/user/logout").Handler(logoutHandler)
	r.Methods("POST").Path("/user/refresh").Handler(refreshHandler)

	return r
}

func requestID() httptransport.RequestFunc {
	return func(ctx context.Context, _ *http.Request) context.Context {
		return context.WithValue(ctx, todosvc.RequestIDContextKey, uuid.NewV4().String())
	}
}

func errorEncoder(_ context.Context, err error, w http.ResponseWriter) {
	w.WriteHeader(err2code(err))
	json.NewEncoder(w).Encode(errorWrapper{Error: err.Error()})
}

type errorWrapper struct {
	Error string `json:"error"`
}

func err2code(err error) int {
	switch err {
	case todosvc.ErrUnauthorized, todosvc.ErrUserContextMissing:
		return http.StatusUnauthorized
	case todosvc.ErrInvalidArgument:
		return http.StatusBadRequest
	case todosvc.ErrEmailTaken:
		return http.StatusConflict
	case ratelimit.ErrLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func decodeHTTPRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, todosvc.ErrInvalidArgument
	}
	return req, nil
}

func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, todosvc.ErrInvalidArgument
	}
	return req, nil
}

func decodeHTTPLogoutRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return authendpoint.LogoutRequest{}, nil
}

// decodeHTTPRefreshRequest takes the refresh token from the body, falling
// back to the encrypted cookie set at login.
func decodeHTTPRefreshRequest(cookies *securecookie.SecureCookie) httptransport.DecodeRequestFunc {
	return func(_ context.Context, r *http.Request) (interface{}, error) {
		var req authendpoint.RefreshRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.RefreshToken == "" {
			c, err := r.Cookie(refreshCookieName)
			if err != nil {
				return req, nil
			}
			var value string
			if err := cookies.Decode(refreshCookieName, c.Value, &value); err != nil {
				return req, nil
			}
			req.RefreshToken = value
		}

		return req, nil
	}
}

func encodeHTTPLoginResponse(cookies *securecookie.SecureCookie) httptransport.EncodeResponseFunc {
	return func(ctx context.Context, w http.ResponseWriter, response interface{}) error {
		resp, ok := response.(authendpoint.LoginResponse)
		if ok && resp.Failed() == nil {
			if encoded, err := cookies.Encode(refreshCookieName, resp.RefreshToken); err == nil {
				http.SetCookie(w, &http.Cookie{
					Name:     refreshCookieName,
					Value:    encoded,
					Path:     "/user",
					HttpOnly: true,
				})
			}
		}
		return encodeHTTPGenericResponse(ctx, w, response)
	}
}

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}

	code := http.StatusOK
	if sc, ok := response.(httptransport.StatusCoder); ok {
		code = sc.StatusCode()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(response)
}
