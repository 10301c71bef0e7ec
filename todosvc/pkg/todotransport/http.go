package todotransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/hisakawa/todolist/todosvc"
	"github.com/hisakawa/todolist/todosvc/pkg/todoendpoint"
	"github.com/twinj/uuid"
)

// NewHTTPHandler mounts the todo routes. Every endpoint runs behind the
// authenticator; the bearer token is lifted off the Authorization header
// before it fires.
func NewHTTPHandler(endpoints todoendpoint.Set, authenticator endpoint.Middleware, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		httptransport.ServerBefore(requestID(), kitjwt.HTTPToContext()),
	}

	createTodoHandler := httptransport.NewServer(
		authenticator(endpoints.CreateTodoEndpoint),
		decodeHTTPCreateTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	todosHandler := httptransport.NewServer(
		authenticator(endpoints.TodosEndpoint),
		decodeHTTPTodosRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	groupsHandler := httptransport.NewServer(
		authenticator(endpoints.GroupsEndpoint),
		decodeHTTPGroupsRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	todoHandler := httptransport.NewServer(
		authenticator(endpoints.TodoEndpoint),
		decodeHTTPTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	updateTodoHandler := httptransport.NewServer(
		authenticator(endpoints.UpdateTodoEndpoint),
		decodeHTTPUpdateTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	markDoneHandler := httptransport.NewServer(
		authenticator(endpoints.MarkDoneEndpoint),
		decodeHTTPMarkDoneRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	deleteTodoHandler := httptransport.NewServer(
		authenticator(endpoints.DeleteTodoEndpoint),
		decodeHTTPDeleteTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/todo").Handler(createTodoHandler)
	r.Methods("GET").Path("/todo").Handler(todosHandler)
	r.Methods("GET").Path("/todo/groups").Handler(groupsHandler)
	r.Methods("GET").Path("/todo/{todo_id}").Handler(todoHandler)
	r.Methods("PUT").Path("/todo/{todo_id}").Handler(updateTodoHandler)
	r.Methods("PUT").Path("/todo/{todo_id}/mark-done").Handler(markDoneHandler)
	r.Methods("DELETE").Path("/todo/{todo_id}").Handler(deleteTodoHandler)

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
	case todosvc.ErrTodoNotFound:
		return http.StatusNotFound
	case todosvc.ErrInvalidArgument, ErrBadRouting:
		return http.StatusBadRequest
	case ratelimit.ErrLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func decodeHTTPCreateTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req todoendpoint.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, todosvc.ErrInvalidArgument
	}
	return req, nil
}

func decodeHTTPTodosRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return todoendpoint.TodosRequest{}, nil
}

func decodeHTTPGroupsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return todoendpoint.GroupsRequest{}, nil
}

func decodeHTTPTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	todoID, err := todoIDVar(r)
	if err != nil {
		return nil, err
	}

	return todoendpoint.TodoRequest{TodoID: todoID}, nil
}

func decodeHTTPUpdateTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	todoID, err := todoIDVar(r)
	if err != nil {
		return nil, err
	}

	var req todoendpoint.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, todosvc.ErrInvalidArgument
	}

	req.TodoID = todoID

	return req, nil
}

func decodeHTTPMarkDoneRequest(_ context.Context, r *http.Request) (interface{}, error) {
	todoID, err := todoIDVar(r)
	if err != nil {
		return nil, err
	}

	return todoendpoint.MarkDoneRequest{TodoID: todoID}, nil
}

func decodeHTTPDeleteTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	todoID, err := todoIDVar(r)
	if err != nil {
		return nil, err
	}

	return todoendpoint.DeleteTodoRequest{TodoID: todoID}, nil
}

func todoIDVar(r *http.Request) (uint64, error) {
	vars := mux.Vars(r)
	todoID, err := strconv.ParseUint(vars["todo_id"], 10, 64)
	if err != nil {
		return 0, ErrBadRouting
	}
	return todoID, nil
}

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}

	code := http.StatusOK
	if sc, ok := response.(httptransport.StatusCoder); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return nil
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(response)
}
