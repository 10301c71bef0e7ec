package todoendpoint

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/hisakawa/todolist/todosvc"
	"github.com/hisakawa/todolist/todosvc/pkg/todoservice"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

type Set struct {
	CreateTodoEndpoint endpoint.Endpoint
	TodosEndpoint      endpoint.Endpoint
	GroupsEndpoint     endpoint.Endpoint
	TodoEndpoint       endpoint.Endpoint
	UpdateTodoEndpoint endpoint.Endpoint
	MarkDoneEndpoint   endpoint.Endpoint
	DeleteTodoEndpoint endpoint.Endpoint
}

func New(svc todoservice.Service, logger log.Logger) Set {
	wrap := func(name string, e endpoint.Endpoint) endpoint.Endpoint {
		e = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(time.Second), 100))(e)
		e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: name}))(e)
		e = LoggingMiddleware(log.With(logger, "method", name))(e)
		return e
	}

	return Set{
		CreateTodoEndpoint: wrap("CreateTodo", MakeCreateTodoEndpoint(svc)),
		TodosEndpoint:      wrap("Todos", MakeTodosEndpoint(svc)),
		GroupsEndpoint:     wrap("Groups", MakeGroupsEndpoint(svc)),
		TodoEndpoint:       wrap("Todo", MakeTodoEndpoint(svc)),
		UpdateTodoEndpoint: wrap("UpdateTodo", MakeUpdateTodoEndpoint(svc)),
		MarkDoneEndpoint:   wrap("MarkDone", MakeMarkDoneEndpoint(svc)),
		DeleteTodoEndpoint: wrap("DeleteTodo", MakeDeleteTodoEndpoint(svc)),
	}
}

func MakeCreateTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user, err := authenticatedUser(ctx)
		if err != nil {
			return CreateTodoResponse{Err: err}, nil
		}

		req := request.(CreateTodoRequest)
		t, err := s.CreateTodo(ctx, user.ID, req.Description, req.Deadline, req.Done)
		return CreateTodoResponse{Todo: t, Err: err}, nil
	}
}

func MakeTodosEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user, err := authenticatedUser(ctx)
		if err != nil {
			return TodosResponse{Err: err}, nil
		}

		_ = request.(TodosRequest)
		t, err := s.Todos(ctx, user.ID)
		return TodosResponse{Todos: t, Err: err}, nil
	}
}

func MakeGroupsEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user, err := authenticatedUser(ctx)
		if err != nil {
			return GroupsResponse{Err: err}, nil
		}

		_ = request.(GroupsRequest)
		g, err := s.Groups(ctx, user.ID)
		return GroupsResponse{TodoGroups: g, Err: err}, nil
	}
}

func MakeTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user, err := authenticatedUser(ctx)
		if err != nil {
			return TodoResponse{Err: err}, nil
		}

		req := request.(TodoRequest)
		t, err := s.Todo(ctx, user.ID, req.TodoID)
		return TodoResponse{Todo: t, Err: err}, nil
	}
}

func MakeUpdateTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user, err := authenticatedUser(ctx)
		if err != nil {
			return UpdateTodoResponse{Err: err}, nil
		}

		req := request.(UpdateTodoRequest)
		_, err = s.UpdateTodo(ctx, user.ID, req.TodoID, req.Description, req.Deadline, req.Done)
		if err != nil {
			return UpdateTodoResponse{Err: err}, nil
		}
		return UpdateTodoResponse{
			Message: fmt.Sprintf("todo with id %d updated successfully", req.TodoID),
		}, nil
	}
}

func MakeMarkDoneEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user, err := authenticatedUser(ctx)
		if err != nil {
			return MarkDoneResponse{Err: err}, nil
		}

		req := request.(MarkDoneRequest)
		_, err = s.MarkDone(ctx, user.ID, req.TodoID)
		if err != nil {
			return MarkDoneResponse{Err: err}, nil
		}
		return MarkDoneResponse{
			Message: fmt.Sprintf("todo with id %d marked as done", req.TodoID),
		}, nil
	}
}

func MakeDeleteTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		user, err := authenticatedUser(ctx)
		if err != nil {
			return DeleteTodoResponse{Err: err}, nil
		}

		req := request.(DeleteTodoRequest)
		err = s.DeleteTodo(ctx, user.ID, req.TodoID)
		return DeleteTodoResponse{Err: err}, nil
	}
}

func authenticatedUser(ctx context.Context) (todosvc.User, error) {
	user, ok := ctx.Value(todosvc.UserContextKey).(todosvc.User)
	if !ok {
		return todosvc.User{}, todosvc.ErrUserContextMissing
	}
	return user, nil
}

var (
	_ endpoint.Failer = CreateTodoResponse{}
	_ endpoint.Failer = TodosResponse{}
	_ endpoint.Failer = GroupsResponse{}
	_ endpoint.Failer = TodoResponse{}
	_ endpoint.Failer = UpdateTodoResponse{}
	_ endpoint.Failer = MarkDoneResponse{}
	_ endpoint.Failer = DeleteTodoResponse{}
)

type CreateTodoRequest struct {
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Done        bool      `json:"done"`
}

type CreateTodoResponse struct {
	Todo todosvc.Todo `json:"todo"`
	Err  error        `json:"-"`
}

func (r CreateTodoResponse) Failed() error   { return r.Err }
func (r CreateTodoResponse) StatusCode() int { return http.StatusCreated }

type TodosRequest struct{}

type TodosResponse struct {
	Todos []todosvc.Todo `json:"todos"`
	Err   error          `json:"-"`
}

func (r TodosResponse) Failed() error { return r.Err }

type GroupsRequest struct{}

type GroupsResponse struct {
	todosvc.TodoGroups
	Err error `json:"-"`
}

func (r GroupsResponse) Failed() error { return r.Err }

type TodoRequest struct {
	TodoID uint64
}

type TodoResponse struct {
	Todo todosvc.Todo `json:"todo"`
	Err  error        `json:"-"`
}

func (r TodoResponse) Failed() error { return r.Err }

type UpdateTodoRequest struct {
	TodoID      uint64    `json:"-"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Done        bool      `json:"done"`
}

type UpdateTodoResponse struct {
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (r UpdateTodoResponse) Failed() error   { return r.Err }
func (r UpdateTodoResponse) StatusCode() int { return http.StatusAccepted }

type MarkDoneRequest struct {
	TodoID uint64
}

type MarkDoneResponse struct {
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (r MarkDoneResponse) Failed() error   { return r.Err }
func (r MarkDoneResponse) StatusCode() int { return http.StatusAccepted }

type DeleteTodoRequest struct {
	TodoID uint64
}

type DeleteTodoResponse struct {
	Err error `json:"-"`
}

func (r DeleteTodoResponse) Failed() error   { return r.Err }
func (r DeleteTodoResponse) StatusCode() int { return http.StatusNoContent }
