package todoservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/hisakawa/todolist/todosvc"
)

type Service interface {
	CreateTodo(ctx context.Context, userID uint64, description string, deadline time.Time, done bool) (todosvc.Todo, error)
	Todos(ctx context.Context, userID uint64) ([]todosvc.Todo, error)
	Groups(ctx context.Context, userID uint64) (todosvc.TodoGroups, error)
	Todo(ctx context.Context, userID, todoID uint64) (todosvc.Todo, error)
	UpdateTodo(ctx context.Context, userID, todoID uint64, description string, deadline time.Time, done bool) (todosvc.Todo, error)
	MarkDone(ctx context.Context, userID, todoID uint64) (todosvc.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID uint64) error
}

func New(t todosvc.TodoRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	todos todosvc.TodoRepository
}

func NewBasicService(t todosvc.TodoRepository) Service {
	return basicService{todos: t}
}

func (s basicService) CreateTodo(_ context.Context, userID uint64, description string, deadline time.Time, done bool) (todosvc.Todo, error) {
	if description == "" || userID == 0 {
		return todosvc.Todo{}, todosvc.ErrInvalidArgument
	}
	return s.todos.Create(description, deadline, done, userID)
}

func (s basicService) Todos(_ context.Context, userID uint64) ([]todosvc.Todo, error) {
	if userID == 0 {
		return nil, todosvc.ErrInvalidArgument
	}
	return s.todos.FindAll(userID)
}

// Groups evaluates the partition against the current time. Completion wins
// over an elapsed deadline.
func (s basicService) Groups(_ context.Context, userID uint64) (todosvc.TodoGroups, error) {
	if userID == 0 {
		return todosvc.TodoGroups{}, todosvc.ErrInvalidArgument
	}

	todos, err := s.todos.FindAll(userID)
	if err != nil {
		return todosvc.TodoGroups{}, err
	}

	now := time.Now()

	groups := todosvc.TodoGroups{
		Completed:   []todosvc.Todo{},
		ToBeDone:    []todosvc.Todo{},
		TimeElapsed: []todosvc.Todo{},
	}
	for _, todo := range todos {
		switch {
		case todo.Done:
			groups.Completed = append(groups.Completed, todo)
		case todo.Deadline.Before(now):
			groups.TimeElapsed = append(groups.TimeElapsed, todo)
		default:
			groups.ToBeDone = append(groups.ToBeDone, todo)
		}
	}

	return groups, nil
}

func (s basicService) Todo(_ context.Context, userID, todoID uint64) (todosvc.Todo, error) {
	if userID == 0 || todoID == 0 {
		return todosvc.Todo{}, todosvc.ErrInvalidArgument
	}
	return s.todos.Find(todoID, userID)
}

func (s basicService) UpdateTodo(_ context.Context, userID, todoID uint64, description string, deadline time.Time, done bool) (todosvc.Todo, error) {
	if userID == 0 || todoID == 0 {
		return todosvc.Todo{}, todosvc.ErrInvalidArgument
	}
	return s.todos.Update(todosvc.Todo{
		ID:          todoID,
		Description: description,
		Deadline:    deadline,
		Done:        done,
		UserID:      userID,
	})
}

func (s basicService) MarkDone(_ context.Context, userID, todoID uint64) (todosvc.Todo, error) {
	if userID == 0 || todoID == 0 {
		return todosvc.Todo{}, todosvc.ErrInvalidArgument
	}

	todo, err := s.todos.Find(todoID, userID)
	if err != nil {
		return todosvc.Todo{}, err
	}

	todo.Done = true
	return s.todos.Update(todo)
}

func (s basicService) DeleteTodo(_ context.Context, userID, todoID uint64) error {
	if userID == 0 || todoID == 0 {
		return todosvc.ErrInvalidArgument
	}
	return s.todos.Delete(todoID, userID)
}
