package todoservice

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/hisakawa/todolist/todosvc"
)

type todoRepo struct {
	todos  map[uint64]todosvc.Todo
	nextID uint64
}

func newTodoRepo() *todoRepo {
	return &todoRepo{todos: make(map[uint64]todosvc.Todo)}
}

func (r *todoRepo) Create(description string, deadline time.Time, done bool, userID uint64) (todosvc.Todo, error) {
	r.nextID++
	todo := todosvc.Todo{
		ID:          r.nextID,
		Description: description,
		Deadline:    deadline,
		Done:        done,
		UserID:      userID,
	}
	r.todos[todo.ID] = todo
	return todo, nil
}

func (r *todoRepo) FindAll(userID uint64) ([]todosvc.Todo, error) {
	var todos []todosvc.Todo
	for _, todo := range r.todos {
		if todo.UserID == userID {
			todos = append(todos, todo)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos, nil
}

func (r *todoRepo) Find(todoID, userID uint64) (todosvc.Todo, error) {
	todo, ok := r.todos[todoID]
	if !ok || todo.UserID != userID {
		return todosvc.Todo{}, todosvc.ErrTodoNotFound
	}
	return todo, nil
}

func (r *todoRepo) Update(todo todosvc.Todo) (todosvc.Todo, error) {
	current, err := r.Find(todo.ID, todo.UserID)
	if err != nil {
		return todosvc.Todo{}, err
	}
	current.Description = todo.Description
	current.Deadline = todo.Deadline
	current.Done = todo.Done
	r.todos[current.ID] = current
	return current, nil
}

func (r *todoRepo) Delete(todoID, userID uint64) error {
	if _, err := r.Find(todoID, userID); err != nil {
		return err
	}
	delete(r.todos, todoID)
	return nil
}

func TestCreateTodoValidation(t *testing.T) {
	svc := NewBasicService(newTodoRepo())

	if _, err := svc.CreateTodo(context.Background(), 1, "", time.Now(), false); !errors.Is(err, todosvc.ErrInvalidArgument) {
		t.Errorf("empty description: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.CreateTodo(context.Background(), 0, "buy milk", time.Now(), false); !errors.Is(err, todosvc.ErrInvalidArgument) {
		t.Errorf("zero user: err = %v, want ErrInvalidArgument", err)
	}
}

func TestGroupsPartitionIsExhaustiveAndDisjoint(t *testing.T) {
	repo := newTodoRepo()
	svc := NewBasicService(repo)
	ctx := context.Background()

	now := time.Now()
	svc.CreateTodo(ctx, 1, "overdue", now.Add(-time.Hour), false)
	svc.CreateTodo(ctx, 1, "upcoming", now.Add(time.Hour), false)
	svc.CreateTodo(ctx, 1, "finished early", now.Add(time.Hour), true)
	svc.CreateTodo(ctx, 1, "finished late", now.Add(-time.Hour), true)

	groups, err := svc.Groups(ctx, 1)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}

	all, _ := svc.Todos(ctx, 1)
	total := len(groups.Completed) + len(groups.ToBeDone) + len(groups.TimeElapsed)
	if total != len(all) {
		t.Errorf("partition size = %d, want %d", total, len(all))
	}

	seen := make(map[uint64]int)
	for _, todo := range groups.Completed {
		seen[todo.ID]++
	}
	for _, todo := range groups.ToBeDone {
		seen[todo.ID]++
	}
	for _, todo := range groups.TimeElapsed {
		seen[todo.ID]++
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("todo %d appears in %d groups, want exactly 1", id, n)
		}
	}

	// Done wins over an elapsed deadline.
	if len(groups.Completed) != 2 {
		t.Errorf("completed = %d, want 2", len(groups.Completed))
	}
	if len(groups.TimeElapsed) != 1 || groups.TimeElapsed[0].Description != "overdue" {
		t.Errorf("time_elapsed = %+v, want the single overdue todo", groups.TimeElapsed)
	}
	if len(groups.ToBeDone) != 1 || groups.ToBeDone[0].Description != "upcoming" {
		t.Errorf("to_be_done = %+v, want the single upcoming todo", groups.ToBeDone)
	}
}

func TestMarkDoneMovesTodoToCompleted(t *testing.T) {
	repo := newTodoRepo()
	svc := NewBasicService(repo)
	ctx := context.Background()

	todo, err := svc.CreateTodo(ctx, 1, "buy milk", time.Now().Add(-time.Hour), false)
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}

	groups, _ := svc.Groups(ctx, 1)
	if len(groups.TimeElapsed) != 1 || len(groups.Completed) != 0 {
		t.Fatalf("before mark-done: groups = %+v, want todo in time_elapsed", groups)
	}

	if _, err := svc.MarkDone(ctx, 1, todo.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	groups, _ = svc.Groups(ctx, 1)
	if len(groups.Completed) != 1 || len(groups.TimeElapsed) != 0 {
		t.Fatalf("after mark-done: groups = %+v, want todo in completed", groups)
	}
}

func TestMarkDoneIsIdempotent(t *testing.T) {
	repo := newTodoRepo()
	svc := NewBasicService(repo)
	ctx := context.Background()

	todo, _ := svc.CreateTodo(ctx, 1, "buy milk", time.Now(), false)

	first, err := svc.MarkDone(ctx, 1, todo.ID)
	if err != nil || !first.Done {
		t.Fatalf("first MarkDone: todo = %+v, err = %v", first, err)
	}

	second, err := svc.MarkDone(ctx, 1, todo.ID)
	if err != nil || !second.Done {
		t.Fatalf("second MarkDone: todo = %+v, err = %v", second, err)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	repo := newTodoRepo()
	svc := NewBasicService(repo)
	ctx := context.Background()

	todo, _ := svc.CreateTodo(ctx, 1, "private", time.Now(), false)

	if _, err := svc.Todo(ctx, 2, todo.ID); !errors.Is(err, todosvc.ErrTodoNotFound) {
		t.Errorf("get: err = %v, want ErrTodoNotFound", err)
	}
	if _, err := svc.UpdateTodo(ctx, 2, todo.ID, "stolen", time.Now(), true); !errors.Is(err, todosvc.ErrTodoNotFound) {
		t.Errorf("update: err = %v, want ErrTodoNotFound", err)
	}
	if _, err := svc.MarkDone(ctx, 2, todo.ID); !errors.Is(err, todosvc.ErrTodoNotFound) {
		t.Errorf("mark-done: err = %v, want ErrTodoNotFound", err)
	}
	if err := svc.DeleteTodo(ctx, 2, todo.ID); !errors.Is(err, todosvc.ErrTodoNotFound) {
		t.Errorf("delete: err = %v, want ErrTodoNotFound", err)
	}

	// The owner still sees it untouched.
	got, err := svc.Todo(ctx, 1, todo.ID)
	if err != nil || got.Description != "private" || got.Done {
		t.Errorf("owner's todo = %+v, err = %v", got, err)
	}
}

func TestUpdateReplacesMutableFields(t *testing.T) {
	repo := newTodoRepo()
	svc := NewBasicService(repo)
	ctx := context.Background()

	todo, _ := svc.CreateTodo(ctx, 1, "draft", time.Now(), false)

	deadline := time.Now().Add(48 * time.Hour)
	updated, err := svc.UpdateTodo(ctx, 1, todo.ID, "final", deadline, true)
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if updated.Description != "final" || !updated.Done || !updated.Deadline.Equal(deadline) {
		t.Errorf("updated = %+v", updated)
	}
	if updated.UserID != 1 || updated.ID != todo.ID {
		t.Errorf("identity changed: %+v", updated)
	}
}
