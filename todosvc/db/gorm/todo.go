package gorm

import (
	"errors"
	"time"

	"github.com/hisakawa/todolist/todosvc"
	stdgorm "gorm.io/gorm"
)

type todoRepository struct {
	db *stdgorm.DB
}

func NewTodoRepository(db *stdgorm.DB) todosvc.TodoRepository {
	return &todoRepository{db}
}

func (t *todoRepository) Create(description string, deadline time.Time, done bool, userID uint64) (todosvc.Todo, error) {
	todo := todosvc.Todo{
		Description: description,
		Deadline:    deadline,
		Done:        done,
		UserID:      userID,
	}
	result := t.db.Create(&todo)

	return todo, result.Error
}

func (t *todoRepository) FindAll(userID uint64) ([]todosvc.Todo, error) {
	var todos []todosvc.Todo
	result := t.db.Where("user_id = ?", userID).Order("id").Find(&todos)

	return todos, result.Error
}

// Find is the single owner-filtered lookup every other operation goes
// through. A todo owned by another user is the same ErrTodoNotFound as a
// missing one.
func (t *todoRepository) Find(todoID, userID uint64) (todosvc.Todo, error) {
	var todo todosvc.Todo
	result := t.db.Where("id = ? AND user_id = ?", todoID, userID).First(&todo)

	if errors.Is(result.Error, stdgorm.ErrRecordNotFound) {
		return todosvc.Todo{}, todosvc.ErrTodoNotFound
	}

	return todo, result.Error
}

func (t *todoRepository) Update(todo todosvc.Todo) (todosvc.Todo, error) {
	current, err := t.Find(todo.ID, todo.UserID)
	if err != nil {
		return todosvc.Todo{}, err
	}

	result := t.db.Model(&current).Updates(
		map[string]interface{}{
			"description": todo.Description,
			"deadline":    todo.Deadline,
			"done":        todo.Done,
		})
	if result.Error != nil {
		return todosvc.Todo{}, result.Error
	}

	return current, nil
}

func (t *todoRepository) Delete(todoID, userID uint64) error {
	result := t.db.Where("user_id = ?", userID).Delete(&todosvc.Todo{ID: todoID})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return todosvc.ErrTodoNotFound
	}

	return nil
}
