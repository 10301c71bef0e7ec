package todosvc

import (
	"errors"
	"time"
)

type User struct {
	ID       uint64 `json:"id" gorm:"primaryKey"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"uniqueIndex"`
	Password string `json:"-"`
}

type Todo struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Done        bool      `json:"done" gorm:"default:false"`
	UserID      uint64    `json:"user_id" gorm:"index;not null"`
}

type BlacklistedToken struct {
	ID            uint64    `json:"id" gorm:"primaryKey"`
	Token         string    `json:"token" gorm:"uniqueIndex"`
	BlacklistedOn time.Time `json:"blacklisted_on"`
}

// TodoGroups partitions a user's todos into three disjoint sets evaluated
// against the current time. A done todo belongs to Completed regardless of
// its deadline.
type TodoGroups struct {
	Completed   []Todo `json:"completed"`
	ToBeDone    []Todo `json:"to_be_done"`
	TimeElapsed []Todo `json:"time_elapsed"`
}

type UserRepository interface {
	Create(name, email, password string) (User, error)
	FindByEmail(email string) (User, error)
}

// TodoRepository is the single canonical persistence surface for todos.
// Find carries the owner filter; a todo owned by someone else is reported
// as ErrTodoNotFound, same as a missing one.
type TodoRepository interface {
	Create(description string, deadline time.Time, done bool, userID uint64) (Todo, error)
	FindAll(userID uint64) ([]Todo, error)
	Find(todoID, userID uint64) (Todo, error)
	Update(todo Todo) (Todo, error)
	Delete(todoID, userID uint64) error
}

// BlacklistRepository is the durable set of revoked raw token strings,
// consulted on every verification.
type BlacklistRepository interface {
	Add(token string) error
	Contains(token string) (bool, error)
}

type contextKey string

const (
	UserContextKey      contextKey = "User"
	RequestIDContextKey contextKey = "RequestID"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("could not validate credentials")
	ErrTodoNotFound       = errors.New("todo not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserContextMissing = errors.New("user was not passed through the context")
)
