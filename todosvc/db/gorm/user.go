package gorm

import (
	"errors"

	"github.com/hisakawa/todolist/todosvc"
	stdgorm "gorm.io/gorm"
)

type userRepository struct {
	db *stdgorm.DB
}

func NewUserRepository(db *stdgorm.DB) todosvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Create(name, email, password string) (todosvc.User, error) {
	var existing todosvc.User
	err := u.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return todosvc.User{}, todosvc.ErrEmailTaken
	}
	if !errors.Is(err, stdgorm.ErrRecordNotFound) {
		return todosvc.User{}, err
	}

	user := todosvc.User{Name: name, Email: email, Password: password}
	result := u.db.Create(&user)

	return user, result.Error
}

func (u *userRepository) FindByEmail(email string) (todosvc.User, error) {
	var user todosvc.User
	result := u.db.Where("email = ?", email).First(&user)

	if errors.Is(result.Error, stdgorm.ErrRecordNotFound) {
		return todosvc.User{}, todosvc.ErrUserNotFound
	}

	return user, result.Error
}
