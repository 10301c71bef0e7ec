package gorm

import (
	"time"

	"github.com/hisakawa/todolist/todosvc"
	stdgorm "gorm.io/gorm"
)

type blacklistRepository struct {
	db *stdgorm.DB
}

func NewBlacklistRepository(db *stdgorm.DB) todosvc.BlacklistRepository {
	return &blacklistRepository{db}
}

func (b *blacklistRepository) Add(token string) error {
	entry := todosvc.BlacklistedToken{
		Token:         token,
		BlacklistedOn: time.Now(),
	}
	return b.db.Create(&entry).Error
}

func (b *blacklistRepository) Contains(token string) (bool, error) {
	var count int64
	result := b.db.Model(&todosvc.BlacklistedToken{}).Where("token = ?", token).Count(&count)

	return count > 0, result.Error
}
