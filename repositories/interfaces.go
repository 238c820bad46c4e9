package repositories

import (
	"errors"

	"github.com/inkpress/inkpress/models"
)

// ErrUsernameTaken is returned when a register attempt collides with an
// existing username.
var ErrUsernameTaken = errors.New("username already taken")

// PostFilter narrows a listing. Zero values mean no constraint.
type PostFilter struct {
	TitleContains string
	CategoryID    uint
}

// PostStore persists whole Post aggregates. Save is conditional on the
// version the aggregate was loaded with and fails with
// models.ErrStaleAggregate when another writer got there first.
type PostStore interface {
	Insert(post *models.Post) error
	FindByID(id uint) (*models.Post, error)
	SlugExists(slug string, excludeID uint) (bool, error)
	Save(post *models.Post) error
	Delete(id uint) error
	List(filter PostFilter, offset, limit int) ([]models.Post, int64, error)
	IncrementViewCount(id uint) error
}

// CategoryStore persists the auxiliary category collection.
type CategoryStore interface {
	Insert(category *models.Category) error
	FindByID(id uint) (*models.Category, error)
	List() ([]models.Category, error)
	Delete(id uint) error
}

// UserStore persists identity records.
type UserStore interface {
	Insert(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
}
