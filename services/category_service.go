package services

import (
	"strings"

	"github.com/inkpress/inkpress/models"
	"github.com/inkpress/inkpress/repositories"
)

// CategoryService manages the auxiliary category collection. Creation
// only needs an authenticated actor; deletion is admin-only.
type CategoryService struct {
	categories repositories.CategoryStore
}

func NewCategoryService(categories repositories.CategoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) List() ([]models.Category, error) {
	return s.categories.List()
}

func (s *CategoryService) Create(name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "is required"}
	}
	category := &models.Category{Name: name, Description: description}
	if err := s.categories.Insert(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Delete(id uint, actor models.Actor) error {
	if !actor.IsAdmin {
		return models.ErrForbidden
	}
	return s.categories.Delete(id)
}
