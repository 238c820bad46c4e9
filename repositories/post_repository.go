package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inkpress/inkpress/models"
)

// PostRepository is the gorm-backed PostStore. The aggregate maps to one
// row; comments and replies travel inside its JSON document column.
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Insert(post *models.Post) error {
	if err := r.db.Omit(clause.Associations).Create(post).Error; err != nil {
		return translatePostErr(err)
	}
	return nil
}

func (r *PostRepository) FindByID(id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.Preload("Author").Preload("Category").First(&post, id).Error
	if err != nil {
		return nil, translatePostErr(err)
	}
	return &post, nil
}

func (r *PostRepository) SlugExists(slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save writes the whole aggregate back in one conditional update. The row
// must still carry the version the aggregate was loaded with; otherwise
// the in-memory mutation is discarded and the caller has to reload.
func (r *PostRepository) Save(post *models.Post) error {
	prev := post.Version
	post.Version = prev + 1
	tx := r.db.Model(&models.Post{}).
		Where("id = ? AND version = ?", post.ID, prev).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(post)
	if tx.Error != nil {
		post.Version = prev
		return translatePostErr(tx.Error)
	}
	if tx.RowsAffected == 0 {
		post.Version = prev
		return models.ErrStaleAggregate
	}
	return nil
}

func (r *PostRepository) Delete(id uint) error {
	tx := r.db.Delete(&models.Post{}, id)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostRepository) List(filter PostFilter, offset, limit int) ([]models.Post, int64, error) {
	q := r.db.Model(&models.Post{}).Preload("Author").Preload("Category").Order("id ASC")
	if filter.TitleContains != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(filter.TitleContains)+"%")
	}
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	if err := q.Offset(offset).Limit(limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// IncrementViewCount bumps the counter atomically in SQL, outside the
// versioned aggregate write, so reads never contend with comment saves.
func (r *PostRepository) IncrementViewCount(id uint) error {
	return r.db.Model(&models.Post{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func translatePostErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		// The only unique constraint on posts is the slug index.
		return models.ErrSlugTaken
	default:
		return err
	}
}
