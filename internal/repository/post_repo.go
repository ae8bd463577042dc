package repository

import (
	"context"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostFilter struct {
	CategoryID    *uuid.UUID
	PublishedOnly bool
	Search        string
}

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	GetBySlug(ctx context.Context, slug string) (*model.Post, error)
	List(ctx context.Context, filter PostFilter, page Page) ([]model.Post, int64, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, except *uuid.UUID) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	return GetDB(ctx, r.db).Omit("Category", "Author").Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	var post model.Post
	if err := GetDB(ctx, r.db).Preload("Category").Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	if err := GetDB(ctx, r.db).Preload("Category").Preload("Author").First(&post, "slug = ?", slug).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, page Page) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Post{})
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.PublishedOnly {
		query = query.Where("published = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR summary ILIKE ?", like, like)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(query.Preload("Category").Order("created_at DESC")).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	return GetDB(ctx, r.db).Omit("Category", "Author").Save(post).Error
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Post{}).Error
}

func (r *postRepository) SlugExists(ctx context.Context, slug string, except *uuid.UUID) (bool, error) {
	var count int64
	query := GetDB(ctx, r.db).Unscoped().Model(&model.Post{}).Where("slug = ?", slug)
	if except != nil {
		query = query.Where("id <> ?", *except)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, except *uuid.UUID) (bool, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := GetDB(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := GetDB(ctx, r.db).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return GetDB(ctx, r.db).Save(category).Error
}

// Delete detaches the category from its posts before removing it.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Post{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *categoryRepository) SlugExists(ctx context.Context, slug string, except *uuid.UUID) (bool, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.Category{}).Where("slug = ?", slug)
	if except != nil {
		query = query.Where("id <> ?", *except)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
